package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bank-transfer-saga/internal/core/domain"

	"github.com/rs/zerolog"
)

// DefaultWebhookRetryIntervals spaces out redelivery of a settlement notification.
var DefaultWebhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// EventTransferSettled is the webhook event type for settled transfers.
const EventTransferSettled = "TRANSFER_SETTLED"

// WebhookPayload is the JSON structure posted to the configured URL.
type WebhookPayload struct {
	EventType string             `json:"event_type"`
	Data      WebhookPayloadData `json:"data"`
	Signature string             `json:"signature"`
}

// WebhookPayloadData holds the transfer details in the webhook.
type WebhookPayloadData struct {
	TransferID    string `json:"transfer_id"`
	SourceAccount string `json:"source_account"`
	TargetAccount string `json:"target_account"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Timestamp     int64  `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookNotifier posts a signed notification for every settled transfer.
// Delivery happens in the background and never affects the transfer itself.
type WebhookNotifier struct {
	url        string
	secret     []byte
	httpClient HTTPClient
	intervals  []time.Duration
	log        zerolog.Logger
	wg         sync.WaitGroup
}

// NewWebhookNotifier creates a notifier. A nil intervals slice uses
// DefaultWebhookRetryIntervals.
func NewWebhookNotifier(url, secret string, httpClient HTTPClient, intervals []time.Duration, log zerolog.Logger) *WebhookNotifier {
	if intervals == nil {
		intervals = DefaultWebhookRetryIntervals
	}
	return &WebhookNotifier{
		url:        url,
		secret:     []byte(secret),
		httpClient: httpClient,
		intervals:  intervals,
		log:        log,
	}
}

// HandleFundsSettled is subscribed to domain.EventFundsSettled.
func (n *WebhookNotifier) HandleFundsSettled(_ context.Context, evt domain.TransferEvent) {
	t := evt.Transfer
	data := WebhookPayloadData{
		TransferID:    t.ID.String(),
		SourceAccount: t.Source.String(),
		TargetAccount: t.Target.String(),
		Amount:        t.Amount.Amount(),
		Currency:      string(t.Amount.Currency()),
		Timestamp:     evt.OccurredAt.Unix(),
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		n.log.Error().Err(err).Str("transfer_id", data.TransferID).Msg("webhook: failed to marshal data")
		return
	}

	payload := WebhookPayload{
		EventType: EventTransferSettled,
		Data:      data,
		Signature: n.Sign(dataBytes),
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliverWithRetries(payload)
	}()
}

// Sign returns the hex HMAC-SHA256 of body under the shared secret.
func (n *WebhookNotifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Wait blocks until every started delivery has finished or given up.
func (n *WebhookNotifier) Wait() {
	n.wg.Wait()
}

func (n *WebhookNotifier) deliverWithRetries(payload WebhookPayload) {
	transferID := payload.Data.TransferID
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		n.log.Error().Err(err).Str("transfer_id", transferID).Msg("webhook: failed to marshal payload")
		return
	}

	for attempt := 0; attempt <= len(n.intervals); attempt++ {
		if attempt > 0 {
			time.Sleep(n.intervals[attempt-1])
		}

		status, err := n.post(payloadBytes)
		if err != nil {
			n.log.Warn().Err(err).Str("transfer_id", transferID).Int("attempt", attempt+1).Msg("webhook: delivery failed")
			continue
		}
		if status >= 200 && status < 300 {
			n.log.Info().Str("transfer_id", transferID).Int("attempt", attempt+1).Int("status", status).Msg("webhook: delivered successfully")
			return
		}

		n.log.Warn().Str("transfer_id", transferID).Int("attempt", attempt+1).Int("status", status).Msg("webhook: non-2xx response, retrying")
	}

	n.log.Error().Str("transfer_id", transferID).Msg("webhook: all retry attempts exhausted")
}

func (n *WebhookNotifier) post(body []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
