package service

import (
	"context"
	"sync"

	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"

	"github.com/rs/zerolog"
)

// AuditServiceImpl implements ports.AuditService.
type AuditServiceImpl struct {
	repo ports.AuditRepository
	log  zerolog.Logger
	wg   sync.WaitGroup
}

// NewAuditService creates a new audit service.
// If repo is nil, audit logs are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditServiceImpl {
	return &AuditServiceImpl{repo: repo, log: log}
}

// Log records an audit entry asynchronously (fire-and-forget).
func (s *AuditServiceImpl) Log(_ context.Context, entry *domain.AuditLog) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.log.Info().
			Str("action", string(entry.Action)).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Str("ip", entry.IPAddress).
			Msg("audit")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
			}
		}
	}()
}

// Wait blocks until every entry handed to Log has been written.
func (s *AuditServiceImpl) Wait() {
	s.wg.Wait()
}
