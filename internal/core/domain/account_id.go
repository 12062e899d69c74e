package domain

import (
	"strconv"
	"strings"
)

// DefaultAccountPrefix marks identifiers issued by this bank.
const DefaultAccountPrefix = "REV"

// AccountID is an opaque account identifier compared by content.
type AccountID string

func (id AccountID) String() string { return string(id) }

// Bank describes the local bank: which identifiers it owns and the
// currency its accounts settle in.
type Bank struct {
	Prefix   string
	Currency Currency
}

// DefaultBank is the bank used when nothing else is configured.
func DefaultBank() Bank {
	return Bank{Prefix: DefaultAccountPrefix, Currency: PLN}
}

// Owns reports whether id was issued by this bank. Settlement for owned
// accounts is applied locally; anything else is an external bank.
func (b Bank) Owns(id AccountID) bool {
	return b.Prefix != "" && strings.HasPrefix(string(id), b.Prefix)
}

// FormatAccountID builds the identifier for sequence number n.
func (b Bank) FormatAccountID(n int64) AccountID {
	return AccountID(b.Prefix + strconv.FormatInt(n, 10))
}
