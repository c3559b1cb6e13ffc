package merchant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TransactionFilters is the filter shape for transaction list views.
// Empty fields are unset; the sentinel "NONE" also counts as unset so a
// stored preference can be cleared without deleting it.
type TransactionFilters struct {
	PaymentStatus         string `json:"paymentStatus,omitempty"`
	TransactionInitiator  string `json:"transactionInitiator,omitempty"`
	SortBy                string `json:"sortBy,omitempty"`
	AmountGreaterOrEqual  string `json:"amountGreaterThanOrEqual,omitempty"`
	AmountLessOrEqual     string `json:"amountLessThanOrEqual,omitempty"`
	PayerName             string `json:"payerName,omitempty"`
	PayerPhone            string `json:"payerPhone,omitempty"`
	PayerAccountNumber    string `json:"payerAccountNumber,omitempty"`
	PayerID               string `json:"payerId,omitempty"`
	PaymentReference      string `json:"paymentReference,omitempty"`
	DynamicID             string `json:"dynamicId,omitempty"`
	MerchantTransactionID string `json:"merchantTransactionId,omitempty"`
	TransactionRefID      string `json:"transactionRefId,omitempty"`
	MBTransactionID       string `json:"mbTransactionId,omitempty"`
	CoreTransactionID     string `json:"coreTransactionId,omitempty"`
	MerchantAccountNumber string `json:"merchantAccountNumber,omitempty"`
	MerchantID            string `json:"merchantId,omitempty"`
	MerchantOperatorID    string `json:"merchantOperatorId,omitempty"`
	MerchantBranchID      string `json:"merchantBranchId,omitempty"`
	InitiatedDate         string `json:"initiatedDate,omitempty"`
	CompletedDate         string `json:"completedDate,omitempty"`
	ExpirationDate        string `json:"expirationDate,omitempty"`
}

// filterKeys maps each filter field to its wire parameter, operator
// suffix included.
var filterKeys = []struct {
	param string
	get   func(f TransactionFilters) string
}{
	{"paymentStatus.equals", func(f TransactionFilters) string { return f.PaymentStatus }},
	{"transactionInitiator.equals", func(f TransactionFilters) string { return f.TransactionInitiator }},
	{"amount.greaterThanOrEqual", func(f TransactionFilters) string { return f.AmountGreaterOrEqual }},
	{"amount.lessThanOrEqual", func(f TransactionFilters) string { return f.AmountLessOrEqual }},
	{"payerName.contains", func(f TransactionFilters) string { return f.PayerName }},
	{"payerPhone.contains", func(f TransactionFilters) string { return f.PayerPhone }},
	{"payerAccountNumber.equals", func(f TransactionFilters) string { return f.PayerAccountNumber }},
	{"payerId.equals", func(f TransactionFilters) string { return f.PayerID }},
	{"paymentReference.contains", func(f TransactionFilters) string { return f.PaymentReference }},
	{"dynamicId.equals", func(f TransactionFilters) string { return f.DynamicID }},
	{"merchantTransactionId.equals", func(f TransactionFilters) string { return f.MerchantTransactionID }},
	{"transactionRefId.equals", func(f TransactionFilters) string { return f.TransactionRefID }},
	{"mbTransactionId.equals", func(f TransactionFilters) string { return f.MBTransactionID }},
	{"coreTransactionId.equals", func(f TransactionFilters) string { return f.CoreTransactionID }},
	{"merchantAccountNumber.equals", func(f TransactionFilters) string { return f.MerchantAccountNumber }},
	{"merchantId.equals", func(f TransactionFilters) string { return f.MerchantID }},
	{"merchantOperatorId.equals", func(f TransactionFilters) string { return f.MerchantOperatorID }},
	{"merchantBranchId.equals", func(f TransactionFilters) string { return f.MerchantBranchID }},
	{"initiatedDate.greaterThanOrEqual", func(f TransactionFilters) string { return f.InitiatedDate }},
	{"completedDate.lessThanOrEqual", func(f TransactionFilters) string { return f.CompletedDate }},
	{"expirationDate.lessThanOrEqual", func(f TransactionFilters) string { return f.ExpirationDate }},
}

func set(f TransactionFilters, get func(TransactionFilters) string) (string, bool) {
	v := get(f)
	if v == "" || v == "NONE" {
		return "", false
	}
	return v, true
}

// MergeFilters resolves the effective filter map for a list fetch.
// Precedence per field: explicit override > stored preference > omitted.
func MergeFilters(stored, overrides TransactionFilters) map[string]string {
	out := map[string]string{}
	for _, fk := range filterKeys {
		if v, ok := set(overrides, fk.get); ok {
			out[fk.param] = v
			continue
		}
		if v, ok := set(stored, fk.get); ok {
			out[fk.param] = v
		}
	}
	return out
}

// FilterStore holds the longer-lived transaction filter preference for
// one client instance, persisted alongside the session snapshot.
type FilterStore struct {
	mu    sync.RWMutex
	prefs TransactionFilters
	path  string
}

// DefaultTransactionFilters is the preference a fresh store starts with.
func DefaultTransactionFilters() TransactionFilters {
	return TransactionFilters{
		PaymentStatus: PaymentStatusCompleted,
		SortBy:        "DESC",
	}
}

// NewFilterStore creates the store, rehydrating from dir when a snapshot
// exists. An empty dir keeps the store memory-only.
func NewFilterStore(dir string) (*FilterStore, error) {
	s := &FilterStore{prefs: DefaultTransactionFilters()}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("merchant: mkdir filter dir: %w", err)
	}
	s.path = filepath.Join(dir, "transaction-filters.json")
	if payload, err := os.ReadFile(s.path); err == nil {
		var prefs TransactionFilters
		if err := json.Unmarshal(payload, &prefs); err == nil {
			s.prefs = prefs
		}
	}
	return s, nil
}

// Get returns the stored preference.
func (s *FilterStore) Get() TransactionFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Set replaces the stored preference.
func (s *FilterStore) Set(prefs TransactionFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = prefs
	s.persistLocked()
}

// Reset restores the defaults.
func (s *FilterStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = DefaultTransactionFilters()
	s.persistLocked()
}

func (s *FilterStore) persistLocked() {
	if s.path == "" {
		return
	}
	payload, err := json.Marshal(s.prefs)
	if err != nil {
		return
	}
	// Best effort, same policy as the session snapshot.
	_ = os.WriteFile(s.path, payload, 0o600)
}
