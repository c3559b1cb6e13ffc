package merchant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeFiltersPrecedence(t *testing.T) {
	stored := TransactionFilters{
		PaymentStatus: PaymentStatusCompleted,
		PayerName:     "stored-payer",
	}
	overrides := TransactionFilters{
		PaymentStatus: PaymentStatusPending,
		PayerPhone:    "+255700000001",
	}

	got := MergeFilters(stored, overrides)

	// Override wins over stored.
	assert.Equal(t, PaymentStatusPending, got["paymentStatus.equals"])
	// Stored fills fields the override leaves empty.
	assert.Equal(t, "stored-payer", got["payerName.contains"])
	// Set only by the override.
	assert.Equal(t, "+255700000001", got["payerPhone.contains"])
	// Never set anywhere: omitted entirely.
	_, ok := got["merchantBranchId.equals"]
	assert.False(t, ok)
}

func TestMergeFiltersNoneSentinelIsUnset(t *testing.T) {
	stored := TransactionFilters{PaymentStatus: PaymentStatusCompleted}
	overrides := TransactionFilters{PaymentStatus: "NONE"}

	got := MergeFilters(stored, overrides)

	// "NONE" in the override is unset, so the stored value applies.
	assert.Equal(t, PaymentStatusCompleted, got["paymentStatus.equals"])

	// "NONE" stored with no override leaves the field out.
	got = MergeFilters(TransactionFilters{PaymentStatus: "NONE"}, TransactionFilters{})
	_, ok := got["paymentStatus.equals"]
	assert.False(t, ok)
}

func TestMergeFiltersOperatorSuffixes(t *testing.T) {
	got := MergeFilters(TransactionFilters{}, TransactionFilters{
		AmountGreaterOrEqual: "1000",
		AmountLessOrEqual:    "5000",
		InitiatedDate:        "2025-06-01T00:00:00Z",
		CompletedDate:        "2025-06-02T00:00:00Z",
	})

	assert.Equal(t, "1000", got["amount.greaterThanOrEqual"])
	assert.Equal(t, "5000", got["amount.lessThanOrEqual"])
	assert.Equal(t, "2025-06-01T00:00:00Z", got["initiatedDate.greaterThanOrEqual"])
	assert.Equal(t, "2025-06-02T00:00:00Z", got["completedDate.lessThanOrEqual"])
}

func TestFilterStoreDefaults(t *testing.T) {
	s, err := NewFilterStore("")
	require.NoError(t, err)

	prefs := s.Get()
	assert.Equal(t, PaymentStatusCompleted, prefs.PaymentStatus)
	assert.Equal(t, "DESC", prefs.SortBy)
}

func TestFilterStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFilterStore(dir)
	require.NoError(t, err)
	s.Set(TransactionFilters{PaymentStatus: PaymentStatusFailed, PayerName: "asha"})

	reloaded, err := NewFilterStore(dir)
	require.NoError(t, err)
	prefs := reloaded.Get()
	assert.Equal(t, PaymentStatusFailed, prefs.PaymentStatus)
	assert.Equal(t, "asha", prefs.PayerName)

	reloaded.Reset()
	fresh, err := NewFilterStore(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultTransactionFilters(), fresh.Get())
}
