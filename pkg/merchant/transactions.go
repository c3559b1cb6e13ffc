package merchant

import (
	"context"

	"github.com/cexll/merchantops-go/pkg/apiclient"
	"github.com/cexll/merchantops-go/pkg/query"
)

const pathTransactionsMine = "/transactions/mine"

// Transactions operates on the operator's transaction history. List
// filters come from the longer-lived FilterStore unless the caller
// overrides individual fields.
type Transactions struct {
	client  *apiclient.Client
	filters *FilterStore
}

// NewTransactions binds the service to a client and a filter preference
// store.
func NewTransactions(client *apiclient.Client, filters *FilterStore) *Transactions {
	return &Transactions{client: client, filters: filters}
}

// List builds a paginated transaction view seeded from the stored filter
// preference merged with the given overrides.
func (t *Transactions) List(overrides TransactionFilters, opts query.Options) *query.Engine[Transaction] {
	opts.Endpoint = func() string { return pathTransactionsMine }
	stored := TransactionFilters{}
	if t.filters != nil {
		stored = t.filters.Get()
	}
	if opts.Sort == "" {
		if sort, ok := set(overrides, func(f TransactionFilters) string { return f.SortBy }); ok {
			opts.Sort = sort
		} else if sort, ok := set(stored, func(f TransactionFilters) string { return f.SortBy }); ok {
			opts.Sort = sort
		}
	}
	opts.Filters = MergeFilters(stored, overrides)
	return query.New[Transaction](t.client, opts)
}

// EffectiveFilters resolves the filter map a list fetch would use.
func (t *Transactions) EffectiveFilters(overrides TransactionFilters) map[string]string {
	stored := TransactionFilters{}
	if t.filters != nil {
		stored = t.filters.Get()
	}
	return MergeFilters(stored, overrides)
}

// Get fetches one transaction.
func (t *Transactions) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	result := apiclient.Call[Transaction](ctx, t.client, "/transactions/"+transactionID, apiclient.CallOptions{})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}
