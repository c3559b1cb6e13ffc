package apiclient

import (
	"net/url"

	"github.com/google/go-querystring/query"
)

// ListParams is the wire shape of paginated list queries. Page is already
// zero-based here; the query engine converts from its 1-based view.
type ListParams struct {
	Page    int    `url:"page"`
	Size    int    `url:"size"`
	Sort    string `url:"sort,omitempty"`
	Keyword string `url:"keyword,omitempty"`
}

// Values encodes the params for the query string.
func (p ListParams) Values() (url.Values, error) {
	return query.Values(p)
}

// MergeFilters flattens a filter map into the query values. Filter keys
// carry their operator suffix already (for example "amount.greaterThanOrEqual").
func MergeFilters(values url.Values, filters map[string]string) url.Values {
	if values == nil {
		values = url.Values{}
	}
	for key, value := range filters {
		if key == "" || value == "" {
			continue
		}
		values.Set(key, value)
	}
	return values
}
