// Package merchant exposes the branch, operator, transaction and payment
// operations of the dashboard API. List views ride on the query engine;
// single-item operations return the unwrapped value or a typed error and
// leave all presentation to the caller.
package merchant

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cexll/merchantops-go/pkg/apiclient"
	"github.com/cexll/merchantops-go/pkg/query"
)

// Branches operates on merchant branch resources. Endpoints are scoped by
// the current operator id, which may change (or be absent) over the
// session's lifetime, so paths resolve lazily.
type Branches struct {
	client     *apiclient.Client
	operatorID func() string
}

// NewBranches binds the service to a client and an operator id source.
func NewBranches(client *apiclient.Client, operatorID func() string) *Branches {
	return &Branches{client: client, operatorID: operatorID}
}

func (b *Branches) collectionPath() string {
	id := b.operatorID()
	if id == "" {
		return ""
	}
	return fmt.Sprintf("/merchants/%s/branches", id)
}

func (b *Branches) itemPath(branchID string) string {
	return b.collectionPath() + "/" + branchID
}

// List builds a paginated branch view. With no signed-in operator the
// endpoint resolves empty and the engine stays quiet.
func (b *Branches) List(opts query.Options) *query.Engine[Branch] {
	opts.Endpoint = b.collectionPath
	return query.New[Branch](b.client, opts)
}

// Get fetches one branch.
func (b *Branches) Get(ctx context.Context, branchID string) (*Branch, error) {
	result := apiclient.Call[Branch](ctx, b.client, b.itemPath(branchID), apiclient.CallOptions{})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Create registers a new branch.
func (b *Branches) Create(ctx context.Context, branch Branch) (*Branch, error) {
	result := apiclient.Call[Branch](ctx, b.client, b.collectionPath(), apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   branch,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Update replaces a branch.
func (b *Branches) Update(ctx context.Context, branchID string, branch Branch) (*Branch, error) {
	result := apiclient.Call[Branch](ctx, b.client, b.itemPath(branchID), apiclient.CallOptions{
		Method: http.MethodPut,
		Body:   branch,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Patch applies a partial update.
func (b *Branches) Patch(ctx context.Context, branchID string, fields map[string]any) (*Branch, error) {
	result := apiclient.Call[Branch](ctx, b.client, b.itemPath(branchID), apiclient.CallOptions{
		Method: http.MethodPatch,
		Body:   fields,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Delete removes a branch.
func (b *Branches) Delete(ctx context.Context, branchID string) error {
	result := apiclient.Call[struct{}](ctx, b.client, b.itemPath(branchID), apiclient.CallOptions{
		Method: http.MethodDelete,
	})
	if !result.Ok() {
		return result.Err
	}
	return nil
}
