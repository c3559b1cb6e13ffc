package merchant

import (
	"context"
	"net/http"

	"github.com/cexll/merchantops-go/pkg/apiclient"
	"github.com/cexll/merchantops-go/pkg/query"
)

const pathOperators = "/operators"

// OperatorListMode selects which operator collection a list view shows.
type OperatorListMode int

const (
	// OperatorsAll lists every operator of the merchant.
	OperatorsAll OperatorListMode = iota
	// OperatorsByBranch lists operators of one branch.
	OperatorsByBranch
)

// Operators operates on merchant operator accounts.
type Operators struct {
	client *apiclient.Client
}

// NewOperators binds the service to a client.
func NewOperators(client *apiclient.Client) *Operators {
	return &Operators{client: client}
}

// List builds a paginated operator view. In by-branch mode the branch id
// resolves per fetch; an empty id means no request is issued.
func (o *Operators) List(mode OperatorListMode, branchID func() string, opts query.Options) *query.Engine[Operator] {
	opts.Endpoint = func() string {
		if mode == OperatorsByBranch {
			if branchID == nil {
				return ""
			}
			id := branchID()
			if id == "" {
				return ""
			}
			return pathOperators + "/by-branch/" + id
		}
		return pathOperators
	}
	if opts.Sort == "" {
		opts.Sort = "firstName,ASC"
	}
	return query.New[Operator](o.client, opts)
}

// Get fetches one operator.
func (o *Operators) Get(ctx context.Context, operatorID string) (*Operator, error) {
	result := apiclient.Call[Operator](ctx, o.client, pathOperators+"/"+operatorID, apiclient.CallOptions{})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Create registers a new operator account.
func (o *Operators) Create(ctx context.Context, operator Operator) (*Operator, error) {
	result := apiclient.Call[Operator](ctx, o.client, pathOperators, apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   operator,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Update applies a partial update to an operator.
func (o *Operators) Update(ctx context.Context, operatorID string, fields map[string]any) (*Operator, error) {
	result := apiclient.Call[Operator](ctx, o.client, pathOperators+"/"+operatorID, apiclient.CallOptions{
		Method: http.MethodPatch,
		Body:   fields,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Delete removes an operator account.
func (o *Operators) Delete(ctx context.Context, operatorID string) error {
	result := apiclient.Call[struct{}](ctx, o.client, pathOperators+"/"+operatorID, apiclient.CallOptions{
		Method: http.MethodDelete,
	})
	if !result.Ok() {
		return result.Err
	}
	return nil
}

// Invite sends an operator invitation.
func (o *Operators) Invite(ctx context.Context, operator Operator) (*Operator, error) {
	result := apiclient.Call[Operator](ctx, o.client, pathOperators+"/invite", apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   operator,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// Activate enables an invited operator account.
func (o *Operators) Activate(ctx context.Context, operatorID string) (*Operator, error) {
	result := apiclient.Call[Operator](ctx, o.client, pathOperators+"/"+operatorID+"/activate", apiclient.CallOptions{
		Method: http.MethodPatch,
	})
	if !result.Ok() {
		return nil, result.Err
	}
	return result.Data, nil
}

// ResetPassword issues a password reset for an operator.
func (o *Operators) ResetPassword(ctx context.Context, operatorID string, payload map[string]any) error {
	result := apiclient.Call[struct{}](ctx, o.client, pathOperators+"/"+operatorID+"/reset-password", apiclient.CallOptions{
		Method: http.MethodPost,
		Body:   payload,
	})
	if !result.Ok() {
		return result.Err
	}
	return nil
}

// Roles lists the assignable operator roles.
func (o *Operators) Roles(ctx context.Context) ([]OperatorRole, error) {
	result := apiclient.Call[[]OperatorRole](ctx, o.client, pathOperators+"/roles", apiclient.CallOptions{})
	if !result.Ok() {
		return nil, result.Err
	}
	if result.Data == nil {
		return nil, nil
	}
	return *result.Data, nil
}
