package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
)

// Transaction operation names.
const (
	OpReturn   = "return"
	OpRenew    = "renew"
	OpApprove  = "approve"
	OpReturned = "returned"
	OpPending  = "pending"
)

const transactionsResource = "transactions"

// Transactions drives the server-side borrow transitions.
type Transactions struct {
	client *Client
}

// Transactions returns the transaction gateway.
func (c *Client) Transactions() *Transactions {
	return &Transactions{client: c}
}

type transactionRequest struct {
	TransactionID domain.ID    `json:"transactionId"`
	DueDate       *domain.Date `json:"dueDate,omitempty"`
}

// Return marks a slip as returned. The zero Borrow is returned when the
// backend acknowledges without echoing the slip.
func (t *Transactions) Return(ctx context.Context, id domain.ID) (domain.Borrow, error) {
	return t.transition(ctx, OpReturn, "/transactions/return", transactionRequest{TransactionID: id})
}

// Renew moves a slip's due date.
func (t *Transactions) Renew(ctx context.Context, id domain.ID, due domain.Date) (domain.Borrow, error) {
	if due.IsZero() {
		rc := call{op: OpRenew, resource: transactionsResource, id: id.String()}
		return domain.Borrow{}, wrapError(rc, 0, errors.Validation("renew requires a due date"))
	}
	return t.transition(ctx, OpRenew, "/transactions/renew", transactionRequest{TransactionID: id, DueDate: &due})
}

// Approve accepts a pending borrow request.
func (t *Transactions) Approve(ctx context.Context, id domain.ID) (domain.Borrow, error) {
	return t.transition(ctx, OpApprove, "/transactions/approve", transactionRequest{TransactionID: id})
}

// Returned lists slips that have been returned.
func (t *Transactions) Returned(ctx context.Context) ([]domain.Borrow, error) {
	rc := call{op: OpReturned, resource: transactionsResource, method: http.MethodGet, path: "/transactions/returned"}
	return list[domain.Borrow](ctx, t.client, rc)
}

// Pending lists borrow requests waiting for approval.
func (t *Transactions) Pending(ctx context.Context) ([]domain.Borrow, error) {
	rc := call{op: OpPending, resource: transactionsResource, method: http.MethodGet, path: "/transactions/pending"}
	return list[domain.Borrow](ctx, t.client, rc)
}

func (t *Transactions) transition(ctx context.Context, op, path string, req transactionRequest) (domain.Borrow, error) {
	rc := call{
		op:       op,
		resource: transactionsResource,
		id:       req.TransactionID.String(),
		method:   http.MethodPost,
		path:     path,
		body:     req,
	}
	if req.TransactionID.IsZero() {
		return domain.Borrow{}, wrapError(rc, 0, errors.Validation(op+" requires a transaction id"))
	}

	var raw json.RawMessage
	decoded, err := t.client.do(ctx, rc, &raw)
	if err != nil {
		return domain.Borrow{}, err
	}
	if !decoded || len(raw) == 0 || raw[0] != '{' {
		return domain.Borrow{}, nil
	}

	var b domain.Borrow
	if err := json.Unmarshal(raw, &b); err != nil {
		return domain.Borrow{}, wrapError(rc, 0, errors.MalformedResponse("response does not match the record schema").WithCause(err))
	}
	if b.ID.IsZero() {
		return domain.Borrow{}, nil
	}
	if err := t.client.check(rc, b); err != nil {
		return domain.Borrow{}, err
	}
	return b, nil
}
