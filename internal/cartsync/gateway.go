package cartsync

import (
	"context"
	"errors"
	"fmt"

	"conecart/internal/domain"
)

// Gateway is the remote cart service as seen by the engine. Implementations
// must return typed errors: *NetworkError for transport problems and
// *RejectionError when the service answers isSuccess=false. A nil cart from
// Fetch means the shopper has no server cart yet.
type Gateway interface {
	Fetch(ctx context.Context, userID string) (*domain.Cart, error)
	Upsert(ctx context.Context, req *domain.UpsertCartRequest) (*domain.Cart, error)
	Remove(ctx context.Context, headerID string) error
	Checkout(ctx context.Context, userID string) error
}

// ErrNotAuthenticated is returned by Checkout when no shopper is logged in.
var ErrNotAuthenticated = errors.New("cart: not authenticated")

// NetworkError wraps a transport-level failure (unreachable service,
// timeout, malformed response). Local state is kept; the next mutation
// re-attempts synchronization.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cart gateway %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RejectionError is a well-formed refusal from the cart service.
type RejectionError struct {
	Op      string
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("cart gateway %s rejected: %s", e.Op, e.Message)
}
