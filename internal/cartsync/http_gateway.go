package cartsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"conecart/internal/domain"
)

// HTTPGateway talks to the cart service over its JSON contract:
//
//	GET  /cart/{userId}
//	POST /cart/upsert
//	POST /cart/remove
//	POST /cart/checkout/{userId}
//
// Every call carries a bounded timeout through both the request context and
// the underlying client, so a push can expire but never hang.
type HTTPGateway struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used on subsequent calls. The session
// layer calls this after login and with an empty string after logout.
func (g *HTTPGateway) SetToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

func (g *HTTPGateway) Fetch(ctx context.Context, userID string) (*domain.Cart, error) {
	var out domain.FetchCartResponse
	if err := g.do(ctx, http.MethodGet, "/cart/"+userID, nil, &out); err != nil {
		return nil, &NetworkError{Op: "fetch", Err: err}
	}
	if !out.IsSuccess {
		return nil, &RejectionError{Op: "fetch", Message: out.Message}
	}
	return out.Cart, nil
}

func (g *HTTPGateway) Upsert(ctx context.Context, req *domain.UpsertCartRequest) (*domain.Cart, error) {
	var out domain.UpsertCartResponse
	if err := g.do(ctx, http.MethodPost, "/cart/upsert", req, &out); err != nil {
		return nil, &NetworkError{Op: "upsert", Err: err}
	}
	if !out.IsSuccess {
		return nil, &RejectionError{Op: "upsert", Message: out.Message}
	}
	return &domain.Cart{HeaderID: out.HeaderID, UserID: req.UserID, Items: out.Items}, nil
}

func (g *HTTPGateway) Remove(ctx context.Context, headerID string) error {
	var out domain.StatusResponse
	req := &domain.RemoveCartRequest{HeaderID: headerID}
	if err := g.do(ctx, http.MethodPost, "/cart/remove", req, &out); err != nil {
		return &NetworkError{Op: "remove", Err: err}
	}
	if !out.IsSuccess {
		return &RejectionError{Op: "remove", Message: out.Message}
	}
	return nil
}

func (g *HTTPGateway) Checkout(ctx context.Context, userID string) error {
	var out domain.StatusResponse
	if err := g.do(ctx, http.MethodPost, "/cart/checkout/"+userID, nil, &out); err != nil {
		return &NetworkError{Op: "checkout", Err: err}
	}
	if !out.IsSuccess {
		return &RejectionError{Op: "checkout", Message: out.Message}
	}
	return nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	g.mu.RLock()
	token := g.token
	g.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("cart service status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
