package cartsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"conecart/internal/domain"
)

func TestHTTPGateway_FetchEmptyCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/cart/u1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.FetchCartResponse{IsSuccess: true})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, time.Second)
	cart, err := gw.Fetch(context.Background(), "u1")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if cart != nil {
		t.Errorf("expected no cart, got %+v", cart)
	}
}

func TestHTTPGateway_UpsertRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cart/upsert" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("missing bearer token, got %q", got)
		}
		var req domain.UpsertCartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		items := req.Items
		for i := range items {
			items[i].RemoteLineID = "line-" + items[i].ProductID
		}
		json.NewEncoder(w).Encode(domain.UpsertCartResponse{
			IsSuccess: true,
			HeaderID:  "hdr-42",
			Items:     items,
		})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, time.Second)
	gw.SetToken("tok-1")

	cart, err := gw.Upsert(context.Background(), &domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{coneItem("p1", 1000, 2)},
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if cart.HeaderID != "hdr-42" {
		t.Errorf("expected hdr-42, got %q", cart.HeaderID)
	}
	if len(cart.Items) != 1 || cart.Items[0].RemoteLineID != "line-p1" {
		t.Errorf("line ids not round-tripped: %+v", cart.Items)
	}
}

func TestHTTPGateway_ServerRejectionIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(domain.UpsertCartResponse{
			IsSuccess: false,
			Message:   "duplicate product line",
		})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, time.Second)
	_, err := gw.Upsert(context.Background(), &domain.UpsertCartRequest{UserID: "u1"})

	rej, ok := err.(*RejectionError)
	if !ok {
		t.Fatalf("expected *RejectionError, got %T: %v", err, err)
	}
	if rej.Message != "duplicate product line" {
		t.Errorf("message lost: %q", rej.Message)
	}
}

func TestHTTPGateway_TransportFailureIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	gw := NewHTTPGateway(srv.URL, time.Second)
	err := gw.Checkout(context.Background(), "u1")

	if _, ok := err.(*NetworkError); !ok {
		t.Fatalf("expected *NetworkError, got %T: %v", err, err)
	}
}

func TestHTTPGateway_TimeoutIsBounded(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	gw := NewHTTPGateway(srv.URL, 50*time.Millisecond)

	start := time.Now()
	err := gw.Remove(context.Background(), "hdr-1")
	if _, ok := err.(*NetworkError); !ok {
		t.Fatalf("expected *NetworkError on timeout, got %T", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout not bounded")
	}
}
