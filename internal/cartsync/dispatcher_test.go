package cartsync

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"conecart/internal/domain"
)

// Mutations made while a push is in flight collapse into a single trailing
// push, so the server applies payloads in dispatch order and its final
// state matches what the client shows.
func TestDispatcher_SerializesPushes(t *testing.T) {
	gw := newFakeGateway()
	release := make(chan struct{})
	var calls int32
	var mu sync.Mutex
	var applied []int
	gw.upsertHook = func(req *domain.UpsertCartRequest) (*domain.Cart, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release // first push held at the server
		}
		qty := req.Items[0].Quantity
		mu.Lock()
		applied = append(applied, qty)
		mu.Unlock()
		return &domain.Cart{
			HeaderID: fmt.Sprintf("hdr-q%d", qty),
			Items:    req.Items,
		}, nil
	}

	session := NewSession()
	cart := NewCart(gw, session, time.Second)
	session.Login("u1")
	cart.Wait()

	cart.AddItem(coneItem("p1", 1000, 1)) // dispatches, held by the hook
	cart.UpdateQuantity("p1", 3)          // pending behind the in-flight push
	cart.UpdateQuantity("p1", 5)          // still just pending
	close(release)
	cart.Wait()

	mu.Lock()
	got := append([]int(nil), applied...)
	mu.Unlock()
	if len(got) != 2 || got[0] != 1 || got[1] != 5 {
		t.Fatalf("server should apply [1 5], got %v", got)
	}
	if hdr := cart.HeaderID(); hdr != "hdr-q5" {
		t.Errorf("expected header from the trailing push, got %q", hdr)
	}
	item, _ := cart.Item("p1")
	if item.Quantity != 5 {
		t.Errorf("expected local quantity 5, got %d", item.Quantity)
	}
	if cart.Status() != domain.SyncClean {
		t.Errorf("expected clean status, got %s", cart.Status())
	}
}

// A response resolving after the cart was discarded is stale and must not
// write the server header back into the emptied cart.
func TestDispatcher_StaleResponseIsDiscarded(t *testing.T) {
	gw := newFakeGateway()
	release := make(chan struct{})
	gw.upsertHook = func(req *domain.UpsertCartRequest) (*domain.Cart, error) {
		<-release
		return &domain.Cart{HeaderID: "hdr-late", Items: req.Items}, nil
	}

	session := NewSession()
	cart := NewCart(gw, session, time.Second)
	session.Login("u1")
	cart.Wait()

	cart.AddItem(coneItem("p1", 1000, 1)) // push held at the server
	cart.Clear()                          // supersedes the dispatch
	close(release)
	cart.Wait()

	if got := cart.HeaderID(); got != "" {
		t.Errorf("stale response wrote header %q into a cleared cart", got)
	}
	if cart.Lines() != 0 {
		t.Errorf("cleared cart has %d lines", cart.Lines())
	}
	if cart.Status() != domain.SyncClean {
		t.Errorf("expected clean status, got %s", cart.Status())
	}
}

// Rapid back-to-back mutations: whether the second mutation dispatches its
// own push or rides the trailing one, the accepted state must reflect the
// last dispatched value.
func TestDispatcher_RapidDoubleMutation(t *testing.T) {
	gw := newFakeGateway()
	gw.upsertHook = func(req *domain.UpsertCartRequest) (*domain.Cart, error) {
		return &domain.Cart{
			HeaderID: fmt.Sprintf("hdr-q%d", req.Items[0].Quantity),
			Items:    req.Items,
		}, nil
	}

	session := NewSession()
	cart := NewCart(gw, session, time.Second)
	session.Login("u1")
	cart.Wait()

	cart.AddItem(coneItem("p1", 1000, 1))
	cart.Wait()

	cart.UpdateQuantity("p1", 3)
	cart.UpdateQuantity("p1", 5)
	cart.Wait()

	if got := cart.HeaderID(); got != "hdr-q5" {
		t.Errorf("accepted response should carry qty=5, got %q", got)
	}
	item, _ := cart.Item("p1")
	if item.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", item.Quantity)
	}
	gw.mu.Lock()
	last := gw.upserts[len(gw.upserts)-1]
	gw.mu.Unlock()
	if domain.CartUnits(last.Items) != 5 {
		t.Errorf("last transmitted payload should carry 5 units, got %d", domain.CartUnits(last.Items))
	}
}

// Push failures are logged and swallowed; local state survives and the next
// mutation re-attempts the sync.
func TestDispatcher_FailureKeepsLocalState(t *testing.T) {
	gw := newFakeGateway()
	var fail atomic.Bool
	fail.Store(true)
	gw.upsertHook = func(req *domain.UpsertCartRequest) (*domain.Cart, error) {
		if fail.Load() {
			return nil, &NetworkError{Op: "upsert", Err: fmt.Errorf("connection refused")}
		}
		return &domain.Cart{HeaderID: "hdr-ok", Items: req.Items}, nil
	}

	session := NewSession()
	cart := NewCart(gw, session, time.Second)
	session.Login("u1")
	cart.Wait()

	cart.AddItem(coneItem("p1", 1500, 2))
	cart.Wait()

	if cart.Status() != domain.SyncFailed {
		t.Fatalf("expected failed status, got %s", cart.Status())
	}
	if cart.ItemCount() != 2 {
		t.Error("failure must not roll back local state")
	}

	fail.Store(false)
	cart.UpdateQuantity("p1", 4)
	cart.Wait()

	if cart.Status() != domain.SyncClean {
		t.Errorf("next mutation should re-sync, status %s", cart.Status())
	}
	if cart.HeaderID() != "hdr-ok" {
		t.Errorf("expected header from recovered push, got %q", cart.HeaderID())
	}
}

// Server-assigned line ids come back on the applied response and attach to
// the matching local lines.
func TestDispatcher_AdoptsRemoteLineIDs(t *testing.T) {
	gw := newFakeGateway()
	session := NewSession()
	cart := NewCart(gw, session, time.Second)
	session.Login("u1")
	cart.Wait()

	cart.AddItem(coneItem("p1", 1000, 1))
	cart.Wait()

	item, _ := cart.Item("p1")
	if item.RemoteLineID != "line-p1" {
		t.Errorf("expected server line id, got %q", item.RemoteLineID)
	}
}
