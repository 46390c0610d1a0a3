package cartsync

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"conecart/internal/domain"
)

const defaultGatewayTimeout = 10 * time.Second

// Cart is the session-scoped cart engine. It owns the local line items,
// which are always the value presented to the UI; the remote mirror is
// updated in the background and never rolls local state back.
//
// All mutation methods are synchronous and fire-and-forget: while a shopper
// is authenticated mutations are mirrored to the gateway with at most one
// push in flight, guarded by a dispatch sequence number (see dispatcher.go).
type Cart struct {
	mu      sync.Mutex
	cond    *sync.Cond
	gateway Gateway
	session *Session
	timeout time.Duration

	items    map[string]domain.CartItem
	headerID string
	status   domain.SyncStatus
	identity domain.Identity

	seq      uint64 // latest dispatched push sequence
	inflight int    // outstanding gateway calls, merge included
	pushing  bool   // an upsert is in flight
	pending  bool   // mutation arrived while a push was in flight
	merging  bool
	deferred bool // mutation arrived while the merge barrier was up
	wiped    bool // cart was cleared while the merge barrier was up
}

func NewCart(gateway Gateway, session *Session, timeout time.Duration) *Cart {
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	c := &Cart{
		gateway:  gateway,
		session:  session,
		timeout:  timeout,
		items:    make(map[string]domain.CartItem),
		status:   domain.SyncClean,
		identity: session.Identity(),
	}
	c.cond = sync.NewCond(&c.mu)
	session.Subscribe(c.onIdentityChange)
	return c
}

// AddItem inserts a new line or bumps the quantity of an existing one. The
// price snapshot of the first add wins; later adds of the same product only
// raise the quantity.
func (c *Cart) AddItem(item domain.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[item.ProductID]; ok {
		existing.Quantity += item.Quantity
		c.items[item.ProductID] = existing
	} else {
		item.RemoteLineID = ""
		c.items[item.ProductID] = item
	}
	c.afterMutationLocked()
}

// RemoveItem deletes a line; removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[productID]; !ok {
		return
	}
	delete(c.items, productID)
	c.afterMutationLocked()
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line, keeping the at-least-one invariant.
func (c *Cart) UpdateQuantity(productID string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[productID]
	if !ok {
		return
	}
	if qty <= 0 {
		delete(c.items, productID)
	} else {
		item.Quantity = qty
		c.items[productID] = item
	}
	c.afterMutationLocked()
}

// Clear empties the cart and forgets the server cart header. While
// authenticated it also asks the service to drop the persisted cart, so a
// later login does not resurrect cleared lines. A clear during the login
// merge is remembered: the merge must not adopt the server cart afterwards
// (see merge.go).
func (c *Cart) Clear() {
	c.mu.Lock()
	headerID := c.headerID
	authenticated := c.identity.IsAuthenticated
	merging := c.merging
	c.clearLocalLocked()
	if merging {
		c.wiped = true
	}
	c.mu.Unlock()

	if authenticated && !merging && headerID != "" {
		c.mu.Lock()
		c.inflight++
		c.mu.Unlock()
		go c.removeRemote(headerID)
	}
}

// Checkout flushes pending syncs, places the order remotely and, on
// success, empties the local cart. This is the only engine operation whose
// failure is surfaced to the caller.
func (c *Cart) Checkout(ctx context.Context) error {
	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()

	if !identity.IsAuthenticated {
		return ErrNotAuthenticated
	}

	c.Wait()

	if err := c.gateway.Checkout(ctx, identity.UserID); err != nil {
		log.Printf("cart checkout failed for %s: %v", identity.UserID, err)
		return err
	}

	c.mu.Lock()
	c.clearLocalLocked()
	c.mu.Unlock()
	return nil
}

// Items returns a snapshot of the current lines, ordered by product id.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Item looks up a single line.
func (c *Cart) Item(productID string) (domain.CartItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[productID]
	return item, ok
}

func (c *Cart) Status() domain.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Cart) HeaderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headerID
}

// Wait blocks until no gateway call is outstanding and no merge is in
// progress. Gateway calls carry bounded timeouts, so Wait always returns.
func (c *Cart) Wait() {
	c.mu.Lock()
	for c.inflight > 0 || c.merging {
		c.cond.Wait()
	}
	c.mu.Unlock()
}

// afterMutationLocked runs after every local state change. Anonymous
// sessions stay local-only; during a merge the push is deferred until the
// barrier lifts; while a push is in flight the cart is only marked pending
// and one trailing push follows when the in-flight one resolves.
func (c *Cart) afterMutationLocked() {
	c.status = domain.SyncDirty
	if !c.identity.IsAuthenticated {
		return
	}
	if c.merging {
		c.deferred = true
		return
	}
	if c.pushing {
		c.pending = true
		return
	}
	c.dispatchLocked()
}

func (c *Cart) clearLocalLocked() {
	// Bump the sequence so responses of in-flight pushes land stale and
	// cannot write a header back into the emptied cart.
	c.seq++
	c.pending = false
	c.items = make(map[string]domain.CartItem)
	c.headerID = ""
	c.status = domain.SyncClean
}

func (c *Cart) snapshotLocked() []domain.CartItem {
	items := make([]domain.CartItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}

func (c *Cart) onIdentityChange(from, to domain.Identity) {
	if !from.IsAuthenticated && to.IsAuthenticated {
		c.mu.Lock()
		c.identity = to
		c.merging = true
		c.wiped = false
		c.seq = 0
		c.inflight++
		c.mu.Unlock()
		go c.runMerge(to.UserID)
		return
	}

	if from.IsAuthenticated && !to.IsAuthenticated {
		// Lines are intentionally kept on logout; only the server cart
		// handle is dropped, since gateway calls need a user id. The
		// sequence bump strands any in-flight push so its response cannot
		// write the header back into the anonymous cart.
		c.mu.Lock()
		c.identity = to
		c.headerID = ""
		c.seq++
		c.pending = false
		if len(c.items) > 0 {
			c.status = domain.SyncDirty
		}
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.identity = to
	c.mu.Unlock()
}
