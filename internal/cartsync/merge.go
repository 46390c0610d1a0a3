package cartsync

import (
	"context"
	"log"

	"conecart/internal/domain"
)

// runMerge reconciles the local cart with the shopper's server cart right
// after login. It is a one-time barrier: mutation-driven pushes dispatched
// during the merge are held back until it completes, and the merge's own
// upsert is sequence 0, the baseline later sequence numbers build on.
//
// Policy: a product present on both sides keeps the larger quantity and the
// local price snapshot; products present on one side only are kept as-is.
// An empty local cart adopts the server cart verbatim, without a push. A
// Clear issued while the merge is running wins over both sides: nothing is
// adopted and the server cart is removed instead.
func (c *Cart) runMerge(userID string) {
	fetchCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
	remote, err := c.gateway.Fetch(fetchCtx, userID)
	cancel()
	if err != nil {
		log.Printf("cart merge: fetch for %s failed: %v", userID, err)
		c.mu.Lock()
		c.wiped = false
		c.status = domain.SyncFailed
		c.finishMergeLocked()
		c.mu.Unlock()
		return
	}

	c.mu.Lock()

	if c.wiped {
		c.wiped = false
		c.mu.Unlock()
		var headerID string
		if remote != nil {
			headerID = remote.HeaderID
		}
		c.discardServerCart(headerID)
		c.mu.Lock()
		c.finishMergeLocked()
		c.mu.Unlock()
		return
	}

	if len(c.items) == 0 {
		if remote != nil {
			c.headerID = remote.HeaderID
			c.items = make(map[string]domain.CartItem, len(remote.Items))
			for _, item := range remote.Items {
				c.items[item.ProductID] = item
			}
			c.status = domain.SyncClean
		}
		c.finishMergeLocked()
		c.mu.Unlock()
		return
	}

	if remote != nil {
		c.items = mergeItems(c.items, remote.Items)
		c.headerID = remote.HeaderID
	}

	req := &domain.UpsertCartRequest{
		HeaderID: c.headerID,
		UserID:   userID,
		Items:    c.snapshotLocked(),
	}
	c.status = domain.SyncSyncing
	c.mu.Unlock()

	upsertCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
	merged, err := c.gateway.Upsert(upsertCtx, req)
	cancel()

	c.mu.Lock()

	if c.wiped {
		// Cleared while the upsert was in flight; drop the server cart
		// the upsert just wrote.
		c.wiped = false
		headerID := req.HeaderID
		if merged != nil {
			headerID = merged.HeaderID
		}
		c.mu.Unlock()
		c.discardServerCart(headerID)
		c.mu.Lock()
		c.finishMergeLocked()
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.status = domain.SyncFailed
		log.Printf("cart merge: upsert for %s failed, keeping local state: %v", userID, err)
	} else {
		c.headerID = merged.HeaderID
		c.adoptLineIDsLocked(merged.Items)
		c.status = domain.SyncClean
	}
	c.finishMergeLocked()
	c.mu.Unlock()
}

// discardServerCart removes the shopper's server cart after a clear raced
// the merge. Failures are logged; whatever is left surfaces on next login.
func (c *Cart) discardServerCart(headerID string) {
	if headerID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.gateway.Remove(ctx, headerID); err != nil {
		log.Printf("cart merge: remove of cleared server cart %s failed: %v", headerID, err)
	}
}

// finishMergeLocked lifts the barrier and dispatches the trailing push if a
// mutation arrived while the merge was running.
func (c *Cart) finishMergeLocked() {
	c.merging = false
	c.inflight--
	if c.deferred {
		c.deferred = false
		if c.identity.IsAuthenticated {
			c.dispatchLocked()
		}
	}
	c.cond.Broadcast()
}

// mergeItems unions local and remote lines, taking the larger quantity for
// products present on both sides.
func mergeItems(local map[string]domain.CartItem, remote []domain.CartItem) map[string]domain.CartItem {
	merged := make(map[string]domain.CartItem, len(local)+len(remote))
	for id, item := range local {
		merged[id] = item
	}
	for _, r := range remote {
		l, ok := merged[r.ProductID]
		if !ok {
			merged[r.ProductID] = r
			continue
		}
		if r.Quantity > l.Quantity {
			l.Quantity = r.Quantity
		}
		l.RemoteLineID = r.RemoteLineID
		merged[r.ProductID] = l
	}
	return merged
}
