package cartsync

import (
	"context"
	"log"

	"conecart/internal/domain"
)

// The dispatcher mirrors the cart to the gateway with at most one upsert in
// flight. A mutation while a push is outstanding only marks the cart
// pending; when the outstanding push resolves, a single trailing push
// carries whatever the latest state is by then. Serialization keeps the
// server applying payloads in dispatch order; bursts of mutations collapse
// into one trailing push instead of queueing.
//
// Every push is still tagged with a sequence number taken at dispatch time,
// and a response is applied only while its sequence is the latest
// dispatched. Clear and logout bump the sequence, so a response resolving
// after them lands stale and cannot revive a discarded cart.

func (c *Cart) dispatchLocked() {
	c.seq++
	seq := c.seq
	req := &domain.UpsertCartRequest{
		HeaderID: c.headerID,
		UserID:   c.identity.UserID,
		Items:    c.snapshotLocked(),
	}
	c.status = domain.SyncSyncing
	c.pushing = true
	c.inflight++
	go c.push(seq, req)
}

func (c *Cart) push(seq uint64, req *domain.UpsertCartRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	remote, err := c.gateway.Upsert(ctx, req)
	c.applyPush(seq, remote, err)
}

func (c *Cart) applyPush(seq uint64, remote *domain.Cart, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pushing = false

	switch {
	case seq != c.seq:
		// Cart was discarded while the push was in flight; the response
		// no longer describes anything current.
		log.Printf("cart sync: discarding stale response (seq %d, latest %d)", seq, c.seq)

	case err != nil:
		// Local state stays authoritative. No retry loop: the trailing
		// push or the next mutation pushes the full cart again anyway.
		c.status = domain.SyncFailed
		log.Printf("cart sync: push %d failed, keeping local state: %v", seq, err)

	default:
		c.headerID = remote.HeaderID
		c.adoptLineIDsLocked(remote.Items)
		c.status = domain.SyncClean
	}

	if c.pending && c.identity.IsAuthenticated && !c.merging {
		c.pending = false
		c.dispatchLocked()
	}

	c.inflight--
	c.cond.Broadcast()
}

// adoptLineIDsLocked copies server-assigned line ids onto matching local
// lines. Nothing else from the response touches local state.
func (c *Cart) adoptLineIDsLocked(remote []domain.CartItem) {
	for _, r := range remote {
		if local, ok := c.items[r.ProductID]; ok {
			local.RemoteLineID = r.RemoteLineID
			c.items[r.ProductID] = local
		}
	}
}

func (c *Cart) removeRemote(headerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.gateway.Remove(ctx, headerID); err != nil {
		log.Printf("cart sync: remove of server cart %s failed: %v", headerID, err)
	}

	c.mu.Lock()
	c.inflight--
	c.cond.Broadcast()
	c.mu.Unlock()
}
