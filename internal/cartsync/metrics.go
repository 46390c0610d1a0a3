package cartsync

import "conecart/internal/domain"

// Total is the cart value in cents, computed from the price snapshots
// stored on each line, never by re-querying the catalog.
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartTotal(c.snapshotLocked())
}

// ItemCount is the total number of units across all lines, the value badge
// displays want.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartUnits(c.snapshotLocked())
}

// Lines is the number of distinct products in the cart.
func (c *Cart) Lines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
