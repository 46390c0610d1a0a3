package service

import (
	"fmt"
	"log"
	"time"

	"conecart/internal/domain"
	"conecart/internal/repository"
	"conecart/internal/websocket"

	"github.com/google/uuid"
)

type CartService struct {
	carts  repository.CartRepository
	orders repository.OrderRepository
	ws     *websocket.Manager
}

func NewCartService(carts repository.CartRepository, orders repository.OrderRepository, ws *websocket.Manager) *CartService {
	return &CartService{
		carts:  carts,
		orders: orders,
		ws:     ws,
	}
}

// Fetch returns the shopper's persisted cart, or nil when none exists.
func (s *CartService) Fetch(userID string) (*domain.Cart, error) {
	return s.carts.FindByUser(userID)
}

// Upsert replaces the shopper's cart with the pushed line set. It is
// idempotent: the header id is assigned on the first upsert for a shopper
// and reused afterwards, and line ids survive for products that stay in the
// cart, so identical payloads produce identical results.
func (s *CartService) Upsert(req *domain.UpsertCartRequest) (*domain.Cart, error) {
	items, err := normalizeLines(req.Items)
	if err != nil {
		return nil, err
	}

	existing, err := s.carts.FindByUser(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	now := time.Now()
	var cart *domain.Cart
	if existing != nil {
		if req.HeaderID != "" && req.HeaderID != existing.HeaderID {
			// stale client header; the server copy wins, the client
			// adopts it from the response
			log.Printf("cart upsert for %s carried header %s, server has %s", req.UserID, req.HeaderID, existing.HeaderID)
		}
		carryLineIDs(items, existing.Items)
		cart = existing
		cart.Items = items
		cart.UpdatedAt = now
	} else {
		cart = &domain.Cart{
			HeaderID:  uuid.New().String(),
			UserID:    req.UserID,
			Items:     items,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	for i := range cart.Items {
		if cart.Items[i].RemoteLineID == "" {
			cart.Items[i].RemoteLineID = uuid.New().String()
		}
	}

	if err := s.carts.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.notifyCartUpdated(cart)
	return cart, nil
}

// Remove drops a persisted cart by header id. Removing an unknown header is
// a no-op, matching the idempotent contract.
func (s *CartService) Remove(headerID, userID string) error {
	cart, err := s.carts.FindByHeaderID(headerID)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return nil
	}
	if cart.UserID != userID {
		return ErrNotCartOwner
	}

	if err := s.carts.Delete(headerID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	s.notifyCartCleared(cart)
	return nil
}

// Checkout snapshots the cart into an order and deletes the cart.
func (s *CartService) Checkout(userID string) (*domain.Order, error) {
	cart, err := s.carts.FindByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	order := &domain.Order{
		ID:         uuid.New().String(),
		UserID:     userID,
		HeaderID:   cart.HeaderID,
		Items:      cart.Items,
		TotalCents: domain.CartTotal(cart.Items),
		PlacedAt:   time.Now(),
	}

	if err := s.orders.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.carts.Delete(cart.HeaderID); err != nil {
		// the order is placed; a stranded cart doc is the lesser problem
		log.Printf("failed to delete cart %s after checkout: %v", cart.HeaderID, err)
	}

	s.notifyCheckout(order)
	return order, nil
}

func (s *CartService) Orders(userID string) ([]*domain.Order, error) {
	return s.orders.ListByUser(userID)
}

// normalizeLines enforces the cart invariants at the boundary: one line per
// product, every quantity at least 1.
func normalizeLines(items []domain.CartItem) ([]domain.CartItem, error) {
	out := make([]domain.CartItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.ProductID == "" || seen[item.ProductID] {
			return nil, ErrDuplicateLine
		}
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		seen[item.ProductID] = true
		out = append(out, item)
	}
	return out, nil
}

// carryLineIDs keeps server-assigned line ids stable for products that are
// still in the cart.
func carryLineIDs(items []domain.CartItem, existing []domain.CartItem) {
	byProduct := make(map[string]string, len(existing))
	for _, item := range existing {
		byProduct[item.ProductID] = item.RemoteLineID
	}
	for i := range items {
		if lineID, ok := byProduct[items[i].ProductID]; ok {
			items[i].RemoteLineID = lineID
		}
	}
}

func (s *CartService) notifyCartUpdated(cart *domain.Cart) {
	if s.ws == nil {
		return
	}
	msg, err := websocket.NewMessage(websocket.TypeCartUpdated, &websocket.CartUpdatedPayload{
		HeaderID:   cart.HeaderID,
		Lines:      len(cart.Items),
		Units:      domain.CartUnits(cart.Items),
		TotalCents: domain.CartTotal(cart.Items),
	})
	if err != nil {
		return
	}
	s.ws.BroadcastToUser(cart.UserID, msg)
}

func (s *CartService) notifyCartCleared(cart *domain.Cart) {
	if s.ws == nil {
		return
	}
	msg, err := websocket.NewMessage(websocket.TypeCartCleared, &websocket.CartClearedPayload{
		HeaderID: cart.HeaderID,
	})
	if err != nil {
		return
	}
	s.ws.BroadcastToUser(cart.UserID, msg)
}

func (s *CartService) notifyCheckout(order *domain.Order) {
	if s.ws == nil {
		return
	}
	msg, err := websocket.NewMessage(websocket.TypeCheckoutCompleted, &websocket.CheckoutCompletedPayload{
		OrderID:    order.ID,
		TotalCents: order.TotalCents,
	})
	if err != nil {
		return
	}
	s.ws.BroadcastToUser(order.UserID, msg)
}
