package service

import (
	"testing"

	"conecart/internal/domain"
)

type mockCartRepo struct {
	carts map[string]*domain.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepo) FindByUser(userID string) (*domain.Cart, error) {
	if cart, ok := m.carts[userID]; ok {
		copied := *cart
		copied.Items = append([]domain.CartItem(nil), cart.Items...)
		return &copied, nil
	}
	return nil, nil
}

func (m *mockCartRepo) FindByHeaderID(headerID string) (*domain.Cart, error) {
	for _, cart := range m.carts {
		if cart.HeaderID == headerID {
			copied := *cart
			copied.Items = append([]domain.CartItem(nil), cart.Items...)
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) Save(cart *domain.Cart) error {
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	m.carts[cart.UserID] = &copied
	return nil
}

func (m *mockCartRepo) Delete(headerID string) error {
	for userID, cart := range m.carts {
		if cart.HeaderID == headerID {
			delete(m.carts, userID)
		}
	}
	return nil
}

type mockOrderRepo struct {
	orders []*domain.Order
}

func (m *mockOrderRepo) Create(order *domain.Order) error {
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepo) ListByUser(userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func line(productID string, priceCents int64, qty int) domain.CartItem {
	return domain.CartItem{
		ProductID:  productID,
		Name:       "cone " + productID,
		PriceCents: priceCents,
		Quantity:   qty,
	}
}

func TestCartService_UpsertAssignsHeaderAndLineIDs(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), &mockOrderRepo{}, nil)

	cart, err := svc.Upsert(&domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p1", 1000, 2), line("p2", 500, 1)},
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if cart.HeaderID == "" {
		t.Error("expected a server-assigned header id")
	}
	for _, item := range cart.Items {
		if item.RemoteLineID == "" {
			t.Errorf("line %s missing a line id", item.ProductID)
		}
	}
}

func TestCartService_UpsertIsIdempotent(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), &mockOrderRepo{}, nil)
	req := &domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p1", 1000, 2)},
	}

	first, err := svc.Upsert(req)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second, err := svc.Upsert(&domain.UpsertCartRequest{
		HeaderID: first.HeaderID,
		UserID:   "u1",
		Items:    []domain.CartItem{line("p1", 1000, 2)},
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if first.HeaderID != second.HeaderID {
		t.Errorf("header changed across identical upserts: %q vs %q", first.HeaderID, second.HeaderID)
	}
	if len(second.Items) != 1 || second.Items[0].RemoteLineID != first.Items[0].RemoteLineID {
		t.Error("line ids must be stable across identical upserts")
	}
}

func TestCartService_UpsertReusesHeaderWhenClientHasNone(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), &mockOrderRepo{}, nil)

	first, _ := svc.Upsert(&domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p1", 1000, 1)},
	})

	// a client that lost its header (new session) still lands on the
	// same server cart
	second, err := svc.Upsert(&domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p1", 1000, 3)},
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if second.HeaderID != first.HeaderID {
		t.Errorf("expected header reuse per shopper, got %q vs %q", second.HeaderID, first.HeaderID)
	}
	if second.Items[0].RemoteLineID != first.Items[0].RemoteLineID {
		t.Error("surviving product should keep its line id")
	}
}

func TestCartService_UpsertRejectsInvalidLines(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), &mockOrderRepo{}, nil)

	_, err := svc.Upsert(&domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p1", 1000, 1), line("p1", 1000, 2)},
	})
	if err != ErrDuplicateLine {
		t.Errorf("expected ErrDuplicateLine, got %v", err)
	}

	_, err = svc.Upsert(&domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p2", 1000, 0)},
	})
	if err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestCartService_Checkout(t *testing.T) {
	carts := newMockCartRepo()
	orders := &mockOrderRepo{}
	svc := NewCartService(carts, orders, nil)

	if _, err := svc.Checkout("u1"); err != ErrCartEmpty {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}

	svc.Upsert(&domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p1", 1000, 2), line("p2", 500, 1)},
	})

	order, err := svc.Checkout("u1")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.TotalCents != 2500 {
		t.Errorf("expected order total 2500, got %d", order.TotalCents)
	}

	remaining, _ := svc.Fetch("u1")
	if remaining != nil {
		t.Error("checkout should delete the cart")
	}
	if len(orders.orders) != 1 {
		t.Errorf("expected one order, got %d", len(orders.orders))
	}
}

func TestCartService_Remove(t *testing.T) {
	svc := NewCartService(newMockCartRepo(), &mockOrderRepo{}, nil)

	cart, _ := svc.Upsert(&domain.UpsertCartRequest{
		UserID: "u1",
		Items:  []domain.CartItem{line("p1", 1000, 1)},
	})

	if err := svc.Remove(cart.HeaderID, "intruder"); err != ErrNotCartOwner {
		t.Fatalf("expected ErrNotCartOwner, got %v", err)
	}

	if err := svc.Remove(cart.HeaderID, "u1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := svc.Remove(cart.HeaderID, "u1"); err != nil {
		t.Errorf("removing an unknown header must be a no-op, got %v", err)
	}

	remaining, _ := svc.Fetch("u1")
	if remaining != nil {
		t.Error("cart should be gone after remove")
	}
}
