package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"conecart/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type CartRepository interface {
	FindByUser(userID string) (*domain.Cart, error)
	FindByHeaderID(headerID string) (*domain.Cart, error)
	Save(cart *domain.Cart) error
	Delete(headerID string) error
}

type cartRepository struct {
	client *kivik.Client
	dbName string
}

func NewCartRepository(client *kivik.Client, dbName string) CartRepository {
	return &cartRepository{
		client: client,
		dbName: dbName,
	}
}

// One cart per shopper; the doc id is derived from the user id so upserts
// are natural read-modify-write cycles on a single document.
func cartDocID(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func (r *cartRepository) FindByUser(userID string) (*domain.Cart, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), cartDocID(userID))

	var cart domain.Cart
	if err := row.ScanDoc(&cart); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	return &cart, nil
}

func (r *cartRepository) FindByHeaderID(headerID string) (*domain.Cart, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"headerId":  headerID,
			"createdAt": map[string]interface{}{"$exists": true},
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query cart by header: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	var cart domain.Cart
	if err := rows.ScanDoc(&cart); err != nil {
		return nil, fmt.Errorf("failed to scan cart: %w", err)
	}

	return &cart, nil
}

func (r *cartRepository) Save(cart *domain.Cart) error {
	db := r.client.DB(r.dbName)
	docID := cartDocID(cart.UserID)

	var existing map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existing); err != nil {
		// no doc yet, create it
		if _, err := db.Put(context.Background(), docID, cart); err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		return nil
	}

	existing["headerId"] = cart.HeaderID
	existing["userId"] = cart.UserID
	existing["items"] = cart.Items
	existing["updatedAt"] = time.Now()

	if _, err := db.Put(context.Background(), docID, existing); err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}

	return nil
}

func (r *cartRepository) Delete(headerID string) error {
	cart, err := r.FindByHeaderID(headerID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}

	db := r.client.DB(r.dbName)
	docID := cartDocID(cart.UserID)

	var existing map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existing); err != nil {
		return fmt.Errorf("failed to fetch cart for delete: %w", err)
	}

	rev, _ := existing["_rev"].(string)
	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return nil
}
