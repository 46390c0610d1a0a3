package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"conecart/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// ErrShopperNotFound separates "no such shopper" from real storage
// failures, which callers must not swallow.
var ErrShopperNotFound = errors.New("shopper not found")

type ShopperRepository interface {
	Create(shopper *domain.Shopper) error
	FindByID(id string) (*domain.Shopper, error)
	FindByEmail(email string) (*domain.Shopper, error)
	EmailExists(email string) (bool, error)
}

type shopperRepository struct {
	client *kivik.Client
	dbName string
}

func NewShopperRepository(client *kivik.Client, dbName string) ShopperRepository {
	return &shopperRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *shopperRepository) Create(shopper *domain.Shopper) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("shopper:%s", shopper.ID)
	if _, err := db.Put(context.Background(), docID, shopper); err != nil {
		return fmt.Errorf("failed to create shopper: %w", err)
	}

	return nil
}

func (r *shopperRepository) FindByID(id string) (*domain.Shopper, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), fmt.Sprintf("shopper:%s", id))

	var shopper domain.Shopper
	if err := row.ScanDoc(&shopper); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrShopperNotFound
		}
		return nil, fmt.Errorf("failed to find shopper: %w", err)
	}

	return &shopper, nil
}

func (r *shopperRepository) FindByEmail(email string) (*domain.Shopper, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"email": email,
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query shopper by email: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrShopperNotFound
	}

	var shopper domain.Shopper
	if err := rows.ScanDoc(&shopper); err != nil {
		return nil, fmt.Errorf("failed to scan shopper: %w", err)
	}

	return &shopper, nil
}

func (r *shopperRepository) EmailExists(email string) (bool, error) {
	_, err := r.FindByEmail(email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrShopperNotFound) {
		return false, nil
	}
	return false, err
}
