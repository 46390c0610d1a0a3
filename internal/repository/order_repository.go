package repository

import (
	"context"
	"fmt"

	"conecart/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type OrderRepository interface {
	Create(order *domain.Order) error
	ListByUser(userID string) ([]*domain.Order, error)
}

type orderRepository struct {
	client *kivik.Client
	dbName string
}

func NewOrderRepository(client *kivik.Client, dbName string) OrderRepository {
	return &orderRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *orderRepository) Create(order *domain.Order) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("order:%s", order.ID)
	if _, err := db.Put(context.Background(), docID, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) ListByUser(userID string) ([]*domain.Order, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"userId":   userID,
			"placedAt": map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.ScanDoc(&order); err != nil {
			continue
		}
		orders = append(orders, &order)
	}

	return orders, nil
}
