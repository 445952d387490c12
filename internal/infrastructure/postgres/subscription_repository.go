package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/amul-stock-bot/internal/domain"
	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

const subscriptionColumns = `id, user_id, product_id, subscribed_at, last_notified_at, notified, last_stock_status`

// SubscriptionRepo implementación del puerto SubscriptionRepository sobre PostgreSQL (usable con pool o tx).
type SubscriptionRepo struct {
	q Querier
}

// NewSubscriptionRepository construye el adaptador de suscripciones. Pasar pool o tx (Querier).
func NewSubscriptionRepository(q Querier) *SubscriptionRepo {
	return &SubscriptionRepo{q: q}
}

// Create persiste una nueva suscripción. El constraint único (user_id, product_id)
// respalda la invariante de a lo sumo una fila por par.
func (r *SubscriptionRepo) Create(sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, user_id, product_id, subscribed_at, last_notified_at, notified, last_stock_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		sub.ID, sub.UserID, sub.ProductID, sub.SubscribedAt,
		sub.LastNotifiedAt, sub.Notified, sub.LastStockStatus,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// GetByUserAndProductForUpdate obtiene la suscripción del par bloqueando la fila. Solo dentro de una tx.
func (r *SubscriptionRepo) GetByUserAndProductForUpdate(userID, productID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 AND product_id = $2 FOR UPDATE`
	var s entity.Subscription
	err := r.q.QueryRow(context.Background(), query, userID, productID).Scan(
		&s.ID, &s.UserID, &s.ProductID, &s.SubscribedAt, &s.LastNotifiedAt, &s.Notified, &s.LastStockStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}

// ListByProductForUpdate bloquea y devuelve las suscripciones del producto.
// Lo usa la reconciliación para que los toggles concurrentes serialicen.
func (r *SubscriptionRepo) ListByProductForUpdate(productID string) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE product_id = $1 FOR UPDATE`
	return r.list(query, productID)
}

// ListByUser devuelve las suscripciones del usuario.
func (r *SubscriptionRepo) ListByUser(userID string) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY subscribed_at`
	return r.list(query, userID)
}

func (r *SubscriptionRepo) list(query, arg string) ([]*entity.Subscription, error) {
	rows, err := r.q.Query(context.Background(), query, arg)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Subscription
	for rows.Next() {
		var s entity.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProductID, &s.SubscribedAt, &s.LastNotifiedAt, &s.Notified, &s.LastStockStatus); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// Update persiste las marcas de notificación y la línea base de stock.
func (r *SubscriptionRepo) Update(sub *entity.Subscription) error {
	query := `
		UPDATE subscriptions SET last_notified_at = $2, notified = $3, last_stock_status = $4
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		sub.ID, sub.LastNotifiedAt, sub.Notified, sub.LastStockStatus,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// Delete elimina la suscripción (baja real, sin soft-delete).
func (r *SubscriptionRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
