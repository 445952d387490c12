package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/amul-stock-bot/internal/application/monitor"
	"github.com/jhoicas/amul-stock-bot/internal/application/subscription"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
)

// Ensure TxRunner implements monitor.TxRunner and subscription.TxRunner.
var _ monitor.TxRunner = (*TxRunner)(nil)
var _ subscription.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// La reconciliación y cada comando de usuario abren su propia transacción;
// los SELECT ... FOR UPDATE de los repos serializan los pares en conflicto.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	productRepo := NewProductRepository(tx)
	userRepo := NewUserRepository(tx)
	subRepo := NewSubscriptionRepository(tx)

	if err := fn(productRepo, userRepo, subRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
