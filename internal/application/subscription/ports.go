package subscription

import (
	"context"

	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Cada comando de usuario corre en su propia
// transacción y serializa con la reconciliación a nivel de filas.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
		subRepo repository.SubscriptionRepository,
	) error) error
}
