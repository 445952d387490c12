package monitor

import (
	"context"

	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
)

// CatalogProduct registro crudo de un producto tal como lo devuelve la
// tienda upstream en un chequeo.
type CatalogProduct struct {
	ID        string
	Name      string
	Price     int64
	SKU       string
	Alias     string
	Available bool
	ImageURL  string
}

// CatalogSource define el puerto de entrada del catálogo upstream.
// Falla suave: ante cualquier error irrecuperable devuelve un slice vacío
// (el llamador lo trata como "reintentar en el próximo ciclo").
type CatalogSource interface {
	FetchProducts(ctx context.Context) []CatalogProduct
}

// Notification es la intención de notificar un restock a un usuario,
// producida por la reconciliación y aún no entregada. Product es una
// copia con el estado recién observado (precio incluido).
type Notification struct {
	UserID  string
	Product entity.Product
}

// Notifier define el puerto de salida hacia la plataforma de mensajería.
// La entrega es best-effort: un fallo por destinatario no afecta al resto.
type Notifier interface {
	NotifyRestock(ctx context.Context, userID string, product entity.Product) error
	// AnnounceRestock difunde el restock al canal configurado, una sola
	// vez por producto. Sin canal configurado es un no-op.
	AnnounceRestock(ctx context.Context, product entity.Product) error
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad de la reconciliación.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
		subRepo repository.SubscriptionRepository,
	) error) error
}
