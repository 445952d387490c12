package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/amul-stock-bot/internal/domain"
	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// UseCase gobierna el par (usuario, producto): máquina de dos estados
// {sin suscripción, suscrito} con un único evento toggle. Aplicarlo dos
// veces vuelve al estado original sin dejar residuo. También expone las
// lecturas que necesitan los comandos del bot.
type UseCase struct {
	tx          TxRunner
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	subRepo     repository.SubscriptionRepository
	log         *logger.Logger
	now         func() time.Time
}

// NewUseCase construye el caso de uso. Los repos sueltos (atados al pool)
// sirven las lecturas; las mutaciones pasan por el TxRunner.
func NewUseCase(
	tx TxRunner,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		tx:          tx,
		productRepo: productRepo,
		userRepo:    userRepo,
		subRepo:     subRepo,
		log:         log,
		now:         time.Now,
	}
}

// ToggleResult estado resultante del toggle, para presentación.
type ToggleResult struct {
	Subscribed bool
	Product    *entity.Product
}

// Toggle alterna la suscripción del par (usuario, producto) en una sola
// transacción. Alta: captura la disponibilidad vigente del producto como
// línea base y marca notified con ese mismo valor (si ya está en stock el
// usuario se considera informado). Baja: borra la fila, sin soft-delete.
func (uc *UseCase) Toggle(ctx context.Context, userID, productID string) (*ToggleResult, error) {
	var result ToggleResult

	err := uc.tx.Run(ctx, func(
		productRepo repository.ProductRepository,
		userRepo repository.UserRepository,
		subRepo repository.SubscriptionRepository,
	) error {
		if err := ensureUser(userRepo, userID, uc.now()); err != nil {
			return err
		}

		// FOR UPDATE: la disponibilidad leída como línea base no puede
		// quedar a medias frente a una reconciliación concurrente.
		product, err := productRepo.GetByIDForUpdate(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		result.Product = product

		existing, err := subRepo.GetByUserAndProductForUpdate(userID, productID)
		if err != nil {
			return err
		}

		if existing != nil {
			result.Subscribed = false
			return subRepo.Delete(existing.ID)
		}

		result.Subscribed = true
		return subRepo.Create(&entity.Subscription{
			ID:              uuid.New().String(),
			UserID:          userID,
			ProductID:       productID,
			SubscribedAt:    uc.now(),
			Notified:        product.Available,
			LastStockStatus: product.Available,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Subscribed {
		uc.log.Info().Str("usuario", userID).Str("producto", productID).Msg("usuario suscrito")
	} else {
		uc.log.Info().Str("usuario", userID).Str("producto", productID).Msg("usuario desuscrito")
	}
	return &result, nil
}

// EnsureUser registra al usuario si es su primera interacción (/start).
func (uc *UseCase) EnsureUser(ctx context.Context, userID string) error {
	return uc.tx.Run(ctx, func(
		_ repository.ProductRepository,
		userRepo repository.UserRepository,
		_ repository.SubscriptionRepository,
	) error {
		return ensureUser(userRepo, userID, uc.now())
	})
}

func ensureUser(userRepo repository.UserRepository, userID string, now time.Time) error {
	user, err := userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user != nil {
		return nil
	}
	return userRepo.Create(&entity.User{ID: userID, FirstSeen: now})
}

// Products lista el catálogo persistido ordenado por nombre.
func (uc *UseCase) Products(ctx context.Context) ([]*entity.Product, error) {
	_ = ctx
	return uc.productRepo.ListOrderedByName()
}

// View una suscripción junto con su producto, para presentación.
type View struct {
	Subscription *entity.Subscription
	Product      *entity.Product
}

// MySubscriptions devuelve las suscripciones del usuario con sus productos.
func (uc *UseCase) MySubscriptions(ctx context.Context, userID string) ([]View, error) {
	_ = ctx
	subs, err := uc.subRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(subs))
	for _, sub := range subs {
		product, err := uc.productRepo.GetByID(sub.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			// La suscripción apunta a un producto desaparecido; no debería
			// pasar (los productos no se borran), se omite de la vista.
			continue
		}
		views = append(views, View{Subscription: sub, Product: product})
	}
	return views, nil
}

// SubscribedProductIDs ids de producto a los que el usuario está suscrito.
func (uc *UseCase) SubscribedProductIDs(ctx context.Context, userID string) (map[string]bool, error) {
	subs, err := uc.MySubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(subs))
	for _, v := range subs {
		ids[v.Product.ID] = true
	}
	return ids, nil
}
