package monitor

import (
	"context"
	"time"

	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// ReconcileUseCase es el motor de diff de stock: reconcilia el catálogo
// recién traído contra el estado persistido, muta productos/suscripciones
// en una sola transacción y produce las intenciones de notificación.
// Las intenciones se despachan después del commit: un fallo de entrega
// nunca revierte estado, y un rollback nunca deja mensajes enviados.
type ReconcileUseCase struct {
	catalog    CatalogSource
	tx         TxRunner
	dispatcher *Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(catalog CatalogSource, tx TxRunner, dispatcher *Dispatcher, log *logger.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{
		catalog:    catalog,
		tx:         tx,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// Run ejecuta un ciclo completo de reconciliación: fetch, diff, persistir,
// despachar. Un catálogo vacío es un ciclo sin trabajo, no un error; un
// error de persistencia revierte todo el ciclo y se reporta al scheduler,
// que igualmente re-arma el siguiente.
func (uc *ReconcileUseCase) Run(ctx context.Context) error {
	records := uc.catalog.FetchProducts(ctx)
	uc.log.Info().Int("productos", len(records)).Msg("catálogo obtenido")

	if len(records) == 0 {
		uc.log.Warn().Msg("el upstream no devolvió productos, se reintenta en el próximo ciclo")
		return nil
	}

	var intents []Notification
	err := uc.tx.Run(ctx, func(
		productRepo repository.ProductRepository,
		_ repository.UserRepository,
		subRepo repository.SubscriptionRepository,
	) error {
		intents = intents[:0]
		now := uc.now()
		for _, rec := range records {
			recIntents, err := uc.reconcileOne(productRepo, subRepo, rec, now)
			if err != nil {
				return err
			}
			intents = append(intents, recIntents...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.dispatcher.Dispatch(ctx, intents)
	uc.log.Info().Int("notificaciones", len(intents)).Msg("reconciliación completada")
	return nil
}

// reconcileOne procesa un registro del catálogo dentro de la transacción.
// Tabla de transiciones por suscripción (base -> nuevo):
//
//	false -> false  sin acción
//	false -> true   notificar; notified=true, last_notified_at=now
//	true  -> true   sin acción
//	true  -> false  sin notificar; notified=false (habilita el próximo restock)
//
// En ambos cambios last_stock_status toma el valor nuevo. Solo el restock
// (false -> true) genera intención de notificación.
func (uc *ReconcileUseCase) reconcileOne(
	productRepo repository.ProductRepository,
	subRepo repository.SubscriptionRepository,
	rec CatalogProduct,
	now time.Time,
) ([]Notification, error) {
	product, err := productRepo.GetByIDForUpdate(rec.ID)
	if err != nil {
		return nil, err
	}

	if product == nil {
		// Primera observación: se inserta sin efectos de notificación
		// (todavía no puede haber suscriptores para este id).
		if err := productRepo.Create(newProduct(rec, now)); err != nil {
			return nil, err
		}
		uc.log.Info().Str("producto", rec.Name).Msg("producto nuevo en el catálogo")
		return nil, nil
	}

	subs, err := subRepo.ListByProductForUpdate(product.ID)
	if err != nil {
		return nil, err
	}

	// Copia con el estado recién observado, para que el mensaje refleje
	// exactamente lo que se acaba de persistir.
	snapshot := *product
	snapshot.Price = rec.Price
	snapshot.Available = rec.Available
	snapshot.LastChecked = now

	var intents []Notification
	for _, sub := range subs {
		if sub.LastStockStatus == rec.Available {
			continue
		}
		if rec.Available {
			intents = append(intents, Notification{UserID: sub.UserID, Product: snapshot})
			at := now
			sub.LastNotifiedAt = &at
			sub.Notified = true
		} else {
			// Se limpia la marca para que un restock futuro cuente como
			// evento fresco a notificar.
			sub.Notified = false
		}
		sub.LastStockStatus = rec.Available
		if err := subRepo.Update(sub); err != nil {
			return nil, err
		}
	}

	if err := productRepo.UpdateStock(product.ID, rec.Price, rec.Available, now); err != nil {
		return nil, err
	}
	return intents, nil
}

func newProduct(rec CatalogProduct, now time.Time) *entity.Product {
	return &entity.Product{
		ID:          rec.ID,
		Name:        rec.Name,
		Price:       rec.Price,
		SKU:         rec.SKU,
		Alias:       rec.Alias,
		Available:   rec.Available,
		ImageURL:    rec.ImageURL,
		LastChecked: now,
	}
}
