package repository

import "github.com/jhoicas/amul-stock-bot/internal/domain/entity"

// SubscriptionRepository define el puerto de persistencia para Subscription (DIP).
type SubscriptionRepository interface {
	Create(sub *entity.Subscription) error
	// GetByUserAndProductForUpdate obtiene la suscripción del par bloqueando
	// la fila (FOR UPDATE). Usar solo dentro de una transacción.
	GetByUserAndProductForUpdate(userID, productID string) (*entity.Subscription, error)
	// ListByProductForUpdate bloquea las filas del producto para que la
	// reconciliación y los comandos de usuario serialicen sus escrituras.
	ListByProductForUpdate(productID string) ([]*entity.Subscription, error)
	ListByUser(userID string) ([]*entity.Subscription, error)
	Update(sub *entity.Subscription) error
	Delete(id string) error
}
