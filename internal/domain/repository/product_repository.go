package repository

import (
	"time"

	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	// GetByIDForUpdate obtiene el producto bloqueando la fila (FOR UPDATE).
	// Usar solo dentro de una transacción.
	GetByIDForUpdate(id string) (*entity.Product, error)
	// UpdateStock sobrescribe únicamente precio, disponibilidad y última
	// revisión; el resto de campos es inmutable tras la creación.
	UpdateStock(id string, price int64, available bool, lastChecked time.Time) error
	ListOrderedByName() ([]*entity.Product, error)
}
