package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/amul-stock-bot/internal/domain"
	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, price, sku, alias, available, image_url, last_checked`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un producto observado por primera vez en el catálogo.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (id, name, price, sku, alias, available, image_url, last_checked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.Price, product.SKU, product.Alias,
		product.Available, product.ImageURL, product.LastChecked,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.getByQuery(`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene un producto bloqueando la fila. Solo dentro de una tx.
func (r *ProductRepo) GetByIDForUpdate(id string) (*entity.Product, error) {
	return r.getByQuery(`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) getByQuery(query, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.SKU, &p.Alias, &p.Available, &p.ImageURL, &p.LastChecked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpdateStock sobrescribe precio, disponibilidad y última revisión.
// El resto de columnas es inmutable tras la creación.
func (r *ProductRepo) UpdateStock(id string, price int64, available bool, lastChecked time.Time) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE products SET price = $2, available = $3, last_checked = $4 WHERE id = $1`,
		id, price, available, lastChecked,
	)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	return nil
}

// ListOrderedByName lista el catálogo completo ordenado por nombre.
func (r *ProductRepo) ListOrderedByName() ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.SKU, &p.Alias, &p.Available, &p.ImageURL, &p.LastChecked); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
