package subscription_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/amul-stock-bot/internal/application/subscription"
	"github.com/jhoicas/amul-stock-bot/internal/domain"
	"github.com/jhoicas/amul-stock-bot/internal/domain/entity"
	"github.com/jhoicas/amul-stock-bot/internal/domain/repository"
	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del toggle de suscripción: máquina de dos estados, captura de línea
// base y alta perezosa de usuario, sobre repositorios en memoria.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	products map[string]entity.Product
	users    map[string]entity.User
	subs     map[string]entity.Subscription
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]entity.Product),
		users:    make(map[string]entity.User),
		subs:     make(map[string]entity.Subscription),
	}
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(product *entity.Product) error {
	r.s.products[product.ID] = *product
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memProductRepo) GetByIDForUpdate(id string) (*entity.Product, error) {
	return r.GetByID(id)
}

func (r *memProductRepo) UpdateStock(id string, price int64, available bool, lastChecked time.Time) error {
	p := r.s.products[id]
	p.Price = price
	p.Available = available
	p.LastChecked = lastChecked
	r.s.products[id] = p
	return nil
}

func (r *memProductRepo) ListOrderedByName() ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(r.s.products))
	for id := range r.s.products {
		p := r.s.products[id]
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(user *entity.User) error {
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(id string) (*entity.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type memSubRepo struct{ s *memStore }

func (r *memSubRepo) Create(sub *entity.Subscription) error {
	r.s.subs[sub.ID] = *sub
	return nil
}

func (r *memSubRepo) GetByUserAndProductForUpdate(userID, productID string) (*entity.Subscription, error) {
	for id := range r.s.subs {
		sub := r.s.subs[id]
		if sub.UserID == userID && sub.ProductID == productID {
			return &sub, nil
		}
	}
	return nil, nil
}

func (r *memSubRepo) ListByProductForUpdate(productID string) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	for id := range r.s.subs {
		sub := r.s.subs[id]
		if sub.ProductID == productID {
			out = append(out, &sub)
		}
	}
	return out, nil
}

func (r *memSubRepo) ListByUser(userID string) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	for id := range r.s.subs {
		sub := r.s.subs[id]
		if sub.UserID == userID {
			out = append(out, &sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscribedAt.Before(out[j].SubscribedAt) })
	return out, nil
}

func (r *memSubRepo) Update(sub *entity.Subscription) error {
	r.s.subs[sub.ID] = *sub
	return nil
}

func (r *memSubRepo) Delete(id string) error {
	delete(r.s.subs, id)
	return nil
}

type memTxRunner struct{ s *memStore }

func (t *memTxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
) error) error {
	return fn(&memProductRepo{s: t.s}, &memUserRepo{s: t.s}, &memSubRepo{s: t.s})
}

func newUseCaseFixture(store *memStore) *subscription.UseCase {
	return subscription.NewUseCase(
		&memTxRunner{s: store},
		&memProductRepo{s: store},
		&memUserRepo{s: store},
		&memSubRepo{s: store},
		logger.Nop(),
	)
}

func seedProduct(store *memStore, id, name string, available bool) {
	store.products[id] = entity.Product{
		ID:        id,
		Name:      name,
		Price:     250,
		SKU:       "SKU-" + id,
		Alias:     "alias-" + id,
		Available: available,
	}
}

func userSubs(store *memStore, userID string) []entity.Subscription {
	var out []entity.Subscription
	for id := range store.subs {
		if store.subs[id].UserID == userID {
			out = append(out, store.subs[id])
		}
	}
	return out
}

func TestToggle_AltaCapturaLaLineaBase(t *testing.T) {
	cases := []struct {
		name      string
		available bool
	}{
		{name: "producto disponible", available: true},
		{name: "producto agotado", available: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			seedProduct(store, "p1", "Amul Whey Protein", tc.available)
			uc := newUseCaseFixture(store)

			result, err := uc.Toggle(context.Background(), "u1", "p1")

			require.NoError(t, err)
			assert.True(t, result.Subscribed)
			require.NotNil(t, result.Product)
			assert.Equal(t, "Amul Whey Protein", result.Product.Name)

			subs := userSubs(store, "u1")
			require.Len(t, subs, 1, "debe quedar exactamente una suscripción")
			assert.Equal(t, tc.available, subs[0].LastStockStatus, "la línea base debe ser la disponibilidad vigente")
			assert.Equal(t, tc.available, subs[0].Notified, "notified arranca igual a la línea base")
			assert.NotEmpty(t, subs[0].ID, "la suscripción debe llevar id propio")
		})
	}
}

func TestToggle_IdaYVueltaSinResiduo(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "Amul Whey Protein", true)
	uc := newUseCaseFixture(store)

	first, err := uc.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.True(t, first.Subscribed)

	second, err := uc.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.False(t, second.Subscribed, "el segundo toggle debe dar de baja")
	assert.Empty(t, userSubs(store, "u1"), "la baja es borrado físico, sin residuo")
}

func TestToggle_ProductoInexistente(t *testing.T) {
	store := newMemStore()
	uc := newUseCaseFixture(store)

	result, err := uc.Toggle(context.Background(), "u1", "no-existe")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Nil(t, result)
}

func TestToggle_CreaAlUsuarioEnSuPrimeraInteraccion(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "Amul Whey Protein", true)
	uc := newUseCaseFixture(store)

	_, err := uc.Toggle(context.Background(), "u1", "p1")

	require.NoError(t, err)
	assert.Contains(t, store.users, "u1", "el alta de usuario es perezosa")

	// Un segundo comando no debe duplicar ni fallar.
	require.NoError(t, uc.EnsureUser(context.Background(), "u1"))
	assert.Len(t, store.users, 1)
}

func TestMySubscriptions_EmparejaConSusProductos(t *testing.T) {
	store := newMemStore()
	seedProduct(store, "p1", "Amul Whey Protein", true)
	seedProduct(store, "p2", "Amul High Protein Milk", false)
	uc := newUseCaseFixture(store)

	_, err := uc.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	_, err = uc.Toggle(context.Background(), "u1", "p2")
	require.NoError(t, err)

	views, err := uc.MySubscriptions(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		require.NotNil(t, v.Product)
		assert.Equal(t, v.Subscription.ProductID, v.Product.ID, "cada vista une la suscripción con su producto")
	}

	ids, err := uc.SubscribedProductIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ids["p1"])
	assert.True(t, ids["p2"])
}
