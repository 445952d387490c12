package amul

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del cliente del shop contra un servidor httptest: handshake de
// sesión por cookie, reintento único tras refresh y falla suave a nil.
// ──────────────────────────────────────────────────────────────────────────────

const catalogBody = `{
	"data": [
		{
			"_id": "p-milk",
			"name": "Amul High Protein Milk | 250 mL | Pack of 8",
			"price": 250,
			"sku": "HPM08",
			"alias": "amul-high-protein-milk",
			"available": 1,
			"images": [{"file": "milk.jpg"}]
		},
		{
			"_id": "p-whey",
			"name": "Amul Whey Protein | 32 g",
			"price": 2499,
			"sku": "WHEY32",
			"alias": "amul-whey-protein",
			"available": 0,
			"images": []
		}
	],
	"fileBaseUrl": "https://cdn.example.com/"
}`

// shopServer simula la tienda: la homepage entrega la cookie de sesión,
// setPreferences la valida y el catálogo responde según catalogStatus.
type shopServer struct {
	srv *httptest.Server

	homepageStatus  int32
	catalogStatus   int32
	failCatalogOnce int32

	handshakes   int32
	catalogCalls int32
}

func newShopServer(t *testing.T) *shopServer {
	t.Helper()

	s := &shopServer{homepageStatus: http.StatusOK, catalogStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/en/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.handshakes, 1)
		status := int(atomic.LoadInt32(&s.homepageStatus))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "jsessionid", Value: "abc123", Path: "/"})
	})
	mux.HandleFunc("/entity/ms.settings/_/setPreferences", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := r.Cookie("jsessionid"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	})
	mux.HandleFunc("/api/1/entity/ms.products", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.catalogCalls, 1)
		if _, err := r.Cookie("jsessionid"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if atomic.CompareAndSwapInt32(&s.failCatalogOnce, 1, 0) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		status := int(atomic.LoadInt32(&s.catalogStatus))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogBody))
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *shopServer) client() *Client {
	c := NewClient(logger.Nop())
	c.baseURL = s.srv.URL
	return c
}

func TestFetchProducts_DevuelveElCatalogoMapeado(t *testing.T) {
	shop := newShopServer(t)
	c := shop.client()

	records := c.FetchProducts(context.Background())

	require.Len(t, records, 2)

	milk := records[0]
	assert.Equal(t, "p-milk", milk.ID)
	assert.Equal(t, int64(250), milk.Price)
	assert.True(t, milk.Available, "available=1 debe mapear a true")
	assert.Equal(t, "https://cdn.example.com/milk.jpg", milk.ImageURL, "la imagen se resuelve contra fileBaseUrl")

	whey := records[1]
	assert.False(t, whey.Available, "available=0 debe mapear a false")
	assert.Empty(t, whey.ImageURL, "sin imágenes no hay URL")

	assert.EqualValues(t, 1, atomic.LoadInt32(&shop.handshakes), "una sola sesión para el primer fetch")
}

func TestFetchProducts_ReutilizaLaSesion(t *testing.T) {
	shop := newShopServer(t)
	c := shop.client()

	require.Len(t, c.FetchProducts(context.Background()), 2)
	require.Len(t, c.FetchProducts(context.Background()), 2)

	assert.EqualValues(t, 1, atomic.LoadInt32(&shop.handshakes), "la sesión válida no debe renovarse entre ciclos")
}

func TestFetchProducts_UnSoloRefreshTrasRechazo(t *testing.T) {
	shop := newShopServer(t)
	c := shop.client()

	// Primera sesión válida; luego la tienda empieza a rechazar el catálogo.
	require.Len(t, c.FetchProducts(context.Background()), 2)
	atomic.StoreInt32(&shop.catalogStatus, http.StatusUnauthorized)

	records := c.FetchProducts(context.Background())

	assert.Nil(t, records, "rechazo persistente tras refresh devuelve nil")
	assert.EqualValues(t, 2, atomic.LoadInt32(&shop.handshakes), "exactamente un refresh adicional, nunca un bucle")
	assert.EqualValues(t, 3, atomic.LoadInt32(&shop.catalogCalls), "un único reintento tras el refresh")
}

func TestFetchProducts_RefreshExitosoRecupera(t *testing.T) {
	shop := newShopServer(t)
	c := shop.client()

	require.Len(t, c.FetchProducts(context.Background()), 2)

	// La tienda rechaza exactamente una vez: el refresh único debe bastar
	// para que el reintento recupere el catálogo en el mismo ciclo.
	atomic.StoreInt32(&shop.failCatalogOnce, 1)

	records := c.FetchProducts(context.Background())

	require.Len(t, records, 2, "tras un refresh exitoso el ciclo recupera el catálogo")
	assert.EqualValues(t, 2, atomic.LoadInt32(&shop.handshakes), "el rechazo debe costar un solo refresh")
}

func TestFetchProducts_SinSesionInicialDevuelveNil(t *testing.T) {
	shop := newShopServer(t)
	atomic.StoreInt32(&shop.homepageStatus, http.StatusInternalServerError)
	c := shop.client()

	records := c.FetchProducts(context.Background())

	assert.Nil(t, records, "sin sesión no hay catálogo")
	assert.Zero(t, atomic.LoadInt32(&shop.catalogCalls), "no debe consultarse el catálogo sin sesión")
}
