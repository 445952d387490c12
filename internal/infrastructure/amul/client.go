package amul

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/jhoicas/amul-stock-bot/internal/application/monitor"
	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// Rutas del shop. La query del catálogo pide los campos que usa el bot y
// filtra a la categoría protein; la tienda exige una sesión con cookie
// obtenida vía homepage + setPreferences.
const (
	defaultBaseURL  = "https://shop.amul.com"
	homepagePath    = "/en/"
	preferencesPath = "/entity/ms.settings/_/setPreferences"
	catalogPath     = "/api/1/entity/ms.products" +
		"?fields[name]=1&fields[alias]=1&fields[sku]=1&fields[price]=1&fields[images]=1&fields[available]=1" +
		"&filters[0][field]=categories&filters[0][value][0]=protein&filters[0][operator]=in" +
		"&facets=true&facetgroup=default_category_facet&limit=100&total=1&start=0"

	// storePreference fija la tienda regional; el catálogo depende de ella.
	storePreference = "gujarat"

	requestTimeout = 30 * time.Second
)

// fixedHeaders imita al frontend web; sin ellos la tienda rechaza la sesión.
var fixedHeaders = map[string]string{
	"accept":           "application/json, text/plain, */*",
	"accept-language":  "en-US,en;q=0.9",
	"content-type":     "application/json",
	"frontend":         "1",
	"origin":           "https://shop.amul.com",
	"referer":          "https://shop.amul.com/",
	"sec-fetch-dest":   "empty",
	"sec-fetch-mode":   "cors",
	"sec-fetch-site":   "same-origin",
	"user-agent":       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
}

var _ monitor.CatalogSource = (*Client)(nil)

// Client es el cliente del catálogo upstream. Mantiene a lo sumo una
// sesión autenticada viva (el jar de cookies se reemplaza completo en
// cada refresh, nunca se apila). Su único llamador es la cadena de
// reconciliación, así que no necesita sincronización propia.
type Client struct {
	httpClient *http.Client
	log        *logger.Logger
	baseURL    string
	hasSession bool
}

// NewClient construye el cliente del shop con timeout acotado.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log,
		baseURL:    defaultBaseURL,
	}
}

// FetchProducts devuelve el catálogo vigente. Falla suave: ante cualquier
// error irrecuperable (sesión, red, respuesta no-200 tras un único
// refresh-y-reintento) devuelve nil y deja que el próximo ciclo reintente.
func (c *Client) FetchProducts(ctx context.Context) []monitor.CatalogProduct {
	if !c.hasSession {
		if err := c.refreshSession(ctx); err != nil {
			c.log.Error().Err(err).Msg("no se pudo inicializar la sesión del shop")
			return nil
		}
	}

	records, status, err := c.queryCatalog(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("fallo al consultar el catálogo")
		return nil
	}
	if status != http.StatusOK {
		// Un único refresh-y-reintento; si también falla, ciclo vacío.
		c.log.Warn().Int("status", status).Msg("catálogo rechazado, refrescando sesión")
		if err := c.refreshSession(ctx); err != nil {
			c.log.Error().Err(err).Msg("refresh de sesión fallido")
			return nil
		}
		records, status, err = c.queryCatalog(ctx)
		if err != nil || status != http.StatusOK {
			c.log.Error().Err(err).Int("status", status).Msg("catálogo rechazado tras refresh")
			return nil
		}
	}

	return records
}

// refreshSession reemplaza la sesión: jar nuevo, handshake en la homepage
// (entrega la cookie) y setPreferences como validación de la cookie.
func (c *Client) refreshSession(ctx context.Context) error {
	c.hasSession = false

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("crear cookie jar: %w", err)
	}
	c.httpClient.Jar = jar

	c.log.Info().Msg("refrescando sesión del shop")

	status, err := c.do(ctx, http.MethodGet, homepagePath, nil)
	if err != nil {
		return fmt.Errorf("handshake homepage: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("handshake homepage: status %d", status)
	}

	payload := fmt.Sprintf(`{"data":{"store":%q}}`, storePreference)
	status, err = c.do(ctx, http.MethodPut, preferencesPath, strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("validar cookie (setPreferences): %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("validar cookie (setPreferences): status %d", status)
	}

	c.hasSession = true
	c.log.Info().Msg("sesión del shop validada")
	return nil
}

// productsEnvelope es el sobre JSON del endpoint de catálogo.
type productsEnvelope struct {
	Data []struct {
		ID        string  `json:"_id"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		SKU       string  `json:"sku"`
		Alias     string  `json:"alias"`
		Available int     `json:"available"`
		Images    []struct {
			File string `json:"file"`
		} `json:"images"`
	} `json:"data"`
	FileBaseURL string `json:"fileBaseUrl"`
}

func (c *Client) queryCatalog(ctx context.Context) ([]monitor.CatalogProduct, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+catalogPath, nil)
	if err != nil {
		return nil, 0, err
	}
	applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var envelope productsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decodificar catálogo: %w", err)
	}

	records := make([]monitor.CatalogProduct, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		rec := monitor.CatalogProduct{
			ID:        raw.ID,
			Name:      raw.Name,
			Price:     int64(raw.Price),
			SKU:       raw.SKU,
			Alias:     raw.Alias,
			Available: raw.Available == 1,
		}
		if len(raw.Images) > 0 && raw.Images[0].File != "" {
			rec.ImageURL = envelope.FileBaseURL + raw.Images[0].File
		}
		records = append(records, rec)
	}
	return records, resp.StatusCode, nil
}

// do lanza una petición con los headers fijos y descarta el cuerpo.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func applyHeaders(req *http.Request) {
	for k, v := range fixedHeaders {
		req.Header.Set(k, v)
	}
}
