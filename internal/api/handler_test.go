package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sweetshop/internal/catalog"
	"sweetshop/internal/session"
	"sweetshop/internal/storefront"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, ready ReadyFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := catalog.New(&catalog.SimulatedSource{})
	require.NoError(t, cat.Load(context.Background()))

	registry := storefront.NewRegistry(cat,
		session.NewRoster(map[string]string{"usuario1": "contraseña1"}),
		session.NewMemoryStorage(),
		nil,
		storefront.RegistryOptions{})

	router := gin.New()
	NewHandler(registry, ready).SetupRoutes(router)
	return router
}

func do(router *gin.Engine, method, path, sid, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.Header.Set(sessionHeader, sid)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type cartResponse struct {
	Cart struct {
		Lines []struct {
			ItemID   int64 `json:"item_id"`
			Quantity int   `json:"quantity"`
		} `json:"lines"`
		Total int64 `json:"total"`
	} `json:"cart"`
	Notice storefront.Notice `json:"notice"`
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var resp cartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ready", "", "").Code)
}

func TestReadyReportsFailure(t *testing.T) {
	router := newTestRouter(t, func(ctx context.Context) error { return errors.New("redis down") })

	w := do(router, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionIDIsMinted(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/api/v1/products", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(sessionHeader))
	assert.Contains(t, w.Header().Get("Set-Cookie"), sessionCookie+"=")

	var resp struct {
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 7)
}

func TestCartFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, id := range []string{"1", "2", "1"} {
		w := do(router, http.MethodPost, "/api/v1/cart/items/"+id, "s1", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	resp := decodeCart(t, do(router, http.MethodGet, "/api/v1/cart", "s1", ""))
	assert.Equal(t, int64(2500), resp.Cart.Total)
	assert.Len(t, resp.Cart.Lines, 2)

	text := do(router, http.MethodGet, "/api/v1/cart/text", "s1", "")
	assert.Equal(t, "Dulce de leche x2 - $2000\nAlfajor x1 - $500\nTotal: $2500\n", text.Body.String())

	w := do(router, http.MethodDelete, "/api/v1/cart/items/2", "s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2000), decodeCart(t, w).Cart.Total)

	w = do(router, http.MethodDelete, "/api/v1/cart/items/2", "s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2000), decodeCart(t, w).Cart.Total)

	other := decodeCart(t, do(router, http.MethodGet, "/api/v1/cart", "s2", ""))
	assert.Equal(t, int64(0), other.Cart.Total)
}

func TestAddUnknownOrInvalidItem(t *testing.T) {
	router := newTestRouter(t, nil)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, "/api/v1/cart/items/99", "s1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/api/v1/cart/items/abc", "s1", "").Code)
}

func TestCheckout(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/cart/checkout", "s1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Tu carrito está vacío.", decodeCart(t, w).Notice.Message)

	do(router, http.MethodPost, "/api/v1/cart/items/2", "s1", "")
	w = do(router, http.MethodPost, "/api/v1/cart/checkout", "s1", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeCart(t, w)
	assert.Equal(t, "Gracias por tu compra!", resp.Notice.Message)
	assert.Equal(t, int64(0), resp.Cart.Total)
	assert.Empty(t, resp.Cart.Lines)

	var receipt struct {
		Receipt struct {
			Total int64 `json:"total"`
		} `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, int64(500), receipt.Receipt.Total)
}

func TestSessionEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/session/login", "s1", `{"username":"usuario1","password":"mal"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/v1/session/toggle", "s1", `{"username":"usuario1","password":"contraseña1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var state struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	w = do(router, http.MethodGet, "/api/v1/session", "s1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.True(t, state.Authenticated)
	assert.Equal(t, "usuario1", state.User.Username)

	w = do(router, http.MethodPost, "/api/v1/session/toggle", "s1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/session", "s1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.Authenticated)

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/v1/session/logout", "s1", "").Code)
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/session/register", "s1", `{"username":"usuario1","password":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/api/v1/session/register", "s1", `{"username":"nuevo","password":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/session/login", "s2", `{"username":"nuevo","password":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelledPrompt(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, body := range []string{"", `{"cancelled":true,"username":"nuevo","password":"x"}`, `{"username":"nuevo"}`} {
		w := do(router, http.MethodPost, "/api/v1/session/register", "s1", body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Cancelled bool              `json:"cancelled"`
			Notice    storefront.Notice `json:"notice"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Cancelled)
		assert.Equal(t, "Operación cancelada.", resp.Notice.Message)
	}

	w := do(router, http.MethodPost, "/api/v1/session/login", "s1", `{"username":"nuevo","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChunkedEmptyBodyIsCancelled(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/login", strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, "s1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Cancelled bool `json:"cancelled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Cancelled)
}

func TestAnonymousRequestsAreBounded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cat := catalog.New(&catalog.SimulatedSource{})
	registry := storefront.NewRegistry(cat,
		session.NewRoster(nil),
		session.NewMemoryStorage(),
		nil,
		storefront.RegistryOptions{MaxSessions: 50})
	require.NoError(t, registry.Init(context.Background()))

	router := gin.New()
	NewHandler(registry, nil).SetupRoutes(router)

	for i := 0; i < 1000; i++ {
		sid := ""
		if i%2 == 1 {
			sid = fmt.Sprintf("fresh-%d", i)
		}
		w := do(router, http.MethodGet, "/api/v1/products", sid, "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 50, registry.Len())
}

func TestInvalidBody(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/session/login", "s1", `{nope`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
