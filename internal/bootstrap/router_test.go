package bootstrap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/planmarket/planmarket/internal/storefront"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, rdb *redis.Client) *gin.Engine {
	t.Helper()
	SetGinMode("test")
	return BuildRouter(RouterDeps{
		ServiceName:    "planmarket-storefront",
		Version:        "test",
		BackendURL:     "http://backend.invalid",
		AllowedOrigins: []string{"https://shop.example.com"},
		Logger:         zap.NewNop(),
		Redis:          rdb,
		ClientConfig:   storefront.NewClientConfig("http://backend.invalid", "paypal-sandbox-id"),
	})
}

func TestHealth_ReportsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := newTestRouter(t, redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	for _, path := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "up", body["redis"])
		assert.Equal(t, "planmarket-storefront", body["service"])
	}

	mr.Close()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}

func TestClientConfigServesPayPalClientID(t *testing.T) {
	r := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body storefront.ClientConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "paypal-sandbox-id", body.PayPalClientID)
	assert.Equal(t, []string{"paystack", "paypal"}, body.PaymentProviders)
	assert.Equal(t, "http://backend.invalid", body.APIURL)
}

func TestHealth_NoRedis(t *testing.T) {
	r := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
}

func TestRequestIDIsEchoedOrMinted(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	assert.Len(t, w.Header().Get("X-Request-Id"), 36)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
