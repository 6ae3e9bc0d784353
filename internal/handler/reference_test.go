package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/models"
)

type memoryJSONCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	fail bool
}

func newMemoryJSONCache() *memoryJSONCache {
	return &memoryJSONCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryJSONCache) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	c.ttls[key] = ttl
	return nil
}

func (c *memoryJSONCache) GetJSON(_ context.Context, key string, v any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return false, errors.New("cache down")
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, v)
}

func (c *memoryJSONCache) ttl(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

func newReferenceRouter(t *testing.T, cache JSONCache) (*atomic.Int32, http.Handler) {
	t.Helper()
	var upstreamCalls atomic.Int32

	up := chi.NewRouter()
	up.Get("/api/reference/currencies", func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		writeJSON(w, http.StatusOK, []models.Currency{
			{Code: "USD", Name: "US Dollar", MinorUnits: 2},
			{Code: "IDR", Name: "Indonesian Rupiah", MinorUnits: 0},
		})
	})
	up.Get("/api/reference/bic/{bic}", func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		if chi.URLParam(r, "bic") != "CENAIDJA" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown BIC"})
			return
		}
		writeJSON(w, http.StatusOK, models.BankInfo{BIC: "CENAIDJA", BankName: "Bank Central Asia", Country: "ID"})
	})
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	api, err := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	h := NewReferenceHandler(api, cache, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/reference/currencies", h.Currencies)
	r.Get("/reference/bic/{bic}", h.BIC)
	return &upstreamCalls, r
}

func TestReferenceCurrenciesReadThrough(t *testing.T) {
	cache := newMemoryJSONCache()
	calls, r := newReferenceRouter(t, cache)

	for i := 0; i < 3; i++ {
		w := serve(t, r, http.MethodGet, "/reference/currencies", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var currencies []models.Currency
		decodeEnvelope(t, w, &currencies)
		require.Len(t, currencies, 2)
		assert.Equal(t, "IDR", currencies[1].Code)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, time.Hour, cache.ttl("ref:currencies"))
}

func TestReferenceBIC(t *testing.T) {
	cache := newMemoryJSONCache()
	calls, r := newReferenceRouter(t, cache)

	w := serve(t, r, http.MethodGet, "/reference/bic/cenaidja", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info models.BankInfo
	decodeEnvelope(t, w, &info)
	assert.Equal(t, "Bank Central Asia", info.BankName)
	assert.Equal(t, 24*time.Hour, cache.ttl("ref:bic:CENAIDJA"))

	w = serve(t, r, http.MethodGet, "/reference/bic/CENAIDJA", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), calls.Load())

	w = serve(t, r, http.MethodGet, "/reference/bic/DEUTDEFF", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, r, http.MethodGet, "/reference/bic/not-a-bic", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestReferenceWithoutCache(t *testing.T) {
	broken := newMemoryJSONCache()
	broken.fail = true

	for name, cache := range map[string]JSONCache{"nil cache": nil, "failing cache": broken} {
		t.Run(name, func(t *testing.T) {
			calls, r := newReferenceRouter(t, cache)

			for i := 0; i < 2; i++ {
				w := serve(t, r, http.MethodGet, "/reference/currencies", nil)
				require.Equal(t, http.StatusOK, w.Code)
			}
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}
