package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.GET("/value", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	w := serve(r, http.MethodGet, "/value", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())

	w = serve(r, http.MethodGet, "/value", nil)
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = serve(r, http.MethodGet, "/value", map[string]string{"Cache-Control": "no-cache"})
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())

	store.Flush()
	w = serve(r, http.MethodGet, "/value", nil)
	assert.JSONEq(t, `{"calls":3}`, w.Body.String())
}

func TestCache_KeysOnPathAndQuery(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)

	r := gin.New()
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"path": c.Request.URL.Path, "name": c.Query("name")})
	}
	r.GET("/a", Cache(store, time.Minute), handler)
	r.GET("/b", Cache(store, time.Minute), handler)

	assert.JSONEq(t, `{"path":"/a","name":"x"}`, serve(r, http.MethodGet, "/a?name=x", nil).Body.String())
	assert.JSONEq(t, `{"path":"/a","name":"y"}`, serve(r, http.MethodGet, "/a?name=y", nil).Body.String())
	assert.JSONEq(t, `{"path":"/b","name":""}`, serve(r, http.MethodGet, "/b", nil).Body.String())
	assert.Equal(t, 3, store.ItemCount())

	w := serve(r, http.MethodGet, "/a?name=x", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"path":"/a","name":"x"}`, w.Body.String())
}

func TestCache_RequestWithoutRequestURI(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)

	r := gin.New()
	r.GET("/a", Cache(store, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, c.Query("n"))
	})

	// Requests built for clients leave RequestURI empty; the URL still keys the entry.
	for _, n := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/a?n="+n, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, n, w.Body.String())
	}
}

func TestCache_SkipsErrors(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.GET("/broken", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	serve(r, http.MethodGet, "/broken", nil)
	serve(r, http.MethodGet, "/broken", nil)
	assert.Equal(t, 2, calls)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(0.001), 2, "X-Real-IP"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	client := map[string]string{"X-Real-IP": "10.0.0.1"}
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", client).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", client).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/ping", client).Code)

	other := map[string]string{"X-Real-IP": "10.0.0.2"}
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", other).Code)
}

func TestRateLimiter_IgnoresHeaderWhenUnset(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(0.001), 1, ""))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Rotating a forwarding header does not reset the limit of the peer address.
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", map[string]string{"X-Real-IP": "10.0.0.1"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/ping", map[string]string{"X-Real-IP": "10.0.0.2"}).Code)
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("a"), l.GetLimiter("a"))
	assert.NotSame(t, l.GetLimiter("a"), l.GetLimiter("b"))
}
