package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/logging"
	"github.com/redis/go-redis/v9"
)

const (
	productsKeyPrefix   = "storefront:products:" // storefront:products:{encoded query}
	DefaultFetchTimeout = 10 * time.Second
	DefaultCacheTTL     = 5 * time.Minute
	maxProductsBody     = 8 << 20
)

var ErrBackendTimeout = errors.New("backend request timed out")

// ProductCache holds raw product-list bodies keyed by query.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ProductCache{client: client, ttl: ttl}
}

func (c *ProductCache) Get(ctx context.Context, query string) ([]byte, bool) {
	data, err := c.client.Get(ctx, productsKeyPrefix+query).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *ProductCache) Set(ctx context.Context, query string, body []byte) error {
	if err := c.client.Set(ctx, productsKeyPrefix+query, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache products %q: %w", query, err)
	}
	return nil
}

// Products fetches the plan list from the backend with a hard deadline.
type Products struct {
	client  *apiclient.Client
	cache   *ProductCache
	timeout time.Duration
}

// NewProducts builds the proxy. cache may be nil.
func NewProducts(client *apiclient.Client, cache *ProductCache, timeout time.Duration) *Products {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Products{client: client, cache: cache, timeout: timeout}
}

// passthrough keeps only the listing parameters the backend understands.
func passthrough(in url.Values) url.Values {
	out := url.Values{}
	for _, k := range []string{"page", "per_page", "category"} {
		if v := in.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// Fetch calls GET /plans with q and returns the raw JSON body.
func (p *Products) Fetch(ctx context.Context, q url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: "/plans", Query: q})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrBackendTimeout, p.timeout)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProductsBody))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrBackendTimeout, p.timeout)
		}
		return nil, fmt.Errorf("read products: %w", err)
	}
	return body, nil
}

// Warm refreshes the cached default listing. It is a no-op without a cache.
func (p *Products) Warm(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	body, err := p.Fetch(ctx, url.Values{})
	if err != nil {
		return err
	}
	return p.cache.Set(ctx, "", body)
}

// List serves GET /api/products.
func (p *Products) List(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.NewLogger(ctx, p.client.Logger())
	q := passthrough(c.Request.URL.Query())
	key := q.Encode()

	if p.cache != nil {
		if body, ok := p.cache.Get(ctx, key); ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json", body)
			return
		}
	}

	body, err := p.Fetch(ctx, q)
	if err != nil {
		logger.LogError("list_products", err)
		switch {
		case errors.Is(err, ErrBackendTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "The product service took too long to respond. Please try again."})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Failed to fetch products",
				"details": apiclient.UserMessage(err, "backend unavailable"),
			})
		}
		return
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, body); err != nil {
			logger.LogWarnf("list_products", "%v", err)
		}
	}
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json", body)
}

// RegisterRoutes mounts the storefront API under r.
func (p *Products) RegisterRoutes(r gin.IRouter) {
	r.GET("/categories", ListCategories)
	r.GET("/products", p.List)
}
