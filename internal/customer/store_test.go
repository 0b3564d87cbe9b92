package customer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomerBackend struct {
	mu        sync.Mutex
	favorites []string
	cart      []string
	prices    map[string]string

	mutations int32
	gets      int32
	block     chan struct{} // when set, POST /customer/favorites waits on it
	failAdd   bool
}

func (f *fakeCustomerBackend) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/customer/favorites", func(c *gin.Context) {
		atomic.AddInt32(&f.gets, 1)
		f.mu.Lock()
		defer f.mu.Unlock()
		items := []gin.H{}
		for _, id := range f.favorites {
			items = append(items, gin.H{"id": "fav-" + id, "plan_id": id})
		}
		c.JSON(http.StatusOK, items)
	})
	r.POST("/customer/favorites", func(c *gin.Context) {
		atomic.AddInt32(&f.mutations, 1)
		if f.block != nil {
			<-f.block
		}
		if f.failAdd {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "db down"})
			return
		}
		var body struct {
			PlanID string `json:"plan_id"`
		}
		_ = c.ShouldBindJSON(&body)
		f.mu.Lock()
		f.favorites = append(f.favorites, body.PlanID)
		f.mu.Unlock()
		c.JSON(http.StatusCreated, gin.H{"message": "added"})
	})
	r.DELETE("/customer/favorites/:id", func(c *gin.Context) {
		atomic.AddInt32(&f.mutations, 1)
		f.mu.Lock()
		f.favorites = without(f.favorites, c.Param("id"))
		f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"message": "removed"})
	})

	r.GET("/customer/cart", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		items := []gin.H{}
		for _, id := range f.cart {
			items = append(items, gin.H{"id": "cart-" + id, "plan_id": id, "plan": gin.H{"id": id, "name": id, "price": f.prices[id]}})
		}
		c.JSON(http.StatusOK, gin.H{"cart": items, "count": len(items)})
	})
	r.POST("/customer/cart", func(c *gin.Context) {
		var body struct {
			PlanID string `json:"plan_id"`
		}
		_ = c.ShouldBindJSON(&body)
		f.mu.Lock()
		f.cart = append(f.cart, body.PlanID)
		f.mu.Unlock()
		c.JSON(http.StatusCreated, gin.H{"message": "added"})
	})
	r.DELETE("/customer/cart/:id", func(c *gin.Context) {
		f.mu.Lock()
		f.cart = without(f.cart, c.Param("id"))
		f.mu.Unlock()
		c.Status(http.StatusNoContent)
	})
	r.DELETE("/customer/cart", func(c *gin.Context) {
		f.mu.Lock()
		f.cart = nil
		f.mu.Unlock()
		c.Status(http.StatusNoContent)
	})
	return r
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func newStore(t *testing.T, backend *fakeCustomerBackend) *Store {
	t.Helper()
	server := httptest.NewServer(backend.router())
	t.Cleanup(server.Close)
	client, err := apiclient.New(apiclient.Options{BaseURL: server.URL})
	require.NoError(t, err)
	client.SetToken("token")
	return NewStore(client)
}

func TestToggleFavorite_OneLogicalToggle(t *testing.T) {
	backend := &fakeCustomerBackend{}
	s := newStore(t, backend)
	ctx := context.Background()

	on, err := s.ToggleFavorite(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"p1"}, backend.favorites)

	on, err = s.ToggleFavorite(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, backend.favorites)

	assert.EqualValues(t, 2, atomic.LoadInt32(&backend.mutations))
	assert.EqualValues(t, 2, atomic.LoadInt32(&backend.gets), "each mutation re-fetches once")
}

func TestMutation_InFlightGuard(t *testing.T) {
	backend := &fakeCustomerBackend{block: make(chan struct{})}
	s := newStore(t, backend)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.AddFavorite(ctx, "p1") }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&backend.mutations) == 1 }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.AddFavorite(ctx, "p1"), ErrInFlight)
	_, err := s.ToggleFavorite(ctx, "p1")
	assert.ErrorIs(t, err, ErrInFlight)

	close(backend.block)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, atomic.LoadInt32(&backend.mutations))
	assert.True(t, s.IsFavorite("p1"))
}

func TestMutation_FailureStillRefetches(t *testing.T) {
	backend := &fakeCustomerBackend{failAdd: true, favorites: []string{"p9"}}
	s := newStore(t, backend)

	err := s.AddFavorite(context.Background(), "p1")
	assert.ErrorIs(t, err, apiclient.ErrServer)
	assert.EqualValues(t, 1, atomic.LoadInt32(&backend.gets))
	assert.True(t, s.IsFavorite("p9"))
	assert.False(t, s.IsFavorite("p1"))
}

func TestCart_TotalAndClear(t *testing.T) {
	backend := &fakeCustomerBackend{prices: map[string]string{"p1": "120000.50", "p2": "80000"}}
	s := newStore(t, backend)
	ctx := context.Background()

	require.NoError(t, s.AddToCart(ctx, "p1"))
	in, err := s.ToggleCart(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, in)
	assert.Len(t, s.Cart(), 2)
	assert.Equal(t, "200000.5", s.CartTotal().String())

	require.NoError(t, s.RemoveFromCart(ctx, "p1"))
	assert.False(t, s.InCart("p1"))

	require.NoError(t, s.ClearCart(ctx))
	assert.Empty(t, s.Cart())
	assert.True(t, s.CartTotal().IsZero())
}

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	s := newStore(t, &fakeCustomerBackend{})

	var last Snapshot
	var calls int
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		calls++
		last = snap
	})
	require.NoError(t, s.AddFavorite(context.Background(), "p3"))
	require.Len(t, last.Favorites, 1)
	assert.Equal(t, "p3", last.Favorites[0].PlanID.String())

	unsubscribe()
	s.Reset()
	assert.Equal(t, 1, calls)
}

func signedToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestBind_FollowsSession(t *testing.T) {
	backend := &fakeCustomerBackend{favorites: []string{"p1"}, cart: []string{"p2"}}
	gin.SetMode(gin.TestMode)
	r := backend.router()
	role := session.RoleCustomer
	r.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"access_token": signedToken(t, role)})
	})
	r.POST("/auth/logout", func(c *gin.Context) { c.Status(http.StatusOK) })
	server := httptest.NewServer(r)
	defer server.Close()

	client, err := apiclient.New(apiclient.Options{BaseURL: server.URL})
	require.NoError(t, err)
	m := session.NewManager(client)
	s := NewStore(client)
	ctx := context.Background()
	detach := s.Bind(ctx, m)
	defer detach()

	_, err = m.Login(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, s.IsFavorite("p1"))
	assert.True(t, s.InCart("p2"))

	m.Logout(ctx)
	assert.Empty(t, s.Favorites())
	assert.Empty(t, s.Cart())

	role = session.RoleDesigner
	_, err = m.Login(ctx, "d@example.com", "pw")
	require.NoError(t, err)
	assert.Empty(t, s.Favorites(), "non-customers get no customer data")
}
