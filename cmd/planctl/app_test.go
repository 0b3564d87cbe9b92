package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/planmarket/planmarket/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv starts a fake backend and points the config at it.
func setupEnv(t *testing.T) (string, *int32) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		Email:            "ada@example.com",
		Role:             session.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"access_token": token}) })
	r.POST("/auth/logout", func(c *gin.Context) { c.Status(http.StatusOK) })
	var hits int32
	r.GET("/plans", func(c *gin.Context) {
		atomic.AddInt32(&hits, 1)
		c.Data(http.StatusOK, "application/json", []byte(`[
			{"id":"p1","name":"Savanna","price":120000,"bedrooms":3,"sales_count":2},
			{"id":"p2","name":"Ridge","price":900000,"bedrooms":5,"sales_count":9}]`))
	})
	r.GET("/customer/favorites", func(c *gin.Context) { c.JSON(http.StatusOK, []gin.H{}) })
	r.GET("/customer/cart", func(c *gin.Context) { c.JSON(http.StatusOK, []gin.H{}) })
	r.DELETE("/plans/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "deleted"}) })
	r.PUT("/admin/plans/:id/status", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "updated"}) })
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	stateDir := t.TempDir()
	t.Setenv("PLANMARKET_API_URL", server.URL)
	t.Setenv("PLANCTL_STATE_DIR", stateDir)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REDIS_ADDR", "")
	return stateDir, &hits
}

func testApp(t *testing.T) (*app, *bytes.Buffer, string) {
	t.Helper()
	stateDir, _ := setupEnv(t)

	var out bytes.Buffer
	a, err := newApp(context.Background(), &out)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a, &out, stateDir
}

func TestLoginPersistsTokenAndLogoutClearsIt(t *testing.T) {
	a, out, stateDir := testApp(t)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "login", []string{"ada@example.com", "pw"}))
	assert.Contains(t, out.String(), "Signed in as ada@example.com (customer)")
	_, err := os.Stat(filepath.Join(stateDir, "token"))
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, a.run(ctx, "whoami", nil))
	assert.Contains(t, out.String(), `"role": "customer"`)

	require.NoError(t, a.run(ctx, "logout", nil))
	_, err = os.Stat(filepath.Join(stateDir, "token"))
	assert.True(t, os.IsNotExist(err))

	err = a.run(ctx, "whoami", nil)
	assert.Contains(t, a.message(err), "not signed in")
}

func TestBrowseFiltersAndSorts(t *testing.T) {
	a, out, _ := testApp(t)

	require.NoError(t, a.run(context.Background(), "browse", []string{"-budget", "under-150k"}))
	assert.Contains(t, out.String(), "Savanna")
	assert.NotContains(t, out.String(), "Ridge")

	err := a.run(context.Background(), "browse", []string{"-budget", "cheap"})
	assert.Error(t, err)
}

func TestUsageErrors(t *testing.T) {
	a, _, _ := testApp(t)

	err := a.run(context.Background(), "nope", nil)
	assert.Equal(t, usage, a.message(err))
	assert.ErrorIs(t, a.run(context.Background(), "login", []string{"only-email"}), errUsage)
	assert.ErrorIs(t, a.run(context.Background(), "cart", nil), session.ErrNotSignedIn)
}

func TestPlanWritesInvalidateCachedListings(t *testing.T) {
	mr := miniredis.RunT(t)
	_, hits := setupEnv(t)
	t.Setenv("REDIS_ADDR", mr.Addr())

	var out bytes.Buffer
	a, err := newApp(context.Background(), &out)
	require.NoError(t, err)
	defer a.close()
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "browse", nil))
	require.NoError(t, a.run(ctx, "browse", nil))
	assert.EqualValues(t, 1, atomic.LoadInt32(hits), "second browse is served from redis")
	assert.NotEmpty(t, mr.Keys())

	require.NoError(t, a.run(ctx, "delete-plan", []string{"p1"}))
	assert.Empty(t, mr.Keys())
	require.NoError(t, a.run(ctx, "browse", nil))
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))

	require.NoError(t, a.run(ctx, "admin", []string{"plan-status", "p2", "draft"}))
	assert.Empty(t, mr.Keys())
}

func TestRedisDownFallsBackToNoCache(t *testing.T) {
	_, hits := setupEnv(t)
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	var out bytes.Buffer
	a, err := newApp(context.Background(), &out)
	require.NoError(t, err)
	defer a.close()

	require.NoError(t, a.run(context.Background(), "browse", nil))
	require.NoError(t, a.run(context.Background(), "browse", nil))
	assert.EqualValues(t, 2, atomic.LoadInt32(hits))
}

func TestRunExitCodes(t *testing.T) {
	setupEnv(t)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: planctl")

	stderr.Reset()
	assert.Equal(t, 1, run([]string{"nope"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stderr.String(), "error: usage: planctl"))

	assert.Equal(t, 0, run([]string{"browse", "-budget", "under-150k"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Savanna")
}
