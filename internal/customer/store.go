// Package customer caches the signed-in customer's favorites and cart. The
// backend is authoritative: every mutation is followed by a full re-fetch.
package customer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/planmarket/planmarket/internal/logging"
	"github.com/planmarket/planmarket/internal/session"
	"github.com/shopspring/decimal"
)

const (
	favoritesPath = "/customer/favorites"
	cartPath      = "/customer/cart"
)

// ErrInFlight is returned when a mutation for the same plan is still running.
var ErrInFlight = errors.New("a change for this plan is already in progress")

type FavoriteItem struct {
	ID        apiclient.ID  `json:"id"`
	PlanID    apiclient.ID  `json:"plan_id"`
	Plan      *catalog.Plan `json:"plan,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type CartItem struct {
	ID      apiclient.ID    `json:"id"`
	PlanID  apiclient.ID    `json:"plan_id"`
	Plan    *catalog.Plan   `json:"plan,omitempty"`
	Price   decimal.Decimal `json:"price"`
	AddedAt time.Time       `json:"added_at"`
}

// UnitPrice prefers the price on the cart line and falls back to the plan.
func (c CartItem) UnitPrice() decimal.Decimal {
	if !c.Price.IsZero() || c.Plan == nil {
		return c.Price
	}
	return c.Plan.Price
}

// Snapshot is what observers receive after every change.
type Snapshot struct {
	Favorites []FavoriteItem
	Cart      []CartItem
}

type Store struct {
	client *apiclient.Client

	mu        sync.RWMutex
	favorites []FavoriteItem
	cart      []CartItem
	inFlight  map[string]struct{}
	listeners map[int]func(Snapshot)
	nextID    int
}

func NewStore(client *apiclient.Client) *Store {
	return &Store{
		client:    client,
		inFlight:  make(map[string]struct{}),
		listeners: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn for list changes. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	snap := Snapshot{
		Favorites: append([]FavoriteItem(nil), s.favorites...),
		Cart:      append([]CartItem(nil), s.cart...),
	}
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) Favorites() []FavoriteItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]FavoriteItem(nil), s.favorites...)
}

func (s *Store) Cart() []CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CartItem(nil), s.cart...)
}

func (s *Store) IsFavorite(planID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.favorites {
		if f.PlanID.String() == planID {
			return true
		}
	}
	return false
}

func (s *Store) InCart(planID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cart {
		if c.PlanID.String() == planID {
			return true
		}
	}
	return false
}

// CartTotal sums the unit price of every cart line.
func (s *Store) CartTotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, c := range s.cart {
		total = total.Add(c.UnitPrice())
	}
	return total
}

// Reset drops both lists without calling the backend.
func (s *Store) Reset() {
	s.mu.Lock()
	s.favorites = nil
	s.cart = nil
	s.mu.Unlock()
	s.notify()
}

// Load fetches favorites and cart.
func (s *Store) Load(ctx context.Context) error {
	if err := s.RefreshFavorites(ctx); err != nil {
		return err
	}
	return s.RefreshCart(ctx)
}

func (s *Store) RefreshFavorites(ctx context.Context) error {
	var items []FavoriteItem
	if err := s.fetchList(ctx, favoritesPath, "favorites", &items); err != nil {
		return fmt.Errorf("load favorites: %w", err)
	}
	s.mu.Lock()
	s.favorites = items
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) RefreshCart(ctx context.Context) error {
	var items []CartItem
	if err := s.fetchList(ctx, cartPath, "cart", &items); err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	s.mu.Lock()
	s.cart = items
	s.mu.Unlock()
	s.notify()
	return nil
}

// fetchList accepts a bare array or an object holding the array under key
// or "items".
func (s *Store) fetchList(ctx context.Context, path, key string, out any) error {
	return s.client.GetList(ctx, path, nil, out, key)
}

func (s *Store) AddFavorite(ctx context.Context, planID string) error {
	return s.mutate(ctx, "favorite:"+planID, func() error {
		return s.client.PostJSON(ctx, favoritesPath, map[string]string{"plan_id": planID}, nil)
	}, s.RefreshFavorites)
}

func (s *Store) RemoveFavorite(ctx context.Context, planID string) error {
	return s.mutate(ctx, "favorite:"+planID, func() error {
		return s.client.Delete(ctx, favoritesPath+"/"+url.PathEscape(planID), nil)
	}, s.RefreshFavorites)
}

// ToggleFavorite adds or removes planID based on the cached list and
// reports whether it is a favorite after the re-fetch.
func (s *Store) ToggleFavorite(ctx context.Context, planID string) (bool, error) {
	var err error
	if s.IsFavorite(planID) {
		err = s.RemoveFavorite(ctx, planID)
	} else {
		err = s.AddFavorite(ctx, planID)
	}
	return s.IsFavorite(planID), err
}

func (s *Store) AddToCart(ctx context.Context, planID string) error {
	return s.mutate(ctx, "cart:"+planID, func() error {
		return s.client.PostJSON(ctx, cartPath, map[string]string{"plan_id": planID}, nil)
	}, s.RefreshCart)
}

func (s *Store) RemoveFromCart(ctx context.Context, planID string) error {
	return s.mutate(ctx, "cart:"+planID, func() error {
		return s.client.Delete(ctx, cartPath+"/"+url.PathEscape(planID), nil)
	}, s.RefreshCart)
}

func (s *Store) ToggleCart(ctx context.Context, planID string) (bool, error) {
	var err error
	if s.InCart(planID) {
		err = s.RemoveFromCart(ctx, planID)
	} else {
		err = s.AddToCart(ctx, planID)
	}
	return s.InCart(planID), err
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "cart:*", func() error {
		return s.client.Delete(ctx, cartPath, nil)
	}, s.RefreshCart)
}

// mutate runs call under the in-flight guard for key, then re-fetches the
// affected list whether or not call succeeded.
func (s *Store) mutate(ctx context.Context, key string, call func() error, refetch func(context.Context) error) error {
	s.mu.Lock()
	if _, busy := s.inFlight[key]; busy {
		s.mu.Unlock()
		return ErrInFlight
	}
	s.inFlight[key] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	callErr := call()
	refetchErr := refetch(ctx)
	if callErr != nil {
		if refetchErr != nil {
			logging.NewLogger(ctx, s.client.Logger()).LogWarnf("customer_refetch", "re-fetch after failed %s: %v", key, refetchErr)
		}
		return callErr
	}
	return refetchErr
}

// Bind keeps the store in step with the session: cleared on sign-out,
// loaded when a customer signs in. The returned func detaches it.
func (s *Store) Bind(ctx context.Context, m *session.Manager) func() {
	return m.Subscribe(func(ev session.Event) {
		switch ev.Type {
		case session.EventSignedOut:
			s.Reset()
		case session.EventSignedIn:
			if ev.User == nil || ev.User.Role != session.RoleCustomer {
				s.Reset()
				return
			}
			if err := s.Load(ctx); err != nil {
				logging.NewLogger(ctx, s.client.Logger()).LogWarnf("customer_load", "loading customer data: %v", err)
			}
		}
	})
}
