package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/logging"
)

// ListQuery is the server-side part of a listing request.
type ListQuery struct {
	Page       int
	PerPage    int
	Category   string
	DesignerID string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Category != "" && q.Category != OptionAll {
		v.Set("category", q.Category)
	}
	if q.DesignerID != "" {
		v.Set("designer_id", q.DesignerID)
	}
	return v
}

// Service reads the plan catalog.
type Service struct {
	client *apiclient.Client
	cache  PageCache
}

type Option func(*Service)

// WithCache puts a cache-aside PageCache in front of ListPlans.
func WithCache(c PageCache) Option {
	return func(s *Service) { s.cache = c }
}

func NewService(client *apiclient.Client, opts ...Option) *Service {
	s := &Service{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPlans fetches one page of listings.
func (s *Service) ListPlans(ctx context.Context, q ListQuery) (*PlanPage, error) {
	values := q.values()
	key := values.Encode()

	if s.cache != nil {
		if page, ok := s.cache.Get(ctx, key); ok {
			return page, nil
		}
	}

	resp, err := s.client.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: "/plans", Query: values})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page, err := DecodePlanPage(resp.Body)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, page)
	}
	return page, nil
}

// Invalidate drops cached listing pages once a plan was created, edited or
// deleted. Without a cache it does nothing.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logging.NewLogger(ctx, s.client.Logger()).LogWarnf("catalog_invalidate", "drop cached pages: %v", err)
	}
}

// DecodePlanPage accepts either a bare JSON array of plans or a page object.
func DecodePlanPage(r io.Reader) (*PlanPage, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var plans []Plan
		if err := json.Unmarshal(trimmed, &plans); err != nil {
			return nil, fmt.Errorf("decode plans: %w", err)
		}
		return &PlanPage{Plans: plans, Total: len(plans), Page: 1, PerPage: len(plans), Pages: 1}, nil
	}

	var page PlanPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	if page.Total == 0 {
		page.Total = len(page.Plans)
	}
	return &page, nil
}

func (s *Service) GetPlan(ctx context.Context, id string) (*PlanDetails, error) {
	if id == "" {
		return nil, fmt.Errorf("plan id is required")
	}
	var details PlanDetails
	if err := s.client.GetJSON(ctx, "/plans/"+url.PathEscape(id)+"/details", nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Browse fetches a page once and applies the filter chain in memory.
func (s *Service) Browse(ctx context.Context, q ListQuery, c Criteria) ([]Plan, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	page, err := s.ListPlans(ctx, q)
	if err != nil {
		return nil, err
	}

	filtered := Apply(page.Plans, c)
	logging.NewLogger(ctx, s.client.Logger()).LogDebugf("browse", "%d of %d plans match", len(filtered), len(page.Plans))
	return filtered, nil
}

// TopSelling returns up to n plans by sales count.
func (s *Service) TopSelling(ctx context.Context, q ListQuery, n int) ([]Plan, error) {
	plans, err := s.Browse(ctx, q, Criteria{Sort: SortTopSelling})
	if err != nil {
		return nil, err
	}
	if n > 0 && len(plans) > n {
		plans = plans[:n]
	}
	return plans, nil
}
