// Package designer covers a designer's own listings.
package designer

import (
	"context"
	"net/http"
	"net/url"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/shopspring/decimal"
)

type PlanStats struct {
	PlanID  apiclient.ID    `json:"plan_id"`
	Name    string          `json:"name"`
	Sales   int             `json:"sales"`
	Views   int             `json:"views"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Analytics struct {
	TotalPlans   int             `json:"total_plans"`
	TotalSales   int             `json:"total_sales"`
	TotalViews   int             `json:"total_views"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Plans        []PlanStats     `json:"plans"`
}

// ConversionRate is sales per view across all plans, 0 without views.
func (a Analytics) ConversionRate() float64 {
	if a.TotalViews == 0 {
		return 0
	}
	return float64(a.TotalSales) / float64(a.TotalViews)
}

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) MyPlans(ctx context.Context) ([]catalog.Plan, error) {
	resp, err := s.client.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: "/designer/plans"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page, err := catalog.DecodePlanPage(resp.Body)
	if err != nil {
		return nil, err
	}
	return page.Plans, nil
}

func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	return s.client.Delete(ctx, "/plans/"+url.PathEscape(planID), nil)
}

func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	var a Analytics
	if err := s.client.GetJSON(ctx, "/designer/analytics", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
