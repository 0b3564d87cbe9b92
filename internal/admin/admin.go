// Package admin wraps the admin-scoped moderation endpoints.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/catalog"
	"github.com/planmarket/planmarket/internal/purchase"
	"github.com/planmarket/planmarket/internal/session"
	"github.com/shopspring/decimal"
)

var ErrInvalidArgument = errors.New("invalid argument")

type User struct {
	ID          apiclient.ID `json:"id"`
	Email       string       `json:"email"`
	Role        string       `json:"role"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	CompanyName string       `json:"company_name,omitempty"`
	IsActive    bool         `json:"is_active"`
	IsVerified  bool         `json:"is_verified"`
	CreatedAt   time.Time    `json:"created_at"`
}

type UserFilter struct {
	Role   string
	Search string
	Page   int
}

func (f UserFilter) values() url.Values {
	v := url.Values{}
	if f.Role != "" {
		v.Set("role", f.Role)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

type PlanFilter struct {
	Status string
	Page   int
}

// PlanUpdate carries the admin-editable plan fields. Nil fields are left as is.
type PlanUpdate struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	PackageLevel *string          `json:"package_level,omitempty"`
	Status       *string          `json:"status,omitempty"`
}

type Analytics struct {
	TotalUsers     int             `json:"total_users"`
	TotalCustomers int             `json:"total_customers"`
	TotalDesigners int             `json:"total_designers"`
	TotalPlans     int             `json:"total_plans"`
	TotalPurchases int             `json:"total_purchases"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	PendingPlans   int             `json:"pending_plans"`
	TopPlans       []catalog.Plan  `json:"top_plans,omitempty"`
}

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	var out []User
	if err := s.client.GetList(ctx, "/admin/users", f.values(), &out, "users"); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) SetUserActive(ctx context.Context, userID string, active bool) error {
	return s.client.PutJSON(ctx, userPath(userID)+"/status", map[string]bool{"is_active": active}, nil)
}

func (s *Service) SetUserRole(ctx context.Context, userID, role string) error {
	switch role {
	case session.RoleCustomer, session.RoleDesigner, session.RoleAdmin:
	default:
		return fmt.Errorf("%w: role %q", ErrInvalidArgument, role)
	}
	return s.client.PutJSON(ctx, userPath(userID)+"/role", map[string]string{"role": role}, nil)
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.client.Delete(ctx, userPath(userID), nil)
}

func (s *Service) ListPlans(ctx context.Context, f PlanFilter) ([]catalog.Plan, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	var out []catalog.Plan
	if err := s.client.GetList(ctx, "/admin/plans", q, &out, "plans"); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) UpdatePlan(ctx context.Context, planID string, upd PlanUpdate) error {
	return s.client.PutJSON(ctx, planPath(planID), upd, nil)
}

// SetPlanStatus moves a plan between draft and available.
func (s *Service) SetPlanStatus(ctx context.Context, planID, status string) error {
	if status != catalog.StatusDraft && status != catalog.StatusAvailable {
		return fmt.Errorf("%w: status %q", ErrInvalidArgument, status)
	}
	return s.client.PutJSON(ctx, planPath(planID)+"/status", map[string]string{"status": status}, nil)
}

func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	return s.client.Delete(ctx, planPath(planID), nil)
}

func (s *Service) ListPurchases(ctx context.Context, status string) ([]purchase.Purchase, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var out []purchase.Purchase
	if err := s.client.GetList(ctx, "/admin/purchases", q, &out, "purchases"); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmPurchase marks a pending purchase as paid by hand.
func (s *Service) ConfirmPurchase(ctx context.Context, purchaseID string) error {
	return s.client.PostJSON(ctx, "/admin/purchases/"+url.PathEscape(purchaseID)+"/confirm", nil, nil)
}

func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	var a Analytics
	if err := s.client.GetJSON(ctx, "/admin/analytics", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func userPath(id string) string { return "/admin/users/" + url.PathEscape(id) }
func planPath(id string) string { return "/admin/plans/" + url.PathEscape(id) }
