// Package purchase drives checkout, payment verification and the
// one-time-token download exchange.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/planmarket/planmarket/internal/apiclient"
	"github.com/planmarket/planmarket/internal/logging"
	"github.com/shopspring/decimal"
)

const (
	ProviderPaystack = "paystack"
	ProviderPayPal   = "paypal"

	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusConfirmed = "confirmed"
)

var (
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrPaymentFailed   = errors.New("payment failed")
	ErrPaymentPending  = errors.New("payment not confirmed yet")
	ErrNoDownloadToken = errors.New("backend returned no download token")
)

type Purchase struct {
	ID               apiclient.ID    `json:"id"`
	PlanID           apiclient.ID    `json:"plan_id"`
	PlanName         string          `json:"plan_name,omitempty"`
	UserID           apiclient.ID    `json:"user_id"`
	Status           string          `json:"status"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Provider         string          `json:"payment_method,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Deliverables     []string        `json:"deliverables,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Paid reports whether the purchase unlocks downloads.
func (p Purchase) Paid() bool {
	return p.Status == StatusCompleted || p.Status == StatusConfirmed
}

// Checkout is the outcome of starting a purchase. RedirectURL is empty when
// the plan is free or already owned.
type Checkout struct {
	PurchaseID   apiclient.ID
	Reference    string
	Provider     string
	RedirectURL  string
	Amount       decimal.Decimal
	AlreadyOwned bool
	Message      string
}

type checkoutResponse struct {
	Message          string          `json:"message"`
	PurchaseID       apiclient.ID    `json:"purchase_id"`
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorization_url"`
	ApprovalURL      string          `json:"approval_url"`
	OrderID          apiclient.ID    `json:"order_id"`
	Amount           decimal.Decimal `json:"amount"`
	AlreadyPurchased bool            `json:"already_purchased"`
}

type VerifyResult struct {
	Status     string       `json:"status"`
	Reference  string       `json:"reference"`
	PurchaseID apiclient.ID `json:"purchase_id"`
	Message    string       `json:"message"`
}

func (v VerifyResult) Completed() bool {
	return v.Status == StatusCompleted || v.Status == StatusConfirmed || v.Status == "success"
}

func (v VerifyResult) Failed() bool {
	return v.Status == StatusFailed || v.Status == "abandoned"
}

type DownloadLink struct {
	Token     string    `json:"download_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// Purchase starts a checkout for planID with the given provider.
func (s *Service) Purchase(ctx context.Context, planID, provider string) (*Checkout, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = ProviderPaystack
	}
	if provider != ProviderPaystack && provider != ProviderPayPal {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	var resp checkoutResponse
	err := s.client.PostJSON(ctx, "/customer/plans/purchase", map[string]string{
		"plan_id":        planID,
		"payment_method": provider,
	}, &resp)
	if err != nil {
		return nil, err
	}

	co := &Checkout{
		PurchaseID:   resp.PurchaseID,
		Reference:    resp.Reference,
		Provider:     provider,
		RedirectURL:  resp.AuthorizationURL,
		Amount:       resp.Amount,
		AlreadyOwned: resp.AlreadyPurchased,
		Message:      resp.Message,
	}
	if provider == ProviderPayPal {
		co.RedirectURL = resp.ApprovalURL
		if resp.OrderID != "" {
			co.Reference = resp.OrderID.String()
		}
	}

	logging.NewLogger(ctx, s.client.Logger()).LogInfof("purchase", "checkout for plan %s via %s (reference %q)", planID, provider, co.Reference)
	return co, nil
}

// Verify asks the backend for the Paystack transaction status.
func (s *Service) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if reference == "" {
		return nil, errors.New("payment reference is required")
	}
	var res VerifyResult
	if err := s.client.GetJSON(ctx, "/customer/plans/paystack/verify/"+url.PathEscape(reference), nil, &res); err != nil {
		return nil, err
	}
	if res.Reference == "" {
		res.Reference = reference
	}
	return &res, nil
}

// CapturePayPal captures an approved PayPal order.
func (s *Service) CapturePayPal(ctx context.Context, orderID string) (*VerifyResult, error) {
	if orderID == "" {
		return nil, errors.New("paypal order id is required")
	}
	var res VerifyResult
	if err := s.client.PostJSON(ctx, "/customer/plans/paypal/capture", map[string]string{"order_id": orderID}, &res); err != nil {
		return nil, err
	}
	if res.Reference == "" {
		res.Reference = orderID
	}
	return &res, nil
}

func (s *Service) MyPurchases(ctx context.Context) ([]Purchase, error) {
	var out []Purchase
	if err := s.client.GetList(ctx, "/customer/purchases", nil, &out, "purchases"); err != nil {
		return nil, err
	}
	return out, nil
}

// HasPurchased reports whether a paid purchase of planID exists.
func (s *Service) HasPurchased(ctx context.Context, planID string) (bool, error) {
	purchases, err := s.MyPurchases(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range purchases {
		if p.PlanID.String() == planID && p.Paid() {
			return true, nil
		}
	}
	return false, nil
}
