package storefront

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planmarket/planmarket/internal/purchase"
)

// ClientConfig is the public settings browser code reads before it calls
// the backend or loads the PayPal SDK.
type ClientConfig struct {
	APIURL           string   `json:"api_url"`
	PayPalClientID   string   `json:"paypal_client_id,omitempty"`
	PaymentProviders []string `json:"payment_providers"`
}

// NewClientConfig offers PayPal only when a client id is configured.
func NewClientConfig(apiURL, payPalClientID string) *ClientConfig {
	providers := []string{purchase.ProviderPaystack}
	if payPalClientID != "" {
		providers = append(providers, purchase.ProviderPayPal)
	}
	return &ClientConfig{APIURL: apiURL, PayPalClientID: payPalClientID, PaymentProviders: providers}
}

func (cc *ClientConfig) Get(c *gin.Context) {
	c.JSON(http.StatusOK, cc)
}
