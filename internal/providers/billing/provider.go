package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/opiniohq/opinio/internal/config"
	billingdomain "github.com/opiniohq/opinio/internal/providers/billing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// hostedProvider fronts the hosted billing product. Checkout and portal
// sessions redirect to the hosted pages; webhooks are authenticated with an
// HMAC-SHA256 signature over the raw payload.
type hostedProvider struct {
	log        *zap.Logger
	secret     []byte
	successURL string
	cancelURL  string
}

func New(cfg config.Config, log *zap.Logger) billingdomain.Provider {
	return &hostedProvider{
		log:        log.Named("billing.provider"),
		secret:     []byte(cfg.BillingWebhookSecret),
		successURL: cfg.BillingSuccessURL,
		cancelURL:  cfg.BillingCancelURL,
	}
}

func (p *hostedProvider) CreateCheckoutSession(ctx context.Context, req billingdomain.CheckoutRequest) (string, error) {
	_ = ctx
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = p.successURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = p.cancelURL
	}

	q := url.Values{}
	q.Set("client_reference_id", req.OwnerID)
	q.Set("plan", req.Plan)
	q.Set("success_url", successURL)
	q.Set("cancel_url", cancelURL)
	return fmt.Sprintf("https://billing.opinio.dev/checkout?%s", q.Encode()), nil
}

func (p *hostedProvider) CreatePortalSession(ctx context.Context, customerRef string) (string, error) {
	_ = ctx
	if strings.TrimSpace(customerRef) == "" {
		return "", billingdomain.ErrUnavailable
	}
	return fmt.Sprintf("https://billing.opinio.dev/portal/%s", url.PathEscape(customerRef)), nil
}

func (p *hostedProvider) VerifyWebhook(payload []byte, signature string) (*billingdomain.Event, error) {
	signature = strings.TrimSpace(signature)
	if len(p.secret) == 0 || signature == "" {
		return nil, billingdomain.ErrBadSignature
	}

	mac := hmac.New(sha256.New, p.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		p.log.Warn("webhook signature mismatch")
		return nil, billingdomain.ErrBadSignature
	}

	var event billingdomain.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, billingdomain.ErrBadSignature
	}
	return &event, nil
}

// Sign computes the webhook signature for a payload. Exported for tests and
// local event replay tooling.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

var Module = fx.Module("billing.provider",
	fx.Provide(New),
)
