package payments

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"abayaStore/domain"
)

// Gateway is one payment provider.
type Gateway interface {
	Name() string
	CreatePayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentIntent, error)
	VerifyWebhook(headers http.Header, body []byte) error
	ParseWebhook(body []byte) (domain.GatewayEvent, error)
	Refund(ctx context.Context, req domain.RefundRequest) (domain.RefundResult, error)
}

// SignatureVerifier is implemented by gateways whose checkout hands a signed
// result back to the browser.
type SignatureVerifier interface {
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

var ErrUnsupportedGateway = fmt.Errorf("%w: unsupported payment gateway", domain.ErrInvalidInput)

type Registry struct {
	gateways map[string]Gateway
	fallback string
}

func NewRegistry(defaultGateway string, gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways)), fallback: strings.ToLower(defaultGateway)}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// Get returns the named gateway, or the default one for an empty name.
func (r *Registry) Get(name string) (Gateway, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.fallback
	}
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGateway, name)
	}
	return g, nil
}

func (r *Registry) Default() (Gateway, error) {
	return r.Get("")
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
