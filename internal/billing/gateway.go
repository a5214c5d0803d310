package billing

import (
	"context"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Gateway is the surface of the payment processor this system consumes.
// Admin reads are live passthroughs; nothing is cached locally.
type Gateway interface {
	GetCustomer(ctx context.Context, id string) (*stripe.Customer, error)
	GetProduct(ctx context.Context, id string) (*stripe.Product, error)
	ListSubscriptions(ctx context.Context, status string, limit int64) ([]*stripe.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

type stripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a Gateway over the official Stripe client.
func NewStripeGateway(secretKey string) Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeGateway{api: api}
}

func (g *stripeGateway) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	return g.api.Customers.Get(id, params)
}

func (g *stripeGateway) GetProduct(ctx context.Context, id string) (*stripe.Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	return g.api.Products.Get(id, params)
}

func (g *stripeGateway) ListSubscriptions(ctx context.Context, status string, limit int64) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.AddExpand("data.customer")
	if status != "" && status != "all" {
		params.Status = stripe.String(status)
	}

	var subs []*stripe.Subscription
	iter := g.api.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	return subs, iter.Err()
}

func (g *stripeGateway) UpdateSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if params == nil {
		params = &stripe.SubscriptionParams{}
	}
	params.Context = ctx
	return g.api.Subscriptions.Update(id, params)
}

func (g *stripeGateway) CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	return g.api.Subscriptions.Cancel(id, params)
}
