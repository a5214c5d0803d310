package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"novalabs/internal/billing"
	apperrors "novalabs/internal/errors"
	"novalabs/internal/repository"
)

// Subscription management actions.
const (
	ActionCancel              = "cancel"
	ActionReactivate          = "reactivate"
	ActionCancelImmediately   = "cancel_immediately"
	ActionUpdatePaymentMethod = "update_payment_method"
)

// SubscriptionCustomer is the processor-side identity on a subscription view.
type SubscriptionCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LocalUserSummary is the best-effort lookup of the matching local account.
type LocalUserSummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ProjectCount int64  `json:"project_count"`
}

// SubscriptionView is one processor subscription enriched with customer,
// product and local-user data. Error is set when enrichment failed for this
// entry; sibling entries are unaffected.
type SubscriptionView struct {
	ID                string               `json:"id"`
	Status            string               `json:"status"`
	Customer          SubscriptionCustomer `json:"customer"`
	Plan              string               `json:"plan"`
	ProductID         string               `json:"product_id,omitempty"`
	Amount            decimal.Decimal      `json:"amount"`
	Currency          string               `json:"currency"`
	Interval          string               `json:"interval"`
	CurrentPeriodEnd  time.Time            `json:"current_period_end"`
	CancelAtPeriodEnd bool                 `json:"cancel_at_period_end"`
	LocalUser         *LocalUserSummary    `json:"local_user,omitempty"`
	Error             string               `json:"error,omitempty"`
}

// SubscriptionStats aggregates over the fetched page only; the processor owns
// the full population. FetchedCount lets callers see the page size applied.
type SubscriptionStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	MonthlyRevenue decimal.Decimal  `json:"monthly_revenue"`
	FetchedCount   int              `json:"fetched_count"`
}

// SubscriptionListResult is the admin list response body.
type SubscriptionListResult struct {
	Subscriptions []SubscriptionView `json:"subscriptions"`
	Stats         SubscriptionStats  `json:"stats"`
}

// ManageParams carries action-specific parameters.
type ManageParams struct {
	PaymentMethodID string
}

// ManagedSubscription is the post-action state. PendingSync is always true:
// local project status only changes when the asynchronous webhook lands.
type ManagedSubscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	PendingSync       bool   `json:"pending_sync"`
}

// SubscriptionService exposes the admin subscription operations. All reads and
// writes go straight to the processor; nothing is cached locally.
type SubscriptionService interface {
	List(ctx context.Context, status string, limit int64) (*SubscriptionListResult, error)
	Manage(ctx context.Context, action, subscriptionID string, params ManageParams) (*ManagedSubscription, error)
}

type subscriptionService struct {
	gateway  billing.Gateway
	users    repository.UserRepository
	projects repository.ProjectRepository
}

// NewSubscriptionService builds a SubscriptionService.
func NewSubscriptionService(gateway billing.Gateway, users repository.UserRepository, projects repository.ProjectRepository) SubscriptionService {
	return &subscriptionService{gateway: gateway, users: users, projects: projects}
}

func (s *subscriptionService) List(ctx context.Context, status string, limit int64) (*SubscriptionListResult, error) {
	if limit < 1 {
		limit = 50
	}
	subs, err := s.gateway.ListSubscriptions(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	views := make([]SubscriptionView, 0, len(subs))
	byStatus := make(map[string]int64)
	revenue := decimal.Zero
	for _, sub := range subs {
		view := s.enrich(ctx, sub)
		views = append(views, view)
		byStatus[view.Status]++
		if sub.Status == stripe.SubscriptionStatusActive {
			revenue = revenue.Add(monthlyAmount(sub))
		}
	}

	return &SubscriptionListResult{
		Subscriptions: views,
		Stats: SubscriptionStats{
			Total:          int64(len(views)),
			ByStatus:       byStatus,
			MonthlyRevenue: revenue,
			FetchedCount:   len(views),
		},
	}, nil
}

// enrich fills in customer, product and local-user data for one subscription.
// Failures stay on the entry; the rest of the list still succeeds.
func (s *subscriptionService) enrich(ctx context.Context, sub *stripe.Subscription) SubscriptionView {
	view := SubscriptionView{
		ID:                sub.ID,
		Status:            string(sub.Status),
		Customer:          SubscriptionCustomer{ID: "", Email: "N/A", Name: "N/A"},
		Plan:              "N/A",
		Amount:            decimal.Zero,
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		view.Amount = decimal.NewFromInt(price.UnitAmount).Div(decimal.NewFromInt(100))
		view.Currency = string(price.Currency)
		if price.Recurring != nil {
			view.Interval = string(price.Recurring.Interval)
		}
		if price.Product != nil {
			view.ProductID = price.Product.ID
			plan, _ := billing.PlanForProduct(price.Product.ID)
			view.Plan = plan.Label
			if product, err := s.gateway.GetProduct(ctx, price.Product.ID); err != nil {
				view.Error = fmt.Sprintf("product lookup failed: %v", err)
			} else if product.Name != "" {
				view.Plan = product.Name
			}
		}
	}

	if sub.Customer == nil {
		return view
	}
	view.Customer.ID = sub.Customer.ID
	customer := sub.Customer
	if customer.Email == "" {
		// Not expanded; fetch it.
		fetched, err := s.gateway.GetCustomer(ctx, sub.Customer.ID)
		if err != nil {
			view.Error = fmt.Sprintf("customer lookup failed: %v", err)
			return view
		}
		customer = fetched
	}
	if customer.Deleted {
		return view
	}
	view.Customer.Email = customer.Email
	view.Customer.Name = customer.Name

	user, err := s.users.FindByEmail(ctx, customer.Email)
	if err != nil {
		// No local account is normal for processor-only customers.
		if err != gorm.ErrRecordNotFound {
			view.Error = fmt.Sprintf("local user lookup failed: %v", err)
		}
		return view
	}
	count, err := s.projects.CountByUser(ctx, user.ID)
	if err != nil {
		view.Error = fmt.Sprintf("project count failed: %v", err)
		count = 0
	}
	view.LocalUser = &LocalUserSummary{ID: user.ID, Name: user.Name, ProjectCount: count}
	return view
}

func (s *subscriptionService) Manage(ctx context.Context, action, subscriptionID string, params ManageParams) (*ManagedSubscription, error) {
	var (
		sub *stripe.Subscription
		err error
	)

	switch action {
	case ActionCancel:
		sub, err = s.gateway.UpdateSubscription(ctx, subscriptionID, &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		})
	case ActionReactivate:
		sub, err = s.gateway.UpdateSubscription(ctx, subscriptionID, &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(false),
		})
	case ActionCancelImmediately:
		sub, err = s.gateway.CancelSubscription(ctx, subscriptionID)
	case ActionUpdatePaymentMethod:
		if params.PaymentMethodID == "" {
			return nil, apperrors.ErrInvalidAction
		}
		sub, err = s.gateway.UpdateSubscription(ctx, subscriptionID, &stripe.SubscriptionParams{
			DefaultPaymentMethod: stripe.String(params.PaymentMethodID),
		})
	default:
		return nil, apperrors.ErrInvalidAction
	}
	if err != nil {
		return nil, fmt.Errorf("%s subscription %s: %w", action, subscriptionID, err)
	}

	return &ManagedSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		PendingSync:       true,
	}, nil
}

// monthlyAmount normalizes a subscription price to its monthly equivalent.
func monthlyAmount(sub *stripe.Subscription) decimal.Decimal {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return decimal.Zero
	}
	price := sub.Items.Data[0].Price
	amount := decimal.NewFromInt(price.UnitAmount).Div(decimal.NewFromInt(100))
	if price.Recurring != nil && price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
		return amount.Div(decimal.NewFromInt(12))
	}
	return amount
}
