package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	stripe "github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"novalabs/internal/auth"
	"novalabs/internal/billing"
	"novalabs/internal/model"
	"novalabs/internal/repository"
)

// Phase labels written by billing transitions.
const (
	phaseInitialSetup = "Configuración inicial - esperando onboarding"
	phaseReactivated  = "Suscripción reactivada - retomando desarrollo"
	phaseCanceled     = "Suscripción cancelada - proyecto en pausa"
	phasePaymentIssue = "Problema con el pago - contactar soporte"
)

// BillingService consumes verified payment-processor events and drives
// idempotent user/project transitions. Re-processing the same event must
// converge on the same end state, since the processor redelivers on failure.
type BillingService interface {
	HandleEvent(ctx context.Context, event stripe.Event) error
}

type billingService struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	gateway  billing.Gateway
	tokens   auth.LoginTokenStore
}

// NewBillingService creates a new billing event service.
func NewBillingService(
	users repository.UserRepository,
	projects repository.ProjectRepository,
	gateway billing.Gateway,
	tokens auth.LoginTokenStore,
) BillingService {
	return &billingService{
		users:    users,
		projects: projects,
		gateway:  gateway,
		tokens:   tokens,
	}
}

func (s *billingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created":
		return s.handleSubscriptionCreated(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(ctx, event)
	default:
		log.Printf("billing: unhandled event type %s (%s), acknowledged", event.Type, event.ID)
		return nil
	}
}

func (s *billingService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	email, name := "", ""
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
		name = session.CustomerDetails.Name
	}
	if email == "" {
		email = session.CustomerEmail
	}
	if email == "" {
		// Orphaned or test session without an identity. Nothing to provision.
		log.Printf("billing: checkout %s has no customer email, skipping", session.ID)
		return nil
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	plan := billing.PlanFromMetadata(session.Metadata["plan"])

	user, err := s.users.FindOrCreateByEmail(ctx, &model.User{
		Email: email,
		Name:  name,
		Role:  model.RoleUser,
	})
	if err != nil {
		return fmt.Errorf("find or create user: %w", err)
	}

	project, created, err := s.projects.CreateForPlanIfAbsent(ctx, &model.Project{
		Name:              fmt.Sprintf("Sitio web de %s", name),
		UserID:            user.ID,
		Status:            model.StatusEnDesarrollo,
		Progress:          0,
		CurrentPhase:      phaseInitialSetup,
		EstimatedDelivery: plan.EstimatedDelivery,
		Plan:              plan.Type,
	})
	if err != nil {
		return fmt.Errorf("provision project: %w", err)
	}
	if created {
		log.Printf("billing: provisioned project %d (%s) for %s", project.ID, plan.Label, email)
	}

	token, err := s.tokens.Mint(ctx, auth.LoginTokenData{
		SessionID:   session.ID,
		Email:       email,
		Name:        name,
		Plan:        plan.Label,
		UTMSource:   session.Metadata["utm_source"],
		UTMMedium:   session.Metadata["utm_medium"],
		UTMCampaign: session.Metadata["utm_campaign"],
	})
	if err != nil {
		// Failing here makes the processor redeliver; provisioning above is idempotent.
		return fmt.Errorf("mint login token: %w", err)
	}
	_ = token // delivered to the client out of band, via the success page

	return nil
}

func (s *billingService) handleSubscriptionCreated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
		log.Printf("billing: subscription %s status %s, not provisioning", sub.ID, sub.Status)
		return nil
	}

	email, name, ok, err := s.resolveCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	plan, known := billing.PlanForProduct(subscriptionProductID(&sub))
	if !known {
		log.Printf("billing: unknown product %q on subscription %s, defaulting to %s", subscriptionProductID(&sub), sub.ID, plan.Label)
	}

	user, err := s.users.FindOrCreateByEmail(ctx, &model.User{
		Email: email,
		Name:  name,
		Role:  model.RoleUser,
	})
	if err != nil {
		return fmt.Errorf("find or create user: %w", err)
	}

	project, created, err := s.projects.CreateForPlanIfAbsent(ctx, &model.Project{
		Name:              fmt.Sprintf("Sitio web de %s", name),
		UserID:            user.ID,
		Status:            model.StatusEnDesarrollo,
		Progress:          0,
		CurrentPhase:      phaseInitialSetup,
		EstimatedDelivery: plan.EstimatedDelivery,
		Plan:              plan.Type,
	})
	if err != nil {
		return fmt.Errorf("provision project: %w", err)
	}

	if !created && project.Status == model.StatusEnMantenimiento {
		project.Status = model.StatusEnDesarrollo
		project.CurrentPhase = phaseReactivated
		if err := s.projects.Update(ctx, project); err != nil {
			return fmt.Errorf("reactivate project %d: %w", project.ID, err)
		}
		log.Printf("billing: reactivated project %d for %s", project.ID, email)
	}

	return nil
}

func (s *billingService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	email, _, ok, err := s.resolveCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Printf("billing: cancellation for unknown user %s, skipping", email)
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	paused, err := s.projects.UpdateStatusForUser(ctx, user.ID, model.ActiveStatuses(), model.StatusEnMantenimiento, phaseCanceled)
	if err != nil {
		return fmt.Errorf("pause projects: %w", err)
	}
	log.Printf("billing: subscription %s canceled, paused %d project(s) for %s", sub.ID, paused, email)
	return nil
}

func (s *billingService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}

	email := invoice.CustomerEmail
	if email == "" {
		resolved, _, ok, err := s.resolveCustomer(ctx, invoice.Customer)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		email = resolved
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Printf("billing: payment failure for unknown user %s, skipping", email)
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	annotated, err := s.projects.AnnotatePhaseForUser(ctx, user.ID, model.ActiveStatuses(), phasePaymentIssue)
	if err != nil {
		return fmt.Errorf("annotate projects: %w", err)
	}
	log.Printf("billing: payment failed for %s, annotated %d project(s)", email, annotated)
	return nil
}

// resolveCustomer fetches the processor-side customer behind an event.
// Missing or deleted customers are a silent no-op (ok=false), since orphaned
// and test events reference customers that no longer exist.
func (s *billingService) resolveCustomer(ctx context.Context, ref *stripe.Customer) (email, name string, ok bool, err error) {
	if ref == nil || ref.ID == "" {
		return "", "", false, nil
	}
	if ref.Email != "" {
		// Already expanded on the event.
		return ref.Email, ref.Name, true, nil
	}

	customer, err := s.gateway.GetCustomer(ctx, ref.ID)
	if err != nil {
		if isCustomerGone(err) {
			log.Printf("billing: customer %s no longer exists, skipping event", ref.ID)
			return "", "", false, nil
		}
		// Transient failure: surface it so the processor redelivers.
		return "", "", false, fmt.Errorf("lookup customer %s: %w", ref.ID, err)
	}
	if customer == nil || customer.Deleted || customer.Email == "" {
		log.Printf("billing: customer %s missing or deleted, skipping event", ref.ID)
		return "", "", false, nil
	}

	name = customer.Name
	if name == "" {
		name = strings.Split(customer.Email, "@")[0]
	}
	return customer.Email, name, true, nil
}

// isCustomerGone reports whether the processor says the customer does not
// exist anymore, as opposed to the lookup itself failing.
func isCustomerGone(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == 404
}

func subscriptionProductID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	price := sub.Items.Data[0].Price
	if price == nil || price.Product == nil {
		return ""
	}
	return price.Product.ID
}
