package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	stripe "github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"novalabs/internal/auth"
	"novalabs/internal/model"
)

func billingEvent(eventType string, payload string) stripe.Event {
	return stripe.Event{
		ID:   "evt_test_1",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

func TestBillingService_CheckoutCompleted(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		setupMock func(*MockUserRepository, *MockProjectRepository, *MockLoginTokenStore)
		wantErr   bool
	}{
		{
			name: "provisions user and project for new customer",
			payload: `{
				"id": "cs_test_1",
				"customer_details": {"email": "ana@example.com", "name": "Ana"},
				"metadata": {"plan": "galaxy", "utm_source": "instagram"}
			}`,
			setupMock: func(users *MockUserRepository, projects *MockProjectRepository, tokens *MockLoginTokenStore) {
				users.On("FindOrCreateByEmail", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Email == "ana@example.com" && u.Role == model.RoleUser
				})).Return(&model.User{ID: 7, Email: "ana@example.com"}, nil)
				projects.On("CreateForPlanIfAbsent", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
					return p.UserID == 7 &&
						p.Plan == model.PlanGalaxy &&
						p.Status == model.StatusEnDesarrollo &&
						p.Progress == 0 &&
						p.CurrentPhase == phaseInitialSetup
				})).Return(&model.Project{ID: 3, UserID: 7}, true, nil)
				tokens.On("Mint", mock.Anything, mock.MatchedBy(func(d auth.LoginTokenData) bool {
					return d.SessionID == "cs_test_1" && d.Email == "ana@example.com" && d.UTMSource == "instagram"
				})).Return("opaque-token", nil)
			},
		},
		{
			name: "redelivery converges without a second project",
			payload: `{
				"id": "cs_test_1",
				"customer_details": {"email": "ana@example.com", "name": "Ana"},
				"metadata": {"plan": "galaxy"}
			}`,
			setupMock: func(users *MockUserRepository, projects *MockProjectRepository, tokens *MockLoginTokenStore) {
				users.On("FindOrCreateByEmail", mock.Anything, mock.Anything).
					Return(&model.User{ID: 7, Email: "ana@example.com"}, nil)
				projects.On("CreateForPlanIfAbsent", mock.Anything, mock.Anything).
					Return(&model.Project{ID: 3, UserID: 7}, false, nil)
				tokens.On("Mint", mock.Anything, mock.Anything).Return("opaque-token", nil)
			},
		},
		{
			name:      "session without email is acknowledged untouched",
			payload:   `{"id": "cs_test_2", "metadata": {"plan": "rocket"}}`,
			setupMock: func(users *MockUserRepository, projects *MockProjectRepository, tokens *MockLoginTokenStore) {},
		},
		{
			name: "token mint failure surfaces for redelivery",
			payload: `{
				"id": "cs_test_3",
				"customer_email": "carlos@example.com"
			}`,
			setupMock: func(users *MockUserRepository, projects *MockProjectRepository, tokens *MockLoginTokenStore) {
				users.On("FindOrCreateByEmail", mock.Anything, mock.Anything).
					Return(&model.User{ID: 9, Email: "carlos@example.com"}, nil)
				projects.On("CreateForPlanIfAbsent", mock.Anything, mock.Anything).
					Return(&model.Project{ID: 4, UserID: 9}, true, nil)
				tokens.On("Mint", mock.Anything, mock.Anything).Return("", errors.New("redis down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			projects := new(MockProjectRepository)
			gateway := new(MockGateway)
			tokens := new(MockLoginTokenStore)
			tt.setupMock(users, projects, tokens)

			service := NewBillingService(users, projects, gateway, tokens)
			err := service.HandleEvent(context.Background(), billingEvent("checkout.session.completed", tt.payload))

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			users.AssertExpectations(t)
			projects.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}

func TestBillingService_SubscriptionCreated(t *testing.T) {
	activePayload := `{
		"id": "sub_1",
		"status": "active",
		"customer": {"id": "cus_1", "email": "lucia@example.com", "name": "Lucía"},
		"items": {"data": [{"price": {"product": {"id": "prod_NovaGalaxyM01"}}}]}
	}`

	t.Run("provisions project for active subscription", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		users.On("FindOrCreateByEmail", mock.Anything, mock.Anything).
			Return(&model.User{ID: 5, Email: "lucia@example.com"}, nil)
		projects.On("CreateForPlanIfAbsent", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
			return p.Plan == model.PlanGalaxy && p.Status == model.StatusEnDesarrollo
		})).Return(&model.Project{ID: 2, UserID: 5, Status: model.StatusEnDesarrollo}, true, nil)

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.created", activePayload))

		assert.NoError(t, err)
		projects.AssertExpectations(t)
	})

	t.Run("reactivates paused project on resubscribe", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		paused := &model.Project{ID: 2, UserID: 5, Status: model.StatusEnMantenimiento}
		users.On("FindOrCreateByEmail", mock.Anything, mock.Anything).
			Return(&model.User{ID: 5, Email: "lucia@example.com"}, nil)
		projects.On("CreateForPlanIfAbsent", mock.Anything, mock.Anything).Return(paused, false, nil)
		projects.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
			return p.ID == 2 && p.Status == model.StatusEnDesarrollo && p.CurrentPhase == phaseReactivated
		})).Return(nil)

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.created", activePayload))

		assert.NoError(t, err)
		projects.AssertExpectations(t)
	})

	t.Run("ignores incomplete subscription", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		payload := `{"id": "sub_2", "status": "incomplete", "customer": {"id": "cus_1", "email": "lucia@example.com"}}`
		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.created", payload))

		assert.NoError(t, err)
		users.AssertNotCalled(t, "FindOrCreateByEmail", mock.Anything, mock.Anything)
	})

	t.Run("unknown product falls back to rocket plan", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		payload := `{
			"id": "sub_3",
			"status": "active",
			"customer": {"id": "cus_1", "email": "lucia@example.com", "name": "Lucía"},
			"items": {"data": [{"price": {"product": {"id": "prod_Unknown"}}}]}
		}`
		users.On("FindOrCreateByEmail", mock.Anything, mock.Anything).
			Return(&model.User{ID: 5, Email: "lucia@example.com"}, nil)
		projects.On("CreateForPlanIfAbsent", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
			return p.Plan == model.PlanRocket
		})).Return(&model.Project{ID: 2, UserID: 5, Status: model.StatusEnDesarrollo}, true, nil)

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.created", payload))

		assert.NoError(t, err)
		projects.AssertExpectations(t)
	})

	t.Run("fetches unexpanded customer through the gateway", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		payload := `{
			"id": "sub_4",
			"status": "active",
			"customer": "cus_2",
			"items": {"data": [{"price": {"product": {"id": "prod_NovaRocketM01"}}}]}
		}`
		gateway.On("GetCustomer", mock.Anything, "cus_2").
			Return(&stripe.Customer{ID: "cus_2", Email: "pedro@example.com", Name: "Pedro"}, nil)
		users.On("FindOrCreateByEmail", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Email == "pedro@example.com"
		})).Return(&model.User{ID: 8, Email: "pedro@example.com"}, nil)
		projects.On("CreateForPlanIfAbsent", mock.Anything, mock.Anything).
			Return(&model.Project{ID: 6, UserID: 8, Status: model.StatusEnDesarrollo}, true, nil)

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.created", payload))

		assert.NoError(t, err)
		gateway.AssertExpectations(t)
		projects.AssertExpectations(t)
	})
}

func TestBillingService_SubscriptionDeleted(t *testing.T) {
	payload := `{"id": "sub_1", "customer": {"id": "cus_1", "email": "lucia@example.com", "name": "Lucía"}}`

	t.Run("pauses all active projects", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		users.On("FindByEmail", mock.Anything, "lucia@example.com").
			Return(&model.User{ID: 5, Email: "lucia@example.com"}, nil)
		projects.On("UpdateStatusForUser", mock.Anything, uint(5), model.ActiveStatuses(), model.StatusEnMantenimiento, phaseCanceled).
			Return(int64(2), nil)

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.deleted", payload))

		assert.NoError(t, err)
		projects.AssertExpectations(t)
	})

	t.Run("transient customer lookup failure fails the event for redelivery", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		unexpanded := `{"id": "sub_1", "customer": "cus_77"}`
		gateway.On("GetCustomer", mock.Anything, "cus_77").Return(nil, errors.New("network timeout"))

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.deleted", unexpanded))

		assert.Error(t, err)
		projects.AssertNotCalled(t, "UpdateStatusForUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("customer gone at the processor is acknowledged untouched", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		unexpanded := `{"id": "sub_1", "customer": "cus_77"}`
		gateway.On("GetCustomer", mock.Anything, "cus_77").Return(nil, &stripe.Error{
			Code:           stripe.ErrorCodeResourceMissing,
			HTTPStatusCode: 404,
		})

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.deleted", unexpanded))

		assert.NoError(t, err)
		projects.AssertNotCalled(t, "UpdateStatusForUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancellation for unknown user is a no-op", func(t *testing.T) {
		users := new(MockUserRepository)
		projects := new(MockProjectRepository)
		gateway := new(MockGateway)
		tokens := new(MockLoginTokenStore)

		users.On("FindByEmail", mock.Anything, "lucia@example.com").Return(nil, gorm.ErrRecordNotFound)

		service := NewBillingService(users, projects, gateway, tokens)
		err := service.HandleEvent(context.Background(), billingEvent("customer.subscription.deleted", payload))

		assert.NoError(t, err)
		projects.AssertNotCalled(t, "UpdateStatusForUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBillingService_InvoicePaymentFailed(t *testing.T) {
	users := new(MockUserRepository)
	projects := new(MockProjectRepository)
	gateway := new(MockGateway)
	tokens := new(MockLoginTokenStore)

	payload := `{"id": "in_1", "customer_email": "lucia@example.com"}`
	users.On("FindByEmail", mock.Anything, "lucia@example.com").
		Return(&model.User{ID: 5, Email: "lucia@example.com"}, nil)
	projects.On("AnnotatePhaseForUser", mock.Anything, uint(5), model.ActiveStatuses(), phasePaymentIssue).
		Return(int64(1), nil)

	service := NewBillingService(users, projects, gateway, tokens)
	err := service.HandleEvent(context.Background(), billingEvent("invoice.payment_failed", payload))

	assert.NoError(t, err)
	projects.AssertExpectations(t)
}

func TestBillingService_UnhandledEventAcknowledged(t *testing.T) {
	users := new(MockUserRepository)
	projects := new(MockProjectRepository)
	gateway := new(MockGateway)
	tokens := new(MockLoginTokenStore)

	service := NewBillingService(users, projects, gateway, tokens)
	err := service.HandleEvent(context.Background(), billingEvent("charge.refunded", `{}`))

	assert.NoError(t, err)
	users.AssertNotCalled(t, "FindOrCreateByEmail", mock.Anything, mock.Anything)
}
