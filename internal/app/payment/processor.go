// Package payment is the built-in checkout collaborator. It settles on the spot and keeps a
// payments row per checkout; a real provider plugs in behind interfaces.PaymentProcessor.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

type Processor struct {
	sessions    interfaces.SessionRepository
	restaurants interfaces.RestaurantRepository
	payments    interfaces.PaymentRepository
	logger      logger.Logger
}

func NewProcessor(
	sessions interfaces.SessionRepository,
	restaurants interfaces.RestaurantRepository,
	payments interfaces.PaymentRepository,
	logger logger.Logger,
) *Processor {
	return &Processor{
		sessions:    sessions,
		restaurants: restaurants,
		payments:    payments,
		logger:      logger,
	}
}

// ProcessPayment records the payment as succeeded. Online payments need the restaurant's
// online_payment capability.
func (p *Processor) ProcessPayment(ctx context.Context, sessionID uuid.UUID, method domain.PaymentMethod, amount decimal.Decimal) (*domain.PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, domain.Validationf("payment amount must be positive")
	}

	session, err := p.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if method == domain.PaymentOnline {
		restaurant, err := p.restaurants.FindByID(ctx, session.RestaurantID)
		if err != nil {
			return nil, fmt.Errorf("failed to find restaurant: %w", err)
		}
		caps, _ := domain.ResolveCapabilities(restaurant.Features)
		if !caps.Enabled(domain.CapabilityOnlinePayment) {
			return nil, fmt.Errorf("online payment: %w", domain.ErrCapabilityDisabled)
		}
	}

	payment := &domain.Payment{
		ID:        uuid.New(),
		SessionID: sessionID,
		Method:    method,
		Amount:    amount,
		Status:    domain.PaymentSucceeded,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	p.logger.Debug("payment_recorded", "Payment recorded", "", map[string]interface{}{
		"payment_id": payment.ID.String(),
		"session_id": sessionID.String(),
		"method":     string(method),
	})

	return &domain.PaymentResult{
		Success:   true,
		PaymentID: payment.ID,
		Amount:    amount,
	}, nil
}
