// Package mutation holds what every write path shares: turning failures into user-facing
// MutationErrors and recording successful writes in the audit trail.
package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

type Reporter struct {
	auth   interfaces.Authenticator
	audit  interfaces.AuditRecorder
	clock  clock.Clock
	logger logger.Logger
}

func NewReporter(auth interfaces.Authenticator, audit interfaces.AuditRecorder, clk clock.Clock, logger logger.Logger) *Reporter {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Reporter{
		auth:   auth,
		audit:  audit,
		clock:  clk,
		logger: logger,
	}
}

// Fail logs err and wraps it into a *domain.MutationError carrying a notification text.
func (r *Reporter) Fail(ctx context.Context, op, entity string, err error) error {
	var already *domain.MutationError
	if errors.As(err, &already) {
		return err
	}

	mErr := &domain.MutationError{
		Op:           op,
		Entity:       entity,
		Notification: Notification(op, entity, err),
		Err:          err,
	}
	r.logger.Error(op+"_"+entity+"_failed", fmt.Sprintf("Failed to %s %s", op, entity), "", map[string]interface{}{
		"notification": mErr.Notification,
	}, err)
	return mErr
}

// Done records a successful write. Audit failures are logged and never fail the write.
func (r *Reporter) Done(ctx context.Context, op, entity string, id uuid.UUID) {
	rec := domain.MutationRecord{
		Entity:     entity,
		Op:         op,
		EntityID:   id.String(),
		OccurredAt: r.clock.Now().UTC(),
	}
	if user := r.User(ctx); user != nil {
		rec.UserID = user.ID.String()
	}

	if err := r.audit.Record(ctx, rec); err != nil {
		r.logger.Error("audit_failed", "Failed to record mutation", "", map[string]interface{}{
			"entity":    entity,
			"op":        op,
			"entity_id": rec.EntityID,
		}, err)
	}
	r.logger.Debug(op+"_"+entity, fmt.Sprintf("%s %s", op, entity), "", map[string]interface{}{"id": rec.EntityID})
}

// User returns the acting user, or nil when nobody is signed in.
func (r *Reporter) User(ctx context.Context) *domain.User {
	user, err := r.auth.CurrentUser(ctx)
	if err != nil {
		return nil
	}
	return user
}

// Notification is the short text shown to the person whose action failed.
func Notification(op, entity string, err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("The %s no longer exists.", entity)
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return fmt.Sprintf("This %s can no longer be changed that way.", entity)
	case errors.Is(err, domain.ErrSessionClosed):
		return "The table session is already closed."
	case errors.Is(err, domain.ErrCapabilityDisabled):
		return "This feature is not enabled for the restaurant."
	case errors.Is(err, domain.ErrAuthMissing):
		return "Please sign in again."
	default:
		return fmt.Sprintf("Could not %s the %s. Please try again.", op, entity)
	}
}

// NopRecorder drops audit records.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, domain.MutationRecord) error { return nil }
