package mutation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/juju/clock/testclock"

	"github.com/YelzhanWeb/menuapp/internal/adapter/auth"
	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/app/mutation"
	"github.com/YelzhanWeb/menuapp/internal/domain"
)

type records []domain.MutationRecord

func (r *records) Record(_ context.Context, rec domain.MutationRecord) error {
	*r = append(*r, rec)
	return nil
}

func TestDoneStampsRecordsFromClock(t *testing.T) {
	c := qt.New(t)
	now := time.Date(2024, 3, 9, 18, 30, 0, 0, time.FixedZone("UTC+5", 5*60*60))
	clk := testclock.NewClock(now)
	var audit records
	r := mutation.NewReporter(auth.ContextAuthenticator{}, &audit, clk, logger.Nop())

	user := &domain.User{ID: uuid.New()}
	id := uuid.New()
	r.Done(auth.WithUser(context.Background(), user), "submit", "session", id)
	clk.Advance(time.Minute)
	r.Done(context.Background(), "delete", "order item", id)

	c.Assert(audit, qt.HasLen, 2)
	c.Check(audit[0], qt.DeepEquals, domain.MutationRecord{
		Entity:     "session",
		Op:         "submit",
		EntityID:   id.String(),
		UserID:     user.ID.String(),
		OccurredAt: now.UTC(),
	})
	c.Check(audit[1].UserID, qt.Equals, "")
	c.Check(audit[1].OccurredAt.Equal(now.Add(time.Minute)), qt.IsTrue)
}

func TestFailWrapsOnceAndSkipsAudit(t *testing.T) {
	c := qt.New(t)
	var audit records
	r := mutation.NewReporter(auth.ContextAuthenticator{}, &audit, nil, logger.Nop())

	err := r.Fail(context.Background(), "close", "session", domain.ErrSessionClosed)
	var mErr *domain.MutationError
	c.Assert(errors.As(err, &mErr), qt.IsTrue)
	c.Check(mErr.Notification, qt.Equals, "The table session is already closed.")
	c.Check(r.Fail(context.Background(), "checkout", "session", err), qt.Equals, err)
	c.Check(audit, qt.HasLen, 0)
}
