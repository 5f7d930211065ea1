package postgres_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/adapter/postgres"
	"github.com/YelzhanWeb/menuapp/internal/config"
	"github.com/YelzhanWeb/menuapp/internal/domain"
)

func TestDecodeChange(t *testing.T) {
	c := qt.New(t)
	id := uuid.New()

	event, err := postgres.DecodeChange([]byte(`{"table":"order_items","type":"UPDATE","id":"` + id.String() + `","occurred_at":"2024-05-01T10:00:00.123456+00:00"}`))
	c.Assert(err, qt.IsNil)
	c.Check(event.Table, qt.Equals, domain.TableOrderItems)
	c.Check(event.Type, qt.Equals, domain.ChangeUpdate)
	c.Check(event.RowID, qt.Equals, id)
	c.Check(event.OccurredAt.Year(), qt.Equals, 2024)
}

func TestDecodeChangeRejectsMalformed(t *testing.T) {
	c := qt.New(t)

	for _, payload := range []string{
		`not json`,
		`{"type":"UPDATE"}`,
		`{"table":"sessions","type":"TRUNCATE"}`,
	} {
		_, err := postgres.DecodeChange([]byte(payload))
		c.Check(err, qt.Not(qt.IsNil), qt.Commentf("payload %s", payload))
	}
}

func TestConnString(t *testing.T) {
	c := qt.New(t)
	got := postgres.ConnString(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "menu",
		Password: "secret",
		Database: "menu",
	})
	c.Check(got, qt.Equals, "host=db port=5433 user=menu password=secret dbname=menu sslmode=disable")
}
