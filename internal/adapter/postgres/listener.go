package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/juju/clock"
	"gopkg.in/tomb.v2"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

const listenerRetryDelay = 5 * time.Second

type ListenerConfig struct {
	ConnString string
	Publisher  interfaces.ChangePublisher
	Logger     logger.Logger
	Clock      clock.Clock
	// OnStatus is told whenever the LISTEN connection comes up or goes down.
	OnStatus func(connected bool)
}

// Listener holds a dedicated connection in LISTEN on the trigger channel and forwards every
// notification to the publisher. It reconnects on its own until killed.
type Listener struct {
	tomb tomb.Tomb
	cfg  ListenerConfig
}

func NewListener(cfg ListenerConfig) *Listener {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.OnStatus == nil {
		cfg.OnStatus = func(bool) {}
	}
	l := &Listener{cfg: cfg}
	l.tomb.Go(l.loop)
	return l
}

func (l *Listener) Kill() {
	l.tomb.Kill(nil)
}

func (l *Listener) Wait() error {
	return l.tomb.Wait()
}

func (l *Listener) loop() error {
	ctx := l.tomb.Context(context.Background())
	for {
		err := l.listen(ctx)
		l.cfg.OnStatus(false)
		select {
		case <-l.tomb.Dying():
			return tomb.ErrDying
		default:
		}

		l.cfg.Logger.Error("listener_disconnected", "Lost change listener connection, retrying", "", map[string]interface{}{
			"retry_in": listenerRetryDelay.String(),
		}, err)

		select {
		case <-l.tomb.Dying():
			return tomb.ErrDying
		case <-l.cfg.Clock.After(listenerRetryDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.cfg.ConnString)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	l.cfg.OnStatus(true)
	l.cfg.Logger.Info("listener_started", "Listening for table changes", "", map[string]interface{}{
		"channel": ChangeChannel,
	})

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		event, err := DecodeChange([]byte(n.Payload))
		if err != nil {
			l.cfg.Logger.Error("change_decode_failed", "Skipping malformed change notification", "", map[string]interface{}{
				"payload": n.Payload,
			}, err)
			continue
		}
		if err := l.cfg.Publisher.PublishChange(ctx, event); err != nil {
			l.cfg.Logger.Error("change_publish_failed", "Failed to forward change", "", map[string]interface{}{
				"table": event.Table,
				"id":    event.RowID.String(),
			}, err)
		}
	}
}

// DecodeChange parses a trigger payload.
func DecodeChange(payload []byte) (domain.ChangeEvent, error) {
	var event domain.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("failed to decode change: %w", err)
	}
	if event.Table == "" {
		return event, fmt.Errorf("change without table: %s", payload)
	}
	switch event.Type {
	case domain.ChangeInsert, domain.ChangeUpdate, domain.ChangeDelete:
	default:
		return event, fmt.Errorf("unknown change type %q", event.Type)
	}
	return event, nil
}
