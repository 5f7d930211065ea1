package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

// Notifier gives every dashboard subscription its own exclusive queue bound to the changes
// fanout. A subscription survives broker restarts: it retries every 5 seconds and reports
// each drop and recovery through OnStatus.
type Notifier struct {
	conn   Connection
	clock  clock.Clock
	logger logger.Logger
}

func NewNotifier(conn Connection, clk clock.Clock, logger logger.Logger) *Notifier {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Notifier{conn: conn, clock: clk, logger: logger}
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// Subscribe returns at once; the first connect happens in the background.
func (n *Notifier) Subscribe(ctx context.Context, req interfaces.SubscribeRequest) (interfaces.Subscription, error) {
	if req.OnChange == nil {
		return nil, fmt.Errorf("subscription %q has no change handler", req.Channel)
	}

	tables := make(map[string]bool, len(req.Tables))
	for _, t := range req.Tables {
		tables[t] = true
	}
	onStatus := req.OnStatus
	if onStatus == nil {
		onStatus = func(bool) {}
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	consumerTag := fmt.Sprintf("%s-%s", req.Channel, uuid.NewString())

	go func() {
		defer close(sub.done)
		n.run(subCtx, consumerTag, tables, req.OnChange, onStatus)
	}()
	return sub, nil
}

func (n *Notifier) run(ctx context.Context, tag string, tables map[string]bool, onChange interfaces.ChangeHandler, onStatus interfaces.StatusHandler) {
	for {
		connected, err := n.consume(ctx, tag, tables, onChange, onStatus)

		// Если контекст отменен - выходим
		if ctx.Err() != nil {
			return
		}
		// Failed before connecting, so no deferred status went out.
		if !connected {
			onStatus(false)
		}

		n.logger.Error("subscription_disconnected", "Change subscription lost, reconnecting in 5 seconds", "", map[string]interface{}{
			"consumer": tag,
		}, err)

		select {
		case <-ctx.Done():
			return
		case <-n.clock.After(reconnectDelay):
		}

		if n.conn.IsClosed() {
			if err := n.conn.Reconnect(); err != nil {
				n.logger.Error("rabbitmq_reconnect_failed", "Failed to reconnect to RabbitMQ", "", nil, err)
			}
		}
	}
}

// consume reports connected once its queue is bound and disconnected when it returns after
// having connected. The returned bool tells whether it got that far.
func (n *Notifier) consume(ctx context.Context, tag string, tables map[string]bool, onChange interfaces.ChangeHandler, onStatus interfaces.StatusHandler) (bool, error) {
	ch, err := n.conn.Channel()
	if err != nil {
		return false, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Отслеживаем закрытие канала
	closeChan := ch.NotifyClose()

	if err := declareChanges(ch); err != nil {
		return false, err
	}

	// Declare temporary exclusive queue
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return false, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", ChangesExchange, false, nil); err != nil {
		return false, fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, tag, true, true, false, false, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start consuming: %w", err)
	}

	onStatus(true)
	defer onStatus(false)

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return true, fmt.Errorf("channel closed: %w", err)
			}
			return true, fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return true, fmt.Errorf("messages channel closed")
			}

			var event domain.ChangeEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				n.logger.Error("message_parse_failed", "Failed to parse change message", "", nil, err)
				continue
			}
			if tables[event.Table] {
				onChange(event)
			}
		}
	}
}
