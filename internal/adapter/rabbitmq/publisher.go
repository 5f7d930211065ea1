package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

// publisher keeps one channel open across publishes; the relay forwards every row change.
type publisher struct {
	conn Connection

	mu sync.Mutex
	ch Channel
}

func NewPublisher(conn Connection) interfaces.ChangePublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishChange(ctx context.Context, event domain.ChangeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	msg := amqp.Publishing{
		ContentType: "application/json",
		Type:        event.Table,
		Body:        body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// one retry on a fresh channel after the old one was closed under us
	for attempt := 0; attempt < 2; attempt++ {
		if err := p.ensureChannel(); err != nil {
			return err
		}
		err = p.ch.Publish(ChangesExchange, "", false, false, msg)
		if err == nil {
			return nil
		}
		_ = p.ch.Close()
		p.ch = nil
		if p.conn.IsClosed() {
			if rerr := p.conn.Reconnect(); rerr != nil {
				return rerr
			}
		}
	}
	return fmt.Errorf("failed to publish message: %w", err)
}

func (p *publisher) ensureChannel() error {
	if p.ch != nil {
		return nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareChanges(ch); err != nil {
		ch.Close()
		return err
	}
	p.ch = ch
	return nil
}
