// Package events publishes user lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	domuser "example.com/technotes/app/internal/domain/user"
)

var (
	ErrClosed    = errors.New("publisher closed")
	ErrQueueFull = errors.New("publisher buffer full, event dropped")
)

const (
	defaultDialTimeout = 2 * time.Second
	defaultBuffer      = 256
	publishTimeout     = 5 * time.Second
)

type Config struct {
	URL   string
	Queue string
	// DialTimeout bounds the TCP connect and the AMQP handshake.
	DialTimeout time.Duration
	// Buffer is how many events may wait for the broker before Publish
	// starts dropping them.
	Buffer int
	Logger logrus.FieldLogger
}

// Publisher hands events to a background worker so callers never wait on
// the broker. The worker keeps one connection open and re-dials lazily
// after the broker drops it.
type Publisher struct {
	cfg Config
	log logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	queue  chan domuser.Event
	done   chan struct{}

	// owned by the worker goroutine
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(cfg Config) *Publisher {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Publisher{
		cfg:   cfg,
		log:   log,
		queue: make(chan domuser.Event, cfg.Buffer),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues evt and returns immediately. Delivery failures are
// logged by the worker.
func (p *Publisher) Publish(ctx context.Context, evt domuser.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the worker. Queued events are
// still sent over an open channel; they are dropped if it has to re-dial.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)
	for evt := range p.queue {
		if err := p.send(evt); err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"event":   evt.Type,
				"user_id": evt.UserID,
			}).Warn("deliver user event failed")
		}
	}
	if err := p.reset(); err != nil {
		p.log.WithError(err).Warn("close broker connection")
	}
}

func (p *Publisher) send(evt domuser.Event) error {
	body, err := Encode(evt)
	if err != nil {
		return err
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.OccurredAt,
		Type:         string(evt.Type),
		Body:         body,
	})
	if err != nil {
		_ = p.reset()
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	_ = p.reset()

	p.mu.RLock()
	closing := p.closed
	p.mu.RUnlock()
	if closing {
		return nil, ErrClosed
	}

	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.cfg.DialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.cfg.Queue, err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() error {
	var errs []error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		p.ch = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		p.conn = nil
	}
	return errors.Join(errs...)
}

// Encode renders the message body consumers receive.
func Encode(evt domuser.Event) ([]byte, error) {
	return json.Marshal(evt)
}
