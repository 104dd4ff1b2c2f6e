package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

const (
	publishTimeout = 5 * time.Second
	reconnectDelay = 5 * time.Second
)

// RabbitMQPublisher publishes persistent JSON messages to a durable topic
// exchange and reconnects when the connection drops.
type RabbitMQPublisher struct {
	url      string
	exchange string
	log      zerolog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan struct{}
	closed  bool
}

// NewRabbitMQPublisher dials the broker and declares the exchange.
func NewRabbitMQPublisher(url, exchange string, log zerolog.Logger) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{
		url:      url,
		exchange: exchange,
		log:      log.With().Str("component", "rabbitmq").Str("exchange", exchange).Logger(),
		done:     make(chan struct{}),
	}

	conn, channel, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.conn, p.channel = conn, channel

	go p.watch(conn)

	p.log.Info().Msg("publisher initialized")
	return p, nil
}

func (p *RabbitMQPublisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("opening channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declaring exchange: %w", err)
	}

	return conn, channel, nil
}

// watch redials whenever conn closes unexpectedly, until Close is called.
func (p *RabbitMQPublisher) watch(conn *amqp.Connection) {
	for {
		closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-p.done:
			return
		case closeErr, ok := <-closeCh:
			if !ok || closeErr == nil {
				return
			}
			p.log.Error().Err(closeErr).Msg("connection closed, reconnecting")
		}

		for {
			select {
			case <-p.done:
				return
			case <-time.After(reconnectDelay):
			}

			newConn, newChannel, err := p.dial()
			if err != nil {
				p.log.Error().Err(err).Msg("reconnect failed")
				continue
			}

			p.mu.Lock()
			if p.closed {
				p.mu.Unlock()
				newChannel.Close()
				newConn.Close()
				return
			}
			p.conn, p.channel = newConn, newChannel
			p.mu.Unlock()

			p.log.Info().Msg("reconnected")
			conn = newConn
			break
		}
	}
}

// Publish sends event as a persistent JSON message with routingKey.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	p.mu.RLock()
	channel, closed := p.channel, p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			MessageId:    uuid.NewString(),
		},
	)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", routingKey, err)
	}

	p.log.Debug().Str("routing_key", routingKey).Int("body_size", len(body)).Msg("event published")
	return nil
}

// HealthCheck reports whether the connection and channel are usable.
func (p *RabbitMQPublisher) HealthCheck() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	if p.channel == nil || p.channel.IsClosed() {
		return errors.New("rabbitmq channel is closed")
	}
	return nil
}

// Close stops reconnecting and closes the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	conn, channel := p.conn, p.channel
	p.mu.Unlock()

	if channel != nil {
		if err := channel.Close(); err != nil {
			p.log.Warn().Err(err).Msg("closing channel")
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			return fmt.Errorf("closing rabbitmq connection: %w", err)
		}
	}
	p.log.Info().Msg("publisher closed")
	return nil
}
