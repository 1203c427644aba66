package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type Sender interface {
	SendPasswordReset(ctx context.Context, msg PasswordReset) error
}

// AMQPPublisher кладет письма в очередь RabbitMQ.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
}

// NewAMQPPublisher подключается к брокеру и объявляет exchange и очередь.
func NewAMQPPublisher(url, exchange, queue string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	publisher := &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
	}

	if err := publisher.setup(); err != nil {
		publisher.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return publisher, nil
}

func (p *AMQPPublisher) setup() error {
	if err := p.channel.ExchangeDeclare(p.exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := p.channel.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key совпадает с именем очереди
	if err := p.channel.QueueBind(p.queue, p.queue, p.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// SendPasswordReset публикует письмо о сбросе пароля.
func (p *AMQPPublisher) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, p.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Type:         msg.Kind,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "password reset mail queued",
		slog.String("exchange", p.exchange),
		slog.String("queue", p.queue),
	)

	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogSender пишет письма в лог; используется, когда брокер не настроен.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.InfoContext(ctx, "password reset link issued",
		slog.String("kind", msg.Kind),
		slog.String("link", msg.Link),
		slog.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}
