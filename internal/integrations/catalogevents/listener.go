package catalogevents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/salon-booking/internal/config"
	"github.com/m04kA/salon-booking/internal/usecase/generate_slots"
)

const consumerTag = "salon-booking-catalog"

// Channel подмножество *amqp.Channel, нужное слушателю
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Listener слушает события изменения каталога и пересобирает слоты
type Listener struct {
	cfg         config.RabbitMQConfig
	conn        *amqp.Connection
	channel     Channel
	invalidator CacheInvalidator
	generator   SlotGenerator
	logger      Logger

	wg sync.WaitGroup
}

// NewListener подключается к RabbitMQ и открывает канал
func NewListener(cfg config.RabbitMQConfig, invalidator CacheInvalidator, generator SlotGenerator, logger Logger) (*Listener, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %w", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %w", ErrConnect, err)
	}

	l := NewListenerWithChannel(cfg, ch, invalidator, generator, logger)
	l.conn = conn
	return l, nil
}

// NewListenerWithChannel создает слушателя поверх готового канала
func NewListenerWithChannel(cfg config.RabbitMQConfig, ch Channel, invalidator CacheInvalidator, generator SlotGenerator, logger Logger) *Listener {
	return &Listener{
		cfg:         cfg,
		channel:     ch,
		invalidator: invalidator,
		generator:   generator,
		logger:      logger,
	}
}

// Start объявляет exchange и очередь, подписывается и обрабатывает сообщения до отмены ctx
func (l *Listener) Start(ctx context.Context) error {
	if err := l.channel.ExchangeDeclare(l.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("%w: declare exchange %s: %w", ErrSetup, l.cfg.Exchange, err)
	}

	q, err := l.channel.QueueDeclare(l.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: declare queue %s: %w", ErrSetup, l.cfg.Queue, err)
	}

	if err := l.channel.QueueBind(q.Name, l.cfg.BindingKey, l.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("%w: bind queue %s: %w", ErrSetup, q.Name, err)
	}

	msgs, err := l.channel.Consume(q.Name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: consume %s: %w", ErrSetup, q.Name, err)
	}

	l.logger.Info("Catalog listener started: exchange=%s, queue=%s, binding=%s",
		l.cfg.Exchange, q.Name, l.cfg.BindingKey)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-ctx.Done():
				l.logger.Info("Catalog listener stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					l.logger.Warn("Catalog listener: delivery channel closed")
					return
				}
				l.process(ctx, msg)
			}
		}
	}()

	return nil
}

// process обрабатывает одно сообщение и подтверждает его
func (l *Listener) process(ctx context.Context, msg amqp.Delivery) {
	err := l.Handle(ctx, msg.RoutingKey)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			l.logger.Error("Catalog listener: failed to ack %s: %v", msg.RoutingKey, ackErr)
		}
	case errors.Is(err, ErrInvalidRoutingKey):
		// повтор не поможет
		l.logger.Warn("Catalog listener: dropping message: %v", err)
		if rejErr := msg.Reject(false); rejErr != nil {
			l.logger.Error("Catalog listener: failed to reject %s: %v", msg.RoutingKey, rejErr)
		}
	default:
		l.logger.Error("Catalog listener: failed to handle %s: %v", msg.RoutingKey, err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			l.logger.Error("Catalog listener: failed to nack %s: %v", msg.RoutingKey, nackErr)
		}
	}
}

// Handle сбрасывает кэш каталога и досоздает слоты по событию с ключом routingKey
func (l *Listener) Handle(ctx context.Context, routingKey string) error {
	key, err := ParseRoutingKey(routingKey)
	if err != nil {
		return err
	}

	if !key.Resource.Known() {
		l.logger.Info("Catalog listener: ignoring resource %q from %s", key.Resource, key.Source)
		return nil
	}

	l.logger.Info("Catalog listener: %s changed (source=%s)", key.Resource, key.Source)

	// 1. Сбрасываем кэш, чтобы генерация увидела новый каталог
	l.invalidator.Invalidate()

	// 2. Досоздаем слоты, существующие не трогаем
	resp, err := l.generator.Execute(ctx, &generate_slots.Request{})
	if err != nil {
		switch {
		case errors.Is(err, generate_slots.ErrGenerationInProgress):
			l.logger.Info("Catalog listener: generation already running, skipping")
			return nil
		case errors.Is(err, generate_slots.ErrNoActiveServices):
			l.logger.Warn("Catalog listener: no active services, nothing to generate")
			return nil
		default:
			return fmt.Errorf("generate slots: %w", err)
		}
	}

	l.logger.Info("Catalog listener: created %d slots after %s change", resp.Created, key.Resource)
	return nil
}

// Stop дожидается завершения обработки и закрывает канал и соединение
func (l *Listener) Stop() {
	if err := l.channel.Close(); err != nil {
		l.logger.Warn("Catalog listener: failed to close channel: %v", err)
	}
	l.wg.Wait()
	if l.conn != nil {
		if err := l.conn.Close(); err != nil {
			l.logger.Warn("Catalog listener: failed to close connection: %v", err)
		}
	}
}
