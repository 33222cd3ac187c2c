package catalogevents_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/internal/config"
	"github.com/m04kA/salon-booking/internal/integrations/catalogevents"
	"github.com/m04kA/salon-booking/internal/usecase/generate_slots"
	"github.com/m04kA/salon-booking/pkg/logger"
)

type invalidator struct {
	mu    sync.Mutex
	calls int
}

func (i *invalidator) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
}

func (i *invalidator) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

type generator struct {
	mu   sync.Mutex
	err  error
	reqs []*generate_slots.Request
}

func (g *generator) Execute(_ context.Context, req *generate_slots.Request) (*generate_slots.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &generate_slots.Response{Created: 3}, nil
}

type acker struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
	rejects int
	done    chan struct{}
}

func newAcker() *acker { return &acker{done: make(chan struct{}, 8)} }

func (a *acker) Ack(uint64, bool) error {
	a.mu.Lock()
	a.acked++
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *acker) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	a.nacked++
	a.requeue = requeue
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *acker) Reject(uint64, bool) error {
	a.mu.Lock()
	a.rejects++
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *acker) wait(t *testing.T) {
	t.Helper()
	select {
	case <-a.done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not acknowledged")
	}
}

type channel struct {
	msgs     chan amqp.Delivery
	bound    []string
	closed   bool
	bindFail error
}

func newChannel() *channel { return &channel{msgs: make(chan amqp.Delivery, 4)} }

func (c *channel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp.Table) error {
	return nil
}

func (c *channel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (c *channel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	if c.bindFail != nil {
		return c.bindFail
	}
	c.bound = append(c.bound, exchange+"/"+key+"->"+name)
	return nil
}

func (c *channel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.msgs, nil
}

func (c *channel) Close() error {
	if !c.closed {
		c.closed = true
		close(c.msgs)
	}
	return nil
}

func rabbitConfig() config.RabbitMQConfig {
	return config.RabbitMQConfig{
		Enabled:    true,
		Exchange:   "catalog",
		Queue:      "salon-booking.catalog",
		BindingKey: "*.salon-booking.*.changed",
	}
}

func TestParseRoutingKey(t *testing.T) {
	key, err := catalogevents.ParseRoutingKey("admin.salon-booking.service.changed")
	require.NoError(t, err)
	assert.Equal(t, "admin", key.Source)
	assert.Equal(t, "salon-booking", key.Receiver)
	assert.Equal(t, catalogevents.ResourceService, key.Resource)

	for _, bad := range []string{"", "a.b.c", "a.b.service.deleted", "a..service.changed", "a.b.c.d.changed"} {
		_, err := catalogevents.ParseRoutingKey(bad)
		assert.ErrorIs(t, err, catalogevents.ErrInvalidRoutingKey, bad)
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name            string
		key             string
		genErr          error
		wantErr         error
		wantInvalidated int
		wantGenerated   int
	}{
		{name: "service change", key: "admin.salon-booking.service.changed", wantInvalidated: 1, wantGenerated: 1},
		{name: "hours change", key: "admin.salon-booking.businesshours.changed", wantInvalidated: 1, wantGenerated: 1},
		{name: "everything", key: "admin.salon-booking._all_.changed", wantInvalidated: 1, wantGenerated: 1},
		{name: "unknown resource ignored", key: "admin.salon-booking.gallery.changed"},
		{name: "bad key", key: "garbage", wantErr: catalogevents.ErrInvalidRoutingKey},
		{name: "lock busy is fine", key: "admin.salon-booking.service.changed",
			genErr: generate_slots.ErrGenerationInProgress, wantInvalidated: 1, wantGenerated: 1},
		{name: "generation failure", key: "admin.salon-booking.service.changed",
			genErr: generate_slots.ErrInternal, wantErr: generate_slots.ErrInternal, wantInvalidated: 1, wantGenerated: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &invalidator{}
			gen := &generator{err: tt.genErr}
			l := catalogevents.NewListenerWithChannel(rabbitConfig(), newChannel(), inv, gen, logger.Nop())

			err := l.Handle(context.Background(), tt.key)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantInvalidated, inv.count())
			require.Len(t, gen.reqs, tt.wantGenerated)
			for _, req := range gen.reqs {
				assert.False(t, req.Regenerate)
			}
		})
	}
}

func TestListener_AcknowledgesDeliveries(t *testing.T) {
	ch := newChannel()
	gen := &generator{}
	l := catalogevents.NewListenerWithChannel(rabbitConfig(), ch, &invalidator{}, gen, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))
	assert.Equal(t, []string{"catalog/*.salon-booking.*.changed->salon-booking.catalog"}, ch.bound)

	ok := newAcker()
	ch.msgs <- amqp.Delivery{Acknowledger: ok, RoutingKey: "admin.salon-booking.service.changed"}
	ok.wait(t)
	assert.Equal(t, 1, ok.acked)

	bad := newAcker()
	ch.msgs <- amqp.Delivery{Acknowledger: bad, RoutingKey: "nonsense"}
	bad.wait(t)
	assert.Equal(t, 1, bad.rejects)

	gen.mu.Lock()
	gen.err = errors.New("db down")
	gen.mu.Unlock()

	failed := newAcker()
	ch.msgs <- amqp.Delivery{Acknowledger: failed, RoutingKey: "admin.salon-booking.service.changed"}
	failed.wait(t)
	assert.Equal(t, 1, failed.nacked)
	assert.True(t, failed.requeue)

	l.Stop()
	assert.True(t, ch.closed)
}

func TestListener_StartSetupError(t *testing.T) {
	ch := newChannel()
	ch.bindFail = errors.New("access refused")
	l := catalogevents.NewListenerWithChannel(rabbitConfig(), ch, &invalidator{}, &generator{}, logger.Nop())

	err := l.Start(context.Background())
	require.ErrorIs(t, err, catalogevents.ErrSetup)
}
