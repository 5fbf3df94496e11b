package pubsub

import (
	"context"
	"testing"
	"time"

	"dairy-subscription-service/internal/config"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ping struct {
	N int `json:"n"`
}

func TestMemoryRoundTrip(t *testing.T) {
	logger := zap.NewNop()
	ps := NewMemory(NewZapAdapter(logger))
	defer ps.Close()

	router, err := NewRouter(logger, NewZapAdapter(logger))
	require.NoError(t, err)

	got := make(chan ping, 1)
	router.AddConsumer("ping_consumer", "ping", ps.Subscriber(), func(msg *message.Message) error {
		var p ping
		if err := Decode(msg, &p); err != nil {
			return err
		}
		got <- p
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	require.NoError(t, ps.PublishJSON(ctx, "ping", ping{N: 7}))

	select {
	case p := <-got:
		assert.Equal(t, 7, p.N)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(config.AppConfig{PubSubDriver: "sqs"}, NewZapAdapter(zap.NewNop()))
	assert.Error(t, err)
}
