// internal/pubsub/router.go
package pubsub

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Router dispatches subscribed topics to consumer handlers.
type Router struct {
	router *message.Router
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger, wmLogger watermill.LoggerAdapter) (*Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message router")
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			Logger:          wmLogger,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Warn("retrying message", zap.Int("retry_number", retryNum), zap.Duration("delay", delay))
			},
		}.Middleware,
	)

	return &Router{router: router, logger: logger}, nil
}

// AddConsumer registers a handler that does not publish follow-up messages.
func (r *Router) AddConsumer(name, topic string, subscriber message.Subscriber, handler func(msg *message.Message) error) {
	r.router.AddNoPublisherHandler(name, topic, subscriber, handler)
	r.logger.Info("registered consumer", zap.String("handler", name), zap.String("topic", topic))
}

// Run blocks until ctx is cancelled or the router is closed.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

func (r *Router) Close() error {
	return r.router.Close()
}
