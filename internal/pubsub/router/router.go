package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/academypay/academypay/internal/config"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/logger"
)

// Router manages all job message routing. Queue-level retry applies only to
// infrastructure errors; business aborts are settled by the handler wrapper
// before the retry middleware ever sees them.
type Router struct {
	router *message.Router
	logger *logger.Logger
	config *config.QueueConfig
}

// NewRouter creates a new message router
func NewRouter(cfg *config.Configuration, log *logger.Logger) (*Router, error) {
	wmLogger := logger.NewWatermillAdapter(log)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	poisonQueue, err := middleware.PoisonQueue(newDLQ(wmLogger), "billing_jobs_dlq")
	if err != nil {
		return nil, err
	}

	// Add middleware in correct order
	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,     // Recover from panics
		middleware.CorrelationID, // Add correlation IDs
		middleware.Retry{
			MaxRetries:          cfg.Queue.MaxRetries,
			InitialInterval:     cfg.Queue.InitialInterval,
			MaxInterval:         cfg.Queue.MaxInterval,
			Multiplier:          cfg.Queue.Multiplier,
			MaxElapsedTime:      cfg.Queue.MaxElapsedTime,
			RandomizationFactor: 0.5,
			Logger:              wmLogger,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				log.Infow("retrying message",
					"retry_number", retryNum,
					"max_retries", cfg.Queue.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: log,
		config: &cfg.Queue,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages. Business
// aborts returned by handlerFunc are logged and acked so one failing job
// never re-enters the queue or aborts the sweep that emitted it.
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
) {
	r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err == nil {
				return nil
			}

			if ierr.IsBusinessAbort(err) {
				r.logger.Infow("job settled without effect",
					"handler", handlerName,
					"code", ierr.ErrorCode(err),
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
					"reason", err.Error(),
				)
				return nil
			}

			r.logger.Errorw("handler failed",
				"handler", handlerName,
				"error", err,
				"correlation_id", middleware.MessageCorrelationID(msg),
				"message_uuid", msg.UUID,
			)
			return err
		},
	)
}

// Run starts the router
func (r *Router) Run() error {
	r.logger.Info("starting router")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return r.router.Run(ctx)
}

// Running returns a channel closed once the router is up. Used by tests.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing router")
	return r.router.Close()
}

func newDLQ(wmLogger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			Persistent: true,
		},
		wmLogger,
	)
}
