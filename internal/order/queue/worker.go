package queue

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ordersys/platform/internal/platform"
)

// EnrolFunc forwards an item_uid to the Warranty service's enrol endpoint.
type EnrolFunc func(ctx context.Context, itemUID string) error

// Worker is the singleton background consumer described in spec §4.4: it
// drains the deferred enrolment queue and retries warranty enrolment until
// each delivery succeeds, coordinating with the health gate so it never
// hammers a warranty dependency known to be down.
//
// Its lifetime is the process's, not any inbound request's: ctx is captured
// once at construction (the same long-lived context cmd/order/main.go uses
// for graceful shutdown), never the per-request context of whichever
// purchase call happens to trigger EnsureStarted first.
type Worker struct {
	mu             sync.Mutex
	started        bool
	ctx            context.Context
	conn           *amqp.Connection
	queueName      string
	gate           *platform.Gate
	updateDuration time.Duration
	enrol          EnrolFunc
	logger         zerolog.Logger
}

// NewWorker creates a Worker bound to ctx for its entire run. It is not
// started until EnsureStarted is called.
func NewWorker(ctx context.Context, conn *amqp.Connection, queueName string, gate *platform.Gate, updateDuration time.Duration, enrol EnrolFunc, logger zerolog.Logger) *Worker {
	return &Worker{
		ctx:            ctx,
		conn:           conn,
		queueName:      queueName,
		gate:           gate,
		updateDuration: updateDuration,
		enrol:          enrol,
		logger:         logger.With().Str("component", "deferred_enrolment_worker").Logger(),
	}
}

// EnsureStarted starts the worker's consume loop the first time it is
// called; subsequent calls are no-ops. Serialised by the worker-handle
// mutex, matching the spec's "starting it races with purchase calls" note.
// It never takes a context from the caller: the worker always runs under
// the process-lifetime context it was constructed with.
func (w *Worker) EnsureStarted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.run(w.ctx)
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !w.gate.IsUp("warranty") {
			w.logger.Debug().Msg("warranty down, sleeping before recheck")
			time.Sleep(w.updateDuration)
			continue
		}

		w.consumeUntilFailure(ctx)
	}
}

// consumeUntilFailure declares and subscribes to the deferred queue, acking
// each delivery that enrols successfully. On the first enrol failure it
// stops consuming and leaves that delivery unacked so it redelivers once
// the channel closes, then control returns to run() to recheck health.
func (w *Worker) consumeUntilFailure(ctx context.Context) {
	ch, err := w.conn.Channel()
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to open channel")
		time.Sleep(w.updateDuration)
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to declare queue")
		return
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to start consuming")
		return
	}

	for d := range msgs {
		itemUID := string(d.Body)
		if err := w.enrol(ctx, itemUID); err != nil {
			w.logger.Warn().Err(err).Str("item_uid", itemUID).Msg("deferred enrolment failed, leaving unacked")
			return
		}
		if err := d.Ack(false); err != nil {
			w.logger.Error().Err(err).Str("item_uid", itemUID).Msg("failed to ack delivery")
			return
		}
		w.logger.Info().Str("item_uid", itemUID).Msg("deferred enrolment succeeded")
	}
}
