package communicator

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/bilal/speedcheck/internal/config"
	"github.com/bilal/speedcheck/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxBatch = 100

// Sink delivers a batch of reports somewhere outside the process.
type Sink interface {
	Name() string
	Publish(ctx context.Context, batch []Report) error
}

// Communicator publishes reports to its sinks with retries and buffering.
type Communicator struct {
	sinks        []Sink
	queue        chan Report
	wg           sync.WaitGroup
	sendInterval time.Duration
	maxQueue     int
	maxAttempts  int
	baseDelay    time.Duration
	ctx          context.Context
	cancel       context.CancelFunc

	// deadline handed over by Shutdown for the final drain
	drain chan context.Context
}

// drainTimeout bounds the final flush when the loop stops without Shutdown.
const drainTimeout = 10 * time.Second

// New builds a Communicator. Nothing is sent until Start.
func New(cfg config.PublishConfig, sinks ...Sink) *Communicator {
	maxQ := cfg.MaxQueueSize
	if maxQ <= 0 {
		maxQ = 1000
	}
	interval := time.Duration(cfg.SendIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Communicator{
		sinks:        sinks,
		queue:        make(chan Report, maxQ),
		sendInterval: interval,
		maxQueue:     maxQ,
		maxAttempts:  6,
		baseDelay:    500 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
		drain:        make(chan context.Context, 1),
	}
}

// Start runs the batching loop in the background. Call once.
func (c *Communicator) Start() {
	c.wg.Add(1)
	go c.loop()

	names := make([]string, 0, len(c.sinks))
	for _, s := range c.sinks {
		names = append(names, s.Name())
	}
	log.Info().Int("queue_capacity", c.maxQueue).Strs("sinks", names).Msg("communicator started")
}

// Shutdown stops the loop and waits for it to publish what is still queued.
// Retries of that last batch give up when ctx ends.
func (c *Communicator) Shutdown(ctx context.Context) {
	log.Info().Msg("communicator shutdown initiated")
	select {
	case c.drain <- ctx:
	default:
	}
	c.cancel()

	stopped := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Info().Msg("communicator shutdown complete")
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("communicator shutdown timed out, pending reports abandoned")
	}
}

// Send queues r without blocking. A full queue loses its oldest report.
func (c *Communicator) Send(r Report) {
	if r.CorrelationID == "" {
		r.CorrelationID = uuid.New().String()
	}

	select {
	case c.queue <- r:
		return
	default:
	}

	select {
	case old := <-c.queue:
		log.Warn().Str("session", old.SessionID).Msg("queue full, dropping oldest report")
	default:
	}
	select {
	case c.queue <- r:
	default:
		log.Warn().Str("session", r.SessionID).Msg("report dropped: queue full")
	}
}

func (c *Communicator) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sendInterval)
	defer ticker.Stop()

	pending := make([]Report, 0, maxBatch)
	publish := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		c.flush(ctx, pending)
		pending = pending[:0]
	}

	for {
		select {
		case r := <-c.queue:
			pending = append(pending, r)
			if len(pending) >= maxBatch {
				publish(c.ctx)
			}
		case <-ticker.C:
			publish(c.ctx)
		case <-c.ctx.Done():
		drained:
			for {
				select {
				case r := <-c.queue:
					pending = append(pending, r)
				default:
					break drained
				}
			}
			ctx, cancel := c.drainContext()
			publish(ctx)
			cancel()
			return
		}
	}
}

// drainContext is the Shutdown deadline when one was given.
func (c *Communicator) drainContext() (context.Context, context.CancelFunc) {
	select {
	case ctx := <-c.drain:
		return context.WithCancel(ctx)
	default:
		return context.WithTimeout(context.Background(), drainTimeout)
	}
}

func (c *Communicator) flush(ctx context.Context, items []Report) {
	for _, s := range c.sinks {
		c.flushWithRetry(ctx, s, items)
	}
}

// flushWithRetry publishes items to s, backing off exponentially with jitter
// until maxAttempts or ctx ends.
func (c *Communicator) flushWithRetry(ctx context.Context, s Sink, items []Report) {
	for attempt := 1; ; attempt++ {
		err := s.Publish(ctx, items)
		if err == nil {
			log.Info().Str("sink", s.Name()).Int("count", len(items)).Str("correlation", items[0].CorrelationID).Msg("reports published")
			return
		}
		log.Warn().Err(err).Str("sink", s.Name()).Int("attempt", attempt).Int("count", len(items)).Msg("report publish failed")

		if attempt >= c.maxAttempts {
			log.Error().Str("sink", s.Name()).Int("attempts", attempt).Msg("giving up on report batch")
			metrics.PublishFailed(s.Name())
			return
		}

		wait := time.Duration(math.Pow(2, float64(attempt-1)))*c.baseDelay +
			time.Duration(rand.Int63n(int64(c.baseDelay)))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Str("sink", s.Name()).Msg("report batch abandoned during backoff")
			metrics.PublishFailed(s.Name())
			return
		}
	}
}
