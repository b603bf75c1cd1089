package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"BondPulse/pkg/logger"
)

// QueueMode selects which halves of the queue a RedisQueue runs.
type QueueMode int

const (
	ModeProducerConsumer QueueMode = iota
	ModeProducerOnly
	ModeConsumerOnly
)

const (
	defaultKeyPrefix   = "bondpulse:queue"
	retryTickInterval  = 5 * time.Second
	consumeBlockWindow = 2 * time.Second
)

// RedisQueue moves Messages through a Redis list, parks failed ones in a
// sorted set until their retry delay elapses, and shunts exhausted ones
// onto a dead-letter list.
type RedisQueue struct {
	log    *logger.Logger
	cfg    *QueueConfig
	client *redis.Client
	mode   QueueMode

	keyPrefix string
	seq       atomic.Uint64

	mu   sync.RWMutex
	jobs map[string]Job

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// RedisQueueOption customizes a RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix overrides the Redis key namespace.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(q *RedisQueue) {
		if prefix != "" {
			q.keyPrefix = prefix
		}
	}
}

func NewRedisQueue(log *logger.Logger, cfg *QueueConfig, client *redis.Client, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	q := &RedisQueue{
		log:       log,
		cfg:       cfg,
		client:    client,
		mode:      mode,
		keyPrefix: defaultKeyPrefix,
		jobs:      make(map[string]Job),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RedisQueue) queueKey() string { return q.keyPrefix + ":messages" }
func (q *RedisQueue) retryKey() string { return q.keyPrefix + ":retry" }
func (q *RedisQueue) dlqKey() string   { return q.keyPrefix + ":dlq" }

func (q *RedisQueue) consumes() bool { return q.mode != ModeProducerOnly }
func (q *RedisQueue) produces() bool { return q.mode != ModeConsumerOnly }

// RegisterJob binds a job to its message type. Later registrations for
// the same type win.
func (q *RedisQueue) RegisterJob(job Job) {
	q.mu.Lock()
	q.jobs[job.Type()] = job
	q.mu.Unlock()
	q.log.Info("queue job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// RegisterJobs binds several jobs at once.
func (q *RedisQueue) RegisterJobs(jobs ...Job) {
	for _, j := range jobs {
		q.RegisterJob(j)
	}
}

// Start verifies connectivity and, in consuming modes, launches the
// worker pool and the retry pump.
func (q *RedisQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return nil
	}
	q.started = true
	q.mu.Unlock()

	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("queue redis ping: %w", err)
	}

	if !q.consumes() {
		q.log.Info("queue started in producer-only mode")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(runCtx, i)
	}
	q.wg.Add(1)
	go q.retryPump(runCtx)

	q.log.Info("queue started", logger.Int("workers", q.cfg.Workers))
	return nil
}

// Stop cancels the workers and waits for them, bounded by ctx.
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil
	}
	q.started = false
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info("queue stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishMessage wraps payload in a Message and pushes it.
func (q *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return q.Enqueue(ctx, &Message{Type: msgType, Payload: payload})
}

// Enqueue pushes a message onto the queue, stamping ID and timestamp
// when absent.
func (q *RedisQueue) Enqueue(ctx context.Context, msg *Message) error {
	if !q.produces() {
		return fmt.Errorf("queue is consumer-only")
	}
	if msg.ID == "" {
		msg.ID = q.nextID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}
	if err := q.client.LPush(ctx, q.queueKey(), data).Err(); err != nil {
		return fmt.Errorf("push queue message: %w", err)
	}
	return nil
}

func (q *RedisQueue) nextID() string {
	n := q.seq.Add(1)
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(n, 10)
}

func (q *RedisQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := q.client.BRPop(ctx, consumeBlockWindow, q.queueKey()).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			q.log.Error("queue pop failed", logger.Int("worker", id), logger.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}
		q.dispatch(ctx, id, []byte(res[1]))
	}
}

func (q *RedisQueue) dispatch(ctx context.Context, worker int, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		q.log.Error("queue message undecodable, dropping",
			logger.Int("worker", worker), logger.Error(err))
		return
	}

	q.mu.RLock()
	job, ok := q.jobs[msg.Type]
	q.mu.RUnlock()
	if !ok {
		q.log.Warn("no job for message type, dropping",
			logger.String("type", msg.Type), logger.String("id", msg.ID))
		return
	}

	if err := job.Handle(ctx, msg.Payload); err != nil {
		q.log.Error("job failed",
			logger.String("job", job.Name()),
			logger.String("id", msg.ID),
			logger.Int("attempt", msg.Attempts+1),
			logger.Error(err))
		q.retryOrBury(ctx, &msg)
		return
	}
}

// retryOrBury parks the message for a delayed retry, or moves it to the
// dead-letter list once the retry limit is spent.
func (q *RedisQueue) retryOrBury(ctx context.Context, msg *Message) {
	msg.Attempts++
	data, err := json.Marshal(msg)
	if err != nil {
		q.log.Error("marshal for retry failed", logger.String("id", msg.ID), logger.Error(err))
		return
	}

	if msg.Attempts >= q.cfg.RetryLimit {
		if err := q.client.LPush(ctx, q.dlqKey(), data).Err(); err != nil {
			q.log.Error("dead-letter push failed", logger.String("id", msg.ID), logger.Error(err))
		} else {
			q.log.Warn("message moved to dead-letter list",
				logger.String("id", msg.ID), logger.Int("attempts", msg.Attempts))
		}
		return
	}

	readyAt := float64(time.Now().Add(q.cfg.RetryDelay).Unix())
	if err := q.client.ZAdd(ctx, q.retryKey(), redis.Z{Score: readyAt, Member: data}).Err(); err != nil {
		q.log.Error("retry schedule failed", logger.String("id", msg.ID), logger.Error(err))
	}
}

// retryPump periodically moves due retries back onto the main queue.
func (q *RedisQueue) retryPump(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(retryTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.drainDueRetries(ctx)
		}
	}
}

func (q *RedisQueue) drainDueRetries(ctx context.Context) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := q.client.ZRangeByScore(ctx, q.retryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			q.log.Error("retry scan failed", logger.Error(err))
		}
		return
	}

	for _, member := range due {
		pipe := q.client.TxPipeline()
		pipe.ZRem(ctx, q.retryKey(), member)
		pipe.LPush(ctx, q.queueKey(), member)
		if _, err := pipe.Exec(ctx); err != nil {
			q.log.Error("retry requeue failed", logger.Error(err))
		}
	}
}

var _ QueueService = (*RedisQueue)(nil)
