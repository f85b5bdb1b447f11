package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/pkg/logger"
)

const (
	TaskTypeReportWeekStatus = "report_week:status"
)

// Report week events delivered to the export collaborator.
const (
	EventReportWeekPublished   = "report_week.published"
	EventReportWeekUnpublished = "report_week.unpublished"
)

// ReportWeekTask is emitted after a publish or unpublish has committed.
type ReportWeekTask struct {
	Event          string     `json:"event"`
	ReportWeekID   string     `json:"report_week_id"`
	TenantID       uint       `json:"tenant_id"`
	WeekEndingDate string     `json:"week_ending_date"`
	PeriodStartAt  time.Time  `json:"period_start_at"`
	PeriodEndAt    time.Time  `json:"period_end_at"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	PublishedBy    *uint      `json:"published_by,omitempty"`
	ActorID        uint       `json:"actor_id"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// TaskProcessor handles one report week task.
type TaskProcessor func(context.Context, *ReportWeekTask) error

// TaskQueue defines the interface for report week event delivery
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *ReportWeekTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		globalTaskQueue = NewTaskQueue(cfg)
	})
	return globalTaskQueue
}

// NewTaskQueue picks asynq when Redis is reachable and the in-process queue
// otherwise.
func NewTaskQueue(cfg *config.Config) TaskQueue {
	if !cfg.Redis.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}
	queue, err := NewAsyncQueue(&cfg.Redis)
	if err != nil {
		logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
	return queue
}

func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := redisClientOpt(cfg)
	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (q *AsyncQueue) Enqueue(task *ReportWeekTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeReportWeekStatus, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, queue=%s, event=%s, report_week=%s",
		info.ID, info.Queue, task.Event, task.ReportWeekID)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue delivers tasks in a background goroutine of this process. It
// is used when Redis is disabled; tasks are lost on restart.
type SyncQueue struct {
	processor TaskProcessor
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor TaskProcessor) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *ReportWeekTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] No processor set, dropping %s for report week %s", task.Event, task.ReportWeekID)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] Task processing failed: %v", err)
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
