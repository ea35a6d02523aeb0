// Package notify publishes event status changes as background tasks on Redis
// so mail delivery can happen outside the request and cron paths.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/model"
	"github.com/hibiken/asynq"
)

// TypeEventStatusChanged is the asynq task type for status changes.
const TypeEventStatusChanged = "event:status_changed"

const queueName = "notifications"

// StatusChangedPayload is the JSON body of a TypeEventStatusChanged task.
type StatusChangedPayload struct {
	EventUID     int64             `json:"event_uid"`
	Kind         model.Kind        `json:"kind"`
	Title        string            `json:"title"`
	Status       model.EventStatus `json:"status"`
	Start        time.Time         `json:"start,omitzero"`
	RegularSeats int               `json:"regular_seats"`
	WaitingList  int               `json:"waiting_list_seats"`
	MinimumSeats int               `json:"minimum_seats"`
	SeatsLimit   int               `json:"seats_limit"`
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Notifier enqueues status change tasks.
type Notifier struct {
	client enqueuer
	logger *slog.Logger
}

// RedisOptions addresses the Redis instance asynq talks to.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// New connects an asynq client to Redis.
func New(opts RedisOptions, logger *slog.Logger) *Notifier {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return newNotifier(client, logger)
}

func newNotifier(client enqueuer, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{client: client, logger: logger}
}

// NewStatusChangedTask builds the task for one event.
func NewStatusChangedTask(event model.Bookable, stats model.EventStatistics) (*asynq.Task, error) {
	title := event.Info().DisplayTitle
	if title == "" {
		title = event.Base().Title
	}
	payload, err := json.Marshal(StatusChangedPayload{
		EventUID:     event.Base().UID,
		Kind:         event.Kind(),
		Title:        title,
		Status:       event.Timing().Status,
		Start:        event.Timing().Start,
		RegularSeats: stats.RegularSeatsCount(),
		WaitingList:  stats.WaitingListSeatsCount(),
		MinimumSeats: stats.MinimumSeats(),
		SeatsLimit:   stats.SeatsLimit(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEventStatusChanged, payload), nil
}

// EventStatusChanged enqueues a TypeEventStatusChanged task.
func (n *Notifier) EventStatusChanged(ctx context.Context, event model.Bookable, stats model.EventStatistics) error {
	task, err := NewStatusChangedTask(event, stats)
	if err != nil {
		return fmt.Errorf("build status task: %w", err)
	}
	info, err := n.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue status task: %w", err)
	}
	n.logger.Debug("status change enqueued", "event_uid", event.Base().UID, "task_id", info.ID)
	return nil
}

// Close releases the Redis connection.
func (n *Notifier) Close() error {
	return n.client.Close()
}

// ParseStatusChanged decodes the payload of a TypeEventStatusChanged task for
// workers.
func ParseStatusChanged(task *asynq.Task) (StatusChangedPayload, error) {
	var p StatusChangedPayload
	if task.Type() != TypeEventStatusChanged {
		return p, fmt.Errorf("unexpected task type %q", task.Type())
	}
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode status task: %w", err)
	}
	return p, nil
}
