package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"repairdesk/internal/db"
	"repairdesk/internal/model"
	"repairdesk/internal/pubsub"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeStaleReview = "request:stale_review"
	TypeTaskDue     = "task:due"
	TypeStreamTrim  = "stream:trim"
)

// StaleReviewAfter is how long a request may sit in pending_review before
// operators get nudged.
const StaleReviewAfter = 72 * time.Hour

type JobServer struct {
	server *asynq.Server
	client *asynq.Client
	db     *db.Pool
	bus    *pubsub.Bus
	log    *zap.Logger
}

func NewJobServer(redisAddr string, dbPool *db.Pool, bus *pubsub.Bus, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server: server,
		client: client,
		db:     dbPool,
		bus:    bus,
		log:    log,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeStaleReview, js.handleStaleReview)
	mux.HandleFunc(TypeTaskDue, js.handleTaskDue)
	mux.HandleFunc(TypeStreamTrim, js.handleStreamTrim)

	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
	js.client.Close()
}

// handleStaleReview nudges operators about a request nobody has triaged.
// It only notifies; the request keeps its status.
func (js *JobServer) handleStaleReview(ctx context.Context, t *asynq.Task) error {
	requestID := string(t.Payload())

	req, err := js.db.Queries.GetRepairRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, db.ErrRequestNotFound) {
			return nil // Trashed in the meantime, nothing to nudge about.
		}
		return fmt.Errorf("failed to get request: %w", err)
	}

	if req.Status != string(model.RequestStatusPendingReview) {
		return nil
	}

	_ = js.bus.PublishAdmin(map[string]interface{}{
		"type":        "request.stale_review",
		"requestId":   requestID,
		"submittedAt": req.CreatedAt.Format(time.RFC3339),
	})

	js.log.Info("Stale review notification sent", zap.String("request_id", requestID))
	return nil
}

// handleTaskDue notifies the assignee and the request channel when a task
// reaches its due date without being done. Status is never written here;
// only people change task status.
func (js *JobServer) handleTaskDue(ctx context.Context, t *asynq.Task) error {
	taskID := string(t.Payload())

	task, err := js.db.Queries.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, db.ErrTaskNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get task: %w", err)
	}

	if task.Status == string(model.TaskStatusCompleted) || task.Status == string(model.TaskStatusCancelled) {
		return nil
	}

	event := map[string]interface{}{
		"type":   "task.due",
		"taskId": taskID,
	}
	if task.DueDate != nil {
		event["dueDate"] = task.DueDate.Format(time.RFC3339)
	}

	_ = js.bus.PublishTask(taskID, event)
	if task.RequestID != nil {
		_ = js.bus.PublishRequest(*task.RequestID, event)
	}

	js.log.Info("Task due notification sent", zap.String("task_id", taskID))
	return nil
}

// streamTrimPayload carries the channel and the cadence, so each run can
// schedule the next one.
type streamTrimPayload struct {
	Channel         string `json:"channel"`
	IntervalSeconds int64  `json:"intervalSeconds"`
}

// handleStreamTrim caps a channel's event journal, then re-enqueues itself
// so high-volume channels like admin:requests stay trimmed.
func (js *JobServer) handleStreamTrim(ctx context.Context, t *asynq.Task) error {
	var p streamTrimPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to decode trim payload: %w", err)
	}

	if err := js.bus.GetStreams().TrimStream(p.Channel, 1000); err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}

	next, delay := nextStreamTrim(p)
	if _, err := js.client.Enqueue(next, asynq.ProcessIn(delay), asynq.Queue("low")); err != nil {
		// Returning the error lets asynq retry; trimming twice is harmless.
		return fmt.Errorf("failed to schedule next trim: %w", err)
	}
	return nil
}

// nextStreamTrim builds the follow-up trim task for a channel.
func nextStreamTrim(p streamTrimPayload) (*asynq.Task, time.Duration) {
	payload, _ := json.Marshal(p)
	return asynq.NewTask(TypeStreamTrim, payload), time.Duration(p.IntervalSeconds) * time.Second
}

// Schedule helpers

func ScheduleStaleReview(client *asynq.Client, requestID string) error {
	task := asynq.NewTask(TypeStaleReview, []byte(requestID))
	_, err := client.Enqueue(task, asynq.ProcessIn(StaleReviewAfter), asynq.Queue("low"))
	return err
}

func ScheduleTaskDue(client *asynq.Client, taskID string, dueDate time.Time) error {
	if dueDate.Before(time.Now()) {
		return nil // Already past due, nothing to schedule.
	}

	task := asynq.NewTask(TypeTaskDue, []byte(taskID))
	_, err := client.Enqueue(task, asynq.ProcessIn(time.Until(dueDate)))
	return err
}

func ScheduleStreamTrim(client *asynq.Client, channel string, interval time.Duration) error {
	task, delay := nextStreamTrim(streamTrimPayload{
		Channel:         channel,
		IntervalSeconds: int64(interval / time.Second),
	})
	_, err := client.Enqueue(task, asynq.ProcessIn(delay), asynq.Queue("low"))
	return err
}
