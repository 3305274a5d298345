package service

import (
	"time"

	"repairdesk/internal/jobs"

	"github.com/hibiken/asynq"
)

// JobClient schedules background notifications. Services depend on this
// interface so tests can stub scheduling out.
type JobClient interface {
	ScheduleStaleReview(requestID string) error
	ScheduleTaskDue(taskID string, dueDate time.Time) error
}

// AsynqJobClient implements JobClient using asynq.
type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(client *asynq.Client) *AsynqJobClient {
	return &AsynqJobClient{client: client}
}

func (c *AsynqJobClient) ScheduleStaleReview(requestID string) error {
	return jobs.ScheduleStaleReview(c.client, requestID)
}

func (c *AsynqJobClient) ScheduleTaskDue(taskID string, dueDate time.Time) error {
	return jobs.ScheduleTaskDue(c.client, taskID, dueDate)
}
