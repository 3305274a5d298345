package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"repairdesk/internal/db"
	"repairdesk/internal/model"
	"repairdesk/internal/schema"

	"github.com/oklog/ulid/v2"
)

type TaskService struct {
	queries   *db.Queries
	validator *schema.Validator
	bus       EventBus
	jobClient JobClient
}

func NewTaskService(queries *db.Queries, validator *schema.Validator, bus EventBus) *TaskService {
	return &TaskService{
		queries:   queries,
		validator: validator,
		bus:       bus,
	}
}

func (s *TaskService) SetJobClient(client JobClient) {
	s.jobClient = client
}

// TaskLine is one line of operator notes to derive a task from.
type TaskLine struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	AssigneeID  string  `json:"assigneeId"`
}

// lineKey identifies a note line within its request. The same line at the
// same position always produces the same key, so replaying a derivation
// cannot create duplicate tasks.
func lineKey(requestID string, index int, description string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", requestID, index, strings.TrimSpace(description))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// DeriveResult reports what a derivation run did.
type DeriveResult struct {
	Created []*model.Task `json:"created"`
	Skipped int           `json:"skipped"`
}

// DeriveTasks turns note lines into tasks, one per line. Lines already
// derived in an earlier run are skipped, not duplicated.
func (s *TaskService) DeriveTasks(ctx context.Context, requestID string, lines []TaskLine) (*DeriveResult, error) {
	req, err := s.queries.GetRepairRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	payload := make([]interface{}, 0, len(lines))
	for _, line := range lines {
		entry := map[string]interface{}{
			"description": line.Description,
			"cost":        line.Cost,
		}
		if line.AssigneeID != "" {
			entry["assignee_id"] = line.AssigneeID
		}
		payload = append(payload, entry)
	}
	if err := s.validator.ValidateTaskLines(ctx, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &DeriveResult{}
	for i, line := range lines {
		var assignee *string
		if line.AssigneeID != "" {
			if _, err := s.queries.GetUserByID(ctx, line.AssigneeID); err != nil {
				return nil, fmt.Errorf("%w: assignee %s: %v", ErrInvalidInput, line.AssigneeID, err)
			}
			assignee = &line.AssigneeID
		}

		key := lineKey(requestID, i, line.Description)
		status := model.TaskStatusPending
		if assignee != nil {
			status = model.TaskStatusAssigned
		}

		task, inserted, err := s.queries.CreateTaskIfNewLine(ctx, db.CreateTaskParams{
			ID:          ulid.Make().String(),
			RequestID:   &requestID,
			Description: strings.TrimSpace(line.Description),
			Cost:        line.Cost,
			AssigneeID:  assignee,
			Status:      string(status),
			Priority:    req.Priority,
			LineKey:     &key,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to derive task: %w", err)
		}
		if !inserted {
			result.Skipped++
			continue
		}
		result.Created = append(result.Created, dbTaskToModel(task))
	}

	if len(result.Created) > 0 {
		_ = s.bus.PublishRequest(requestID, map[string]interface{}{
			"type":      "tasks.derived",
			"requestId": requestID,
			"count":     len(result.Created),
		})
	}

	return result, nil
}

type CreateTaskInput struct {
	RequestID   string     `json:"requestId"`
	Description string     `json:"description"`
	Cost        float64    `json:"cost"`
	AssigneeID  string     `json:"assigneeId"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// CreateTask creates a standalone task. Unlike derivation it has no line
// key, so repeated calls create repeated tasks.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if input.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must be non-negative", ErrInvalidInput)
	}

	priority := input.Priority
	if priority == "" {
		priority = string(model.PriorityMedium)
	}
	if !model.ValidPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %s", ErrInvalidInput, priority)
	}

	var requestID *string
	if input.RequestID != "" {
		if _, err := s.queries.GetRepairRequestByID(ctx, input.RequestID); err != nil {
			return nil, err
		}
		requestID = &input.RequestID
	}

	var assignee *string
	status := model.TaskStatusPending
	if input.AssigneeID != "" {
		if _, err := s.queries.GetUserByID(ctx, input.AssigneeID); err != nil {
			return nil, fmt.Errorf("%w: assignee %s: %v", ErrInvalidInput, input.AssigneeID, err)
		}
		assignee = &input.AssigneeID
		status = model.TaskStatusAssigned
	}

	task, err := s.queries.CreateTask(ctx, db.CreateTaskParams{
		ID:          ulid.Make().String(),
		RequestID:   requestID,
		Description: strings.TrimSpace(input.Description),
		Cost:        input.Cost,
		AssigneeID:  assignee,
		Status:      string(status),
		Priority:    priority,
		DueDate:     input.DueDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if requestID != nil {
		_ = s.bus.PublishRequest(*requestID, map[string]interface{}{
			"type":   "task.created",
			"taskId": task.ID,
		})
	}
	if s.jobClient != nil && input.DueDate != nil {
		_ = s.jobClient.ScheduleTaskDue(task.ID, *input.DueDate)
	}

	return dbTaskToModel(task), nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.queries.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dbTaskToModel(task), nil
}

func (s *TaskService) ListTasksByRequest(ctx context.Context, requestID string) ([]*model.Task, error) {
	rows, err := s.queries.ListTasksByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	out := make([]*model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, dbTaskToModel(row))
	}
	return out, nil
}

// TotalCostByRequest sums the estimated cost across a request's tasks.
func (s *TaskService) TotalCostByRequest(ctx context.Context, requestID string) (float64, error) {
	return s.queries.SumTaskCostByRequest(ctx, requestID)
}

type UpdateTaskInput struct {
	ID         string
	Status     *string    `json:"status"`
	Priority   *string    `json:"priority"`
	Cost       *float64   `json:"cost"`
	AssigneeID *string    `json:"assigneeId"`
	DueDate    *time.Time `json:"dueDate"`
}

func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*model.Task, error) {
	if input.Status != nil && !model.ValidTaskStatus(*input.Status) {
		return nil, fmt.Errorf("%w: unknown status %s", ErrInvalidInput, *input.Status)
	}
	if input.Priority != nil && !model.ValidPriority(*input.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %s", ErrInvalidInput, *input.Priority)
	}
	if input.Cost != nil && *input.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must be non-negative", ErrInvalidInput)
	}
	if input.AssigneeID != nil && *input.AssigneeID != "" {
		if _, err := s.queries.GetUserByID(ctx, *input.AssigneeID); err != nil {
			return nil, fmt.Errorf("%w: assignee %s: %v", ErrInvalidInput, *input.AssigneeID, err)
		}
	}

	task, err := s.queries.UpdateTask(ctx, db.UpdateTaskParams{
		ID:         input.ID,
		Status:     input.Status,
		Priority:   input.Priority,
		Cost:       input.Cost,
		AssigneeID: input.AssigneeID,
		DueDate:    input.DueDate,
	})
	if err != nil {
		return nil, err
	}

	_ = s.bus.PublishTask(task.ID, map[string]interface{}{
		"type":   "task.updated",
		"taskId": task.ID,
	})
	if task.RequestID != nil {
		_ = s.bus.PublishRequest(*task.RequestID, map[string]interface{}{
			"type":   "task.updated",
			"taskId": task.ID,
		})
	}
	if s.jobClient != nil && input.DueDate != nil {
		_ = s.jobClient.ScheduleTaskDue(task.ID, *input.DueDate)
	}

	return dbTaskToModel(task), nil
}

// SetApproval toggles one of the four independent approval flags. The other
// three are never touched; no task status is derived from them.
func (s *TaskService) SetApproval(ctx context.Context, taskID string, approvalType string, approved bool) (*model.Task, error) {
	if !model.ValidApprovalType(approvalType) {
		return nil, fmt.Errorf("%w: unknown approval type %s", ErrInvalidInput, approvalType)
	}

	task, err := s.queries.SetTaskApproval(ctx, taskID, approvalType, approved)
	if err != nil {
		return nil, err
	}

	_ = s.bus.PublishTask(taskID, map[string]interface{}{
		"type":     "task.approval_updated",
		"taskId":   taskID,
		"approval": approvalType,
		"approved": approved,
	})

	return dbTaskToModel(task), nil
}
