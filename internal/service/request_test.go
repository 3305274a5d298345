package service

import (
	"context"
	"testing"

	"repairdesk/internal/schema"

	"github.com/stretchr/testify/assert"
)

func TestRequestService_ListRequests_RejectsBadFilters(t *testing.T) {
	s := NewRequestService(nil, schema.NewValidator(), &MockEventBus{})
	ctx := context.Background()

	_, err := s.ListRequests(ctx, ListRequestsInput{Status: "sideways"})
	assert.Error(t, err)

	_, err = s.ListRequests(ctx, ListRequestsInput{Priority: "asap"})
	assert.Error(t, err)
}

func TestRequestService_AnnotateRequest_RejectsBadValues(t *testing.T) {
	s := NewRequestService(nil, schema.NewValidator(), &MockEventBus{})
	ctx := context.Background()

	bad := "not_a_status"
	_, err := s.AnnotateRequest(ctx, AnnotateRequestInput{ID: "req-1", Status: &bad})
	assert.Error(t, err)

	badPriority := "yesterday"
	_, err = s.AnnotateRequest(ctx, AnnotateRequestInput{ID: "req-1", Priority: &badPriority})
	assert.Error(t, err)
}

func TestTaskService_UpdateTask_RejectsBadValues(t *testing.T) {
	s := NewTaskService(nil, schema.NewValidator(), &MockEventBus{})
	ctx := context.Background()

	bad := "paused"
	_, err := s.UpdateTask(ctx, UpdateTaskInput{ID: "task-1", Status: &bad})
	assert.Error(t, err)

	negative := -10.0
	_, err = s.UpdateTask(ctx, UpdateTaskInput{ID: "task-1", Cost: &negative})
	assert.Error(t, err)
}

func TestTaskService_SetApproval_RejectsUnknownType(t *testing.T) {
	s := NewTaskService(nil, schema.NewValidator(), &MockEventBus{})

	_, err := s.SetApproval(context.Background(), "task-1", "finance", true)
	assert.Error(t, err)
}
