package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/models"
	"github.com/itsjessedev/workflowbot/migrations"
	"github.com/itsjessedev/workflowbot/pkg/database"
)

type testRepos struct {
	requests  *RequestRepository
	approvals *ApprovalRepository
	audits    *AuditRepository
}

func newTestRepos(t *testing.T) *testRepos {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(migrations.FS))

	return &testRepos{
		requests:  NewRequestRepository(db.DB, logger),
		approvals: NewApprovalRepository(db.DB, logger),
		audits:    NewAuditRepository(db.DB, logger),
	}
}

func newRequest(requesterID string) *models.Request {
	now := time.Now().UTC()
	return &models.Request{
		Reference:     "REQ-TEST0001",
		WorkflowType:  "pto",
		RequesterID:   requesterID,
		RequesterName: "Alice Smith",
		Title:         "Vacation",
		Priority:      models.PriorityNormal,
		Data:          map[string]interface{}{"days": float64(2)},
		Status:        models.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestRequestRoundTrip(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	request := newRequest("U123")
	require.NoError(t, repos.requests.Create(ctx, nil, request))
	require.NotZero(t, request.ID)

	got, err := repos.requests.GetByID(ctx, nil, request.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, request.Reference, got.Reference)
	assert.Equal(t, models.StatusDraft, got.Status)
	assert.Equal(t, float64(2), got.Data["days"])
	assert.Nil(t, got.SubmittedAt)
	assert.Nil(t, got.CompletedAt)

	missing, err := repos.requests.GetByID(ctx, nil, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteCascades(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	request := newRequest("U123")
	require.NoError(t, repos.requests.Create(ctx, nil, request))

	now := time.Now().UTC()
	require.NoError(t, repos.approvals.CreateBatch(ctx, nil, []*models.Approval{{
		RequestID:  request.ID,
		ApproverID: "MGR001",
		Status:     models.ApprovalPending,
		Step:       "approval_1",
		Level:      1,
		Required:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}))
	require.NoError(t, repos.audits.Append(ctx, nil, &models.AuditEntry{
		RequestID: &request.ID,
		Action:    models.ActionRequestCreated,
		ActorID:   "U123",
		ActorType: models.ActorUser,
		Timestamp: now,
	}))

	require.NoError(t, repos.requests.Delete(ctx, nil, request.ID))

	got, err := repos.requests.GetByID(ctx, nil, request.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	approvals, err := repos.approvals.ListByRequestID(ctx, request.ID)
	require.NoError(t, err)
	assert.Empty(t, approvals)

	trail, err := repos.audits.ListByRequestID(ctx, request.ID)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestListByRequesterNewestFirst(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	older := newRequest("U123")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repos.requests.Create(ctx, nil, older))

	newer := newRequest("U123")
	newer.Reference = "REQ-TEST0002"
	require.NoError(t, repos.requests.Create(ctx, nil, newer))

	other := newRequest("U999")
	other.Reference = "REQ-TEST0003"
	require.NoError(t, repos.requests.Create(ctx, nil, other))

	requests, err := repos.requests.ListByRequester(ctx, "U123", "")
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, newer.ID, requests[0].ID)
	assert.Equal(t, older.ID, requests[1].ID)

	drafts, err := repos.requests.ListByRequester(ctx, "U123", models.StatusDraft)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	pending, err := repos.requests.ListByRequester(ctx, "U123", models.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApprovalDecideIsCompareAndSet(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	request := newRequest("U123")
	require.NoError(t, repos.requests.Create(ctx, nil, request))

	now := time.Now().UTC()
	approval := &models.Approval{
		RequestID:  request.ID,
		ApproverID: "MGR001",
		Status:     models.ApprovalPending,
		Step:       "approval_1",
		Level:      1,
		Required:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repos.approvals.CreateBatch(ctx, nil, []*models.Approval{approval}))

	won, err := repos.approvals.Decide(ctx, nil, approval.ID, models.ApprovalApproved, "ok", now)
	require.NoError(t, err)
	assert.True(t, won)

	// A second decision finds no pending row to claim
	won, err = repos.approvals.Decide(ctx, nil, approval.ID, models.ApprovalRejected, "no", now)
	require.NoError(t, err)
	assert.False(t, won)

	got, err := repos.approvals.GetByID(ctx, nil, approval.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, got.Status)
	assert.Equal(t, "ok", got.Comments)
	require.NotNil(t, got.DecidedAt)
}

func TestAuditTrailOrdering(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	request := newRequest("U123")
	require.NoError(t, repos.requests.Create(ctx, nil, request))

	// Identical timestamps keep insertion order
	at := time.Now().UTC()
	actions := []string{
		models.ActionRequestCreated,
		models.ActionRequestSubmitted,
		models.ActionApprovalRequested,
	}
	for _, action := range actions {
		require.NoError(t, repos.audits.Append(ctx, nil, &models.AuditEntry{
			RequestID: &request.ID,
			Action:    action,
			ActorID:   "U123",
			ActorType: models.ActorUser,
			Timestamp: at,
		}))
	}

	trail, err := repos.audits.ListByRequestID(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	for i, action := range actions {
		assert.Equal(t, action, trail[i].Action)
	}
}
