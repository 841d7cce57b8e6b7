package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/engine"
	"github.com/itsjessedev/workflowbot/internal/models"
	"github.com/itsjessedev/workflowbot/internal/notification"
	"github.com/itsjessedev/workflowbot/internal/repository"
	"github.com/itsjessedev/workflowbot/internal/routing"
	"github.com/itsjessedev/workflowbot/internal/workflow"
	"github.com/itsjessedev/workflowbot/migrations"
	"github.com/itsjessedev/workflowbot/pkg/database"
)

func newTestServer(t *testing.T) *Server {
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

	registry := workflow.DefaultRegistry()
	eng := engine.NewEngine(
		db,
		repository.NewRequestRepository(db.DB, logger),
		repository.NewApprovalRepository(db.DB, logger),
		repository.NewAuditRepository(db.DB, logger),
		registry,
		notification.NewLogNotifier(logger),
		logger,
	)
	requestRouter := routing.NewRouter(routing.DefaultDirectory(), logger)

	return NewServer(DefaultServerConfig(), eng, registry, requestRouter, logger)
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)

	var response Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return recorder, response
}

func ptoBody(days int) map[string]interface{} {
	start := time.Now().AddDate(0, 0, 14)
	return map[string]interface{}{
		"workflow_type":   "pto",
		"requester_id":    "U123",
		"requester_name":  "Alice Smith",
		"requester_email": "alice.smith@company.com",
		"title":           "Vacation",
		"data": map[string]interface{}{
			"start_date": start.Format("2006-01-02"),
			"end_date":   start.AddDate(0, 0, days-1).Format("2006-01-02"),
			"reason":     "family trip",
		},
	}
}

func createAndSubmit(t *testing.T, server *Server, days int) int64 {
	t.Helper()

	recorder, response := doJSON(t, server, http.MethodPost, "/api/requests", ptoBody(days))
	require.Equal(t, http.StatusCreated, recorder.Code)

	data := response.Data.(map[string]interface{})
	id := int64(data["id"].(float64))

	recorder, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/submit", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	return id
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t)

	recorder, response := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, response.Success)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
}

func TestListWorkflows(t *testing.T) {
	server := newTestServer(t)

	recorder, response := doJSON(t, server, http.MethodGet, "/api/workflows", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	workflows := response.Data.([]interface{})
	require.Len(t, workflows, 3)

	// Sorted by type key
	first := workflows[0].(map[string]interface{})
	assert.Equal(t, "expense", first["type"])
}

func TestCreateRequest(t *testing.T) {
	server := newTestServer(t)

	recorder, response := doJSON(t, server, http.MethodPost, "/api/requests", ptoBody(2))
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.True(t, response.Success)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, models.StatusDraft, data["status"])
	assert.Contains(t, data["reference"], "REQ-")
	assert.NotNil(t, data["data"].(map[string]interface{})["days"])
}

func TestCreateRequestValidation(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
		want   string
	}{
		{
			name: "unknown workflow type",
			mutate: func(body map[string]interface{}) {
				body["workflow_type"] = "equipment"
			},
			want: "unknown workflow type",
		},
		{
			name: "missing start date",
			mutate: func(body map[string]interface{}) {
				delete(body["data"].(map[string]interface{}), "start_date")
			},
			want: "start_date",
		},
		{
			name: "end before start",
			mutate: func(body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				data["end_date"] = time.Now().AddDate(0, 0, 10).Format("2006-01-02")
			},
			want: "end_date",
		},
		{
			name: "bad requester email",
			mutate: func(body map[string]interface{}) {
				body["requester_email"] = "not-an-email"
			},
			want: "requester_email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := ptoBody(2)
			tt.mutate(body)

			recorder, response := doJSON(t, server, http.MethodPost, "/api/requests", body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.False(t, response.Success)
			assert.Contains(t, response.Error, tt.want)
		})
	}
}

func TestApprovalFlow(t *testing.T) {
	server := newTestServer(t)
	id := createAndSubmit(t, server, 2)

	// The manager sees the pending approval
	recorder, response := doJSON(t, server, http.MethodGet, "/api/approvals/pending?approver_id=MGR001", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, response.Data.([]interface{}), 1)

	recorder, response = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", id),
		map[string]interface{}{"approver_id": "MGR001", "comments": "enjoy"})
	require.Equal(t, http.StatusOK, recorder.Code)

	// The decision response carries the updated request
	request := response.Data.(map[string]interface{})
	assert.Equal(t, models.StatusApproved, request["status"])
	assert.NotNil(t, request["completed_at"])

	recorder, response = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/requests/%d/approvals", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	approvals := response.Data.([]interface{})
	require.Len(t, approvals, 1)
	approval := approvals[0].(map[string]interface{})
	assert.Equal(t, models.ApprovalApproved, approval["status"])
	assert.Equal(t, "enjoy", approval["comments"])
	assert.NotNil(t, approval["decided_at"])

	recorder, response = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/requests/%d/audit", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	trail := response.Data.([]interface{})
	require.Len(t, trail, 5)
	last := trail[4].(map[string]interface{})
	assert.Equal(t, models.ActionRequestCompleted, last["action"])
}

func TestRejectFlow(t *testing.T) {
	server := newTestServer(t)
	id := createAndSubmit(t, server, 2)

	recorder, response := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/reject", id),
		map[string]interface{}{"approver_id": "MGR001", "comments": "blackout period"})
	require.Equal(t, http.StatusOK, recorder.Code)

	request := response.Data.(map[string]interface{})
	assert.Equal(t, models.StatusRejected, request["status"])
	assert.NotNil(t, request["completed_at"])
}

func TestDecideWithoutPendingApproval(t *testing.T) {
	server := newTestServer(t)
	id := createAndSubmit(t, server, 2)

	// Not an assigned approver
	recorder, response := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", id),
		map[string]interface{}{"approver_id": "HR001"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, response.Error, "no pending approval")

	// Already decided
	recorder, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", id),
		map[string]interface{}{"approver_id": "MGR001"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", id),
		map[string]interface{}{"approver_id": "MGR001"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCancelRequest(t *testing.T) {
	server := newTestServer(t)
	id := createAndSubmit(t, server, 2)

	recorder, response := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/cancel", id),
		map[string]interface{}{"actor_id": "U123"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, models.StatusCancelled, response.Data.(map[string]interface{})["status"])

	// Terminal states cannot be cancelled again
	recorder, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/cancel", id),
		map[string]interface{}{"actor_id": "U123"})
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestGetRequestNotFound(t *testing.T) {
	server := newTestServer(t)

	recorder, _ := doJSON(t, server, http.MethodGet, "/api/requests/9999", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder, _ = doJSON(t, server, http.MethodGet, "/api/requests/abc", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder, _ = doJSON(t, server, http.MethodGet, "/api/requests/9999/audit", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder, _ = doJSON(t, server, http.MethodGet, "/api/requests/9999/approvals", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListRequests(t *testing.T) {
	server := newTestServer(t)
	createAndSubmit(t, server, 2)

	recorder, response := doJSON(t, server, http.MethodGet, "/api/requests?requester_id=U123", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, response.Data.([]interface{}), 1)

	recorder, _ = doJSON(t, server, http.MethodGet, "/api/requests", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder, response = doJSON(t, server, http.MethodGet, "/api/requests?requester_id=U123&status=pending", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, response.Data.([]interface{}), 1)
}

func TestListApprovalsForExpense(t *testing.T) {
	server := newTestServer(t)

	body := map[string]interface{}{
		"workflow_type": "expense",
		"requester_id":  "U123",
		"title":         "Conference travel",
		"data": map[string]interface{}{
			"amount":      800,
			"category":    "travel",
			"description": "conference travel to Denver",
		},
	}
	recorder, response := doJSON(t, server, http.MethodPost, "/api/requests", body)
	require.Equal(t, http.StatusCreated, recorder.Code)
	id := int64(response.Data.(map[string]interface{})["id"].(float64))

	recorder, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/submit", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder, response = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/requests/%d/approvals", id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	approvals := response.Data.([]interface{})
	require.Len(t, approvals, 2)
	assert.Equal(t, "MGR001", approvals[0].(map[string]interface{})["approver_id"])
	assert.Equal(t, "FIN001", approvals[1].(map[string]interface{})["approver_id"])
}

func TestSubmitTwiceConflicts(t *testing.T) {
	server := newTestServer(t)
	id := createAndSubmit(t, server, 2)

	recorder, _ := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/requests/%d/submit", id), nil)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}
