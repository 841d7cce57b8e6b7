package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/engine"
	"github.com/itsjessedev/workflowbot/internal/lifecycle"
	"github.com/itsjessedev/workflowbot/internal/models"
	"github.com/itsjessedev/workflowbot/internal/routing"
	"github.com/itsjessedev/workflowbot/internal/workflow"
	"github.com/itsjessedev/workflowbot/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine   *engine.Engine
	registry *workflow.Registry
	router   *routing.Router
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(eng *engine.Engine, registry *workflow.Registry, router *routing.Router, logger *zap.Logger) *Handlers {
	return &Handlers{
		engine:   eng,
		registry: registry,
		router:   router,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// WorkflowResponse describes one available workflow type
type WorkflowResponse struct {
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// RequestResponse represents a request in API responses
type RequestResponse struct {
	ID             int64                  `json:"id"`
	Reference      string                 `json:"reference"`
	WorkflowType   string                 `json:"workflow_type"`
	RequesterID    string                 `json:"requester_id"`
	RequesterName  string                 `json:"requester_name,omitempty"`
	RequesterEmail string                 `json:"requester_email,omitempty"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	Priority       string                 `json:"priority"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Status         string                 `json:"status"`
	SubmittedAt    *string                `json:"submitted_at,omitempty"`
	CompletedAt    *string                `json:"completed_at,omitempty"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

// ApprovalResponse represents an approval in API responses
type ApprovalResponse struct {
	ID            int64   `json:"id"`
	RequestID     int64   `json:"request_id"`
	ApproverID    string  `json:"approver_id"`
	ApproverName  string  `json:"approver_name,omitempty"`
	ApproverEmail string  `json:"approver_email,omitempty"`
	Status        string  `json:"status"`
	Step          string  `json:"step"`
	Level         int     `json:"level"`
	Required      bool    `json:"required"`
	Comments      string  `json:"comments,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// AuditEntryResponse represents one audit trail entry in API responses
type AuditEntryResponse struct {
	ID          int64                  `json:"id"`
	Action      string                 `json:"action"`
	ActorID     string                 `json:"actor_id"`
	ActorName   string                 `json:"actor_name,omitempty"`
	ActorType   string                 `json:"actor_type"`
	Description string                 `json:"description"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   string                 `json:"timestamp"`
}

// CreateRequestBody is the payload for creating a request
type CreateRequestBody struct {
	WorkflowType   string                 `json:"workflow_type" binding:"required"`
	RequesterID    string                 `json:"requester_id" binding:"required"`
	RequesterName  string                 `json:"requester_name"`
	RequesterEmail string                 `json:"requester_email"`
	Title          string                 `json:"title" binding:"required"`
	Description    string                 `json:"description"`
	Priority       string                 `json:"priority"`
	Data           map[string]interface{} `json:"data" binding:"required"`
}

// DecisionBody is the payload for approve and reject
type DecisionBody struct {
	ApproverID string `json:"approver_id" binding:"required"`
	Comments   string `json:"comments"`
}

// CancelBody is the payload for cancelling a request
type CancelBody struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListWorkflows handles GET /api/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	definitions := h.registry.List()

	workflows := make([]WorkflowResponse, 0, len(definitions))
	for _, d := range definitions {
		workflows = append(workflows, WorkflowResponse{
			Type:        d.Type(),
			DisplayName: d.DisplayName(),
			Description: d.Description(),
		})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: workflows})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if body.RequesterEmail != "" && !utils.ValidateEmail(body.RequesterEmail) {
		h.badRequest(c, "requester_email: invalid email address")
		return
	}

	definition, err := h.registry.Get(body.WorkflowType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := definition.Validate(body.Data); err != nil {
		h.respondError(c, err)
		return
	}

	request, err := h.engine.CreateRequest(c.Request.Context(), engine.CreateParams{
		WorkflowType: body.WorkflowType,
		Requester: engine.Requester{
			ID:    body.RequesterID,
			Name:  utils.SanitizeString(body.RequesterName),
			Email: body.RequesterEmail,
		},
		Title:       utils.SanitizeString(body.Title),
		Description: utils.SanitizeString(body.Description),
		Priority:    body.Priority,
		Data:        definition.Prepare(body.Data),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toRequestResponse(request)})
}

// SubmitRequest handles POST /api/requests/:id/submit
func (h *Handlers) SubmitRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	request, err := h.engine.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	approvers, err := h.router.Route(request.WorkflowType, request.Data, request.RequesterID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	submitted, err := h.engine.SubmitRequest(c.Request.Context(), id, approvers)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(submitted)})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	request, err := h.engine.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(request)})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	requesterID := c.Query("requester_id")
	if requesterID == "" {
		h.badRequest(c, "requester_id is required")
		return
	}

	requests, err := h.engine.GetUserRequests(c.Request.Context(), requesterID, c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]RequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, toRequestResponse(request))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// ApproveRequest handles POST /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	h.decide(c, true)
}

// RejectRequest handles POST /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.decide(c, false)
}

func (h *Handlers) decide(c *gin.Context, approved bool) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	approval, err := h.engine.PendingApprovalFor(c.Request.Context(), id, body.ApproverID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if approval == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "no pending approval for this approver",
		})
		return
	}

	if _, err := h.engine.Decide(c.Request.Context(), approval.ID, body.ApproverID, approved, utils.SanitizeString(body.Comments)); err != nil {
		h.respondError(c, err)
		return
	}

	request, err := h.engine.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(request)})
}

// CancelRequest handles POST /api/requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body CancelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	request, err := h.engine.CancelRequest(c.Request.Context(), id, body.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(request)})
}

// ListApprovals handles GET /api/requests/:id/approvals
func (h *Handlers) ListApprovals(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	// Ensure the request exists so a bad ID is a 404, not an empty list
	if _, err := h.engine.GetRequest(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	approvals, err := h.engine.GetRequestApprovals(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		responses = append(responses, toApprovalResponse(approval))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// GetAuditTrail handles GET /api/requests/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	trail, err := h.engine.GetAuditTrail(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(trail) == 0 {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "request not found",
		})
		return
	}

	responses := make([]AuditEntryResponse, 0, len(trail))
	for _, entry := range trail {
		responses = append(responses, toAuditEntryResponse(entry))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// ListPendingApprovals handles GET /api/approvals/pending
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	approverID := c.Query("approver_id")
	if approverID == "" {
		h.badRequest(c, "approver_id is required")
		return
	}

	approvals, err := h.engine.GetPendingApprovals(c.Request.Context(), approverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		responses = append(responses, toApprovalResponse(approval))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

func (h *Handlers) requestID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid request ID")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

// respondError maps domain errors to HTTP statuses
func (h *Handlers) respondError(c *gin.Context, err error) {
	var validationErr *workflow.ValidationError

	switch {
	case errors.As(err, &validationErr), errors.Is(err, workflow.ErrUnknownWorkflowType):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, engine.ErrApproverMismatch):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, engine.ErrAlreadyDecided), errors.Is(err, lifecycle.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal server error"})
	}
}

func toRequestResponse(request *models.Request) RequestResponse {
	resp := RequestResponse{
		ID:             request.ID,
		Reference:      request.Reference,
		WorkflowType:   request.WorkflowType,
		RequesterID:    request.RequesterID,
		RequesterName:  request.RequesterName,
		RequesterEmail: request.RequesterEmail,
		Title:          request.Title,
		Description:    request.Description,
		Priority:       request.Priority,
		Data:           request.Data,
		Status:         request.Status,
		CreatedAt:      request.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      request.UpdatedAt.Format(time.RFC3339),
	}
	if request.SubmittedAt != nil {
		s := request.SubmittedAt.Format(time.RFC3339)
		resp.SubmittedAt = &s
	}
	if request.CompletedAt != nil {
		s := request.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

func toApprovalResponse(approval *models.Approval) ApprovalResponse {
	resp := ApprovalResponse{
		ID:            approval.ID,
		RequestID:     approval.RequestID,
		ApproverID:    approval.ApproverID,
		ApproverName:  approval.ApproverName,
		ApproverEmail: approval.ApproverEmail,
		Status:        approval.Status,
		Step:          approval.Step,
		Level:         approval.Level,
		Required:      approval.Required,
		Comments:      approval.Comments,
		CreatedAt:     approval.CreatedAt.Format(time.RFC3339),
	}
	if approval.DecidedAt != nil {
		s := approval.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &s
	}
	return resp
}

func toAuditEntryResponse(entry *models.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          entry.ID,
		Action:      entry.Action,
		ActorID:     entry.ActorID,
		ActorName:   entry.ActorName,
		ActorType:   entry.ActorType,
		Description: entry.Description,
		Context:     entry.Context,
		Timestamp:   entry.Timestamp.Format(time.RFC3339),
	}
}
