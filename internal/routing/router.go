package routing

import (
	"fmt"
	"strconv"

	"github.com/itsjessedev/workflowbot/internal/workflow"
	"go.uber.org/zap"
)

// RuleFunc produces the ordered approver list for one workflow type.
// The position in the returned slice defines the approval level (1-based)
// when approvals are persisted; decisions themselves are parallel.
type RuleFunc func(data map[string]interface{}, requesterID string) []Approver

// Thresholds above which an extra approver joins the chain
const (
	// PTO requests longer than this many business days also need HR
	LongPTODays = 3

	// Expenses at or above this amount also need finance
	LargeExpenseAmount = 500
)

// Router maps a workflow type plus canonical request data to the ordered
// list of required approvers
type Router struct {
	directory Directory
	rules     map[string]RuleFunc
	logger    *zap.Logger
}

// NewRouter creates a router with the built-in routing rules
func NewRouter(directory Directory, logger *zap.Logger) *Router {
	r := &Router{
		directory: directory,
		rules:     make(map[string]RuleFunc),
		logger:    logger,
	}
	r.rules["pto"] = r.routePTO
	r.rules["expense"] = r.routeExpense
	r.rules["onboarding"] = r.routeOnboarding
	return r
}

// Register adds or replaces the routing rule for a workflow type
func (r *Router) Register(workflowType string, rule RuleFunc) {
	r.rules[workflowType] = rule
}

// Route returns the ordered approvers required for a request
func (r *Router) Route(workflowType string, data map[string]interface{}, requesterID string) ([]Approver, error) {
	rule, ok := r.rules[workflowType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", workflow.ErrUnknownWorkflowType, workflowType)
	}

	approvers := rule(data, requesterID)
	r.logger.Debug("Routed request",
		zap.String("workflow_type", workflowType),
		zap.String("requester_id", requesterID),
		zap.Int("approvers", len(approvers)))

	return approvers, nil
}

// routePTO sends short PTO to the manager only; long PTO adds HR
func (r *Router) routePTO(data map[string]interface{}, requesterID string) []Approver {
	approvers := []Approver{r.directory.Manager(requesterID)}

	if days := numericField(data, "days"); days > LongPTODays {
		approvers = append(approvers, r.directory.HRApprover())
	}
	return approvers
}

// routeExpense sends small expenses to the manager only; large expenses add finance
func (r *Router) routeExpense(data map[string]interface{}, requesterID string) []Approver {
	approvers := []Approver{r.directory.Manager(requesterID)}

	if amount := numericField(data, "amount"); amount >= LargeExpenseAmount {
		approvers = append(approvers, r.directory.FinanceApprover())
	}
	return approvers
}

// routeOnboarding always requires IT then HR, in that order
func (r *Router) routeOnboarding(data map[string]interface{}, requesterID string) []Approver {
	return []Approver{
		r.directory.ITApprover(),
		r.directory.HRApprover(),
	}
}

func numericField(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
