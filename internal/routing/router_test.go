package routing

import (
	"errors"
	"testing"

	"github.com/itsjessedev/workflowbot/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter() *Router {
	return NewRouter(DefaultDirectory(), zap.NewNop())
}

func TestRouter_RoutePTO(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name          string
		days          interface{}
		wantApprovers int
	}{
		{"short pto needs manager only", float64(2), 1},
		{"three days still manager only", float64(3), 1},
		{"long pto adds HR", float64(5), 2},
		{"integer days", 7, 2},
		{"missing days treated as zero", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]interface{}{}
			if tt.days != nil {
				data["days"] = tt.days
			}

			approvers, err := router.Route("pto", data, "U100")
			require.NoError(t, err)
			require.Len(t, approvers, tt.wantApprovers)

			assert.Equal(t, "MGR001", approvers[0].ID)
			if tt.wantApprovers == 2 {
				assert.Equal(t, "HR001", approvers[1].ID)
			}
		})
	}
}

func TestRouter_RouteExpense(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name          string
		amount        float64
		wantApprovers int
	}{
		{"small expense needs manager only", 200, 1},
		{"just under threshold", 499.99, 1},
		{"threshold adds finance", 500, 2},
		{"large expense adds finance", 800, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approvers, err := router.Route("expense", map[string]interface{}{"amount": tt.amount}, "U100")
			require.NoError(t, err)
			require.Len(t, approvers, tt.wantApprovers)

			assert.Equal(t, "MGR001", approvers[0].ID)
			if tt.wantApprovers == 2 {
				assert.Equal(t, "FIN001", approvers[1].ID)
			}
		})
	}
}

func TestRouter_RouteOnboarding(t *testing.T) {
	router := newTestRouter()

	approvers, err := router.Route("onboarding", map[string]interface{}{}, "U100")
	require.NoError(t, err)
	require.Len(t, approvers, 2)

	// Fixed order: IT first, HR second
	assert.Equal(t, "IT001", approvers[0].ID)
	assert.Equal(t, "HR001", approvers[1].ID)
}

func TestRouter_RouteUnknownType(t *testing.T) {
	router := newTestRouter()

	_, err := router.Route("travel_visa", map[string]interface{}{}, "U100")
	require.Error(t, err)
	assert.True(t, errors.Is(err, workflow.ErrUnknownWorkflowType))
}

func TestRouter_RegisterCustomRule(t *testing.T) {
	router := newTestRouter()
	custom := Approver{ID: "SEC001", Name: "Security Review", Email: "security@company.com"}

	router.Register("access_grant", func(data map[string]interface{}, requesterID string) []Approver {
		return []Approver{custom}
	})

	approvers, err := router.Route("access_grant", nil, "U100")
	require.NoError(t, err)
	require.Len(t, approvers, 1)
	assert.Equal(t, custom, approvers[0])
}
