package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestPTODefinition_Validate(t *testing.T) {
	d := NewPTODefinition()

	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr string
	}{
		{
			name: "valid request",
			data: map[string]interface{}{
				"start_date": futureDate(7),
				"end_date":   futureDate(9),
			},
		},
		{
			name:    "missing start date",
			data:    map[string]interface{}{"end_date": futureDate(9)},
			wantErr: "start_date: missing required field",
		},
		{
			name:    "missing end date",
			data:    map[string]interface{}{"start_date": futureDate(7)},
			wantErr: "end_date: missing required field",
		},
		{
			name: "invalid date format",
			data: map[string]interface{}{
				"start_date": "next tuesday",
				"end_date":   futureDate(9),
			},
			wantErr: "start_date: invalid date format",
		},
		{
			name: "end before start",
			data: map[string]interface{}{
				"start_date": futureDate(9),
				"end_date":   futureDate(7),
			},
			wantErr: "end_date: end date must be after start date",
		},
		{
			name: "start in the past",
			data: map[string]interface{}{
				"start_date": futureDate(-3),
				"end_date":   futureDate(2),
			},
			wantErr: "start_date: start date cannot be in the past",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Validate(tt.data)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestPTODefinition_Prepare_BusinessDays(t *testing.T) {
	d := NewPTODefinition()

	tests := []struct {
		name  string
		start string
		end   string
		days  int
	}{
		{"monday to friday", "2026-10-05", "2026-10-09", 5},
		{"saturday to sunday", "2026-10-10", "2026-10-11", 0},
		{"single weekday", "2026-10-07", "2026-10-07", 1},
		{"spanning a weekend", "2026-10-08", "2026-10-13", 4},
		{"two full weeks", "2026-10-05", "2026-10-16", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared := d.Prepare(map[string]interface{}{
				"start_date": tt.start,
				"end_date":   tt.end,
			})
			assert.Equal(t, tt.days, prepared["days"])
			assert.Equal(t, "pto", prepared["workflow_type"])
		})
	}
}

func TestPTODefinition_PrepareDoesNotMutateInput(t *testing.T) {
	d := NewPTODefinition()
	raw := map[string]interface{}{
		"start_date": "2026-10-05",
		"end_date":   "2026-10-09",
	}

	_ = d.Prepare(raw)

	_, hasDays := raw["days"]
	assert.False(t, hasDays, "Prepare must not mutate the raw payload")
}

func TestPTODefinition_Summary(t *testing.T) {
	d := NewPTODefinition()

	summary := d.Summary(map[string]interface{}{
		"start_date": "2026-10-05",
		"end_date":   "2026-10-09",
		"days":       float64(5),
		"reason":     "Vacation",
	})

	assert.Contains(t, summary, "2026-10-05 to 2026-10-09")
	assert.Contains(t, summary, "(5 days)")
	assert.Contains(t, summary, "Reason: Vacation")
}
