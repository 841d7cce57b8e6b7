package workflow

import (
	"fmt"
	"time"
)

// PTODefinition handles paid-time-off requests
type PTODefinition struct{}

// NewPTODefinition creates the PTO workflow definition
func NewPTODefinition() *PTODefinition {
	return &PTODefinition{}
}

// Type returns the workflow type key
func (d *PTODefinition) Type() string { return "pto" }

// DisplayName returns the human-readable workflow name
func (d *PTODefinition) DisplayName() string { return "PTO Request" }

// Description returns a short description for listings
func (d *PTODefinition) Description() string {
	return "Submit time-off requests for manager approval"
}

// Validate checks PTO submission data
func (d *PTODefinition) Validate(data map[string]interface{}) error {
	for _, field := range []string{"start_date", "end_date"} {
		if _, ok := data[field]; !ok {
			return missingField(field)
		}
	}

	start, err := parseDate(data["start_date"])
	if err != nil {
		return invalidField("start_date", "invalid date format")
	}
	end, err := parseDate(data["end_date"])
	if err != nil {
		return invalidField("end_date", "invalid date format")
	}

	if end.Before(start) {
		return invalidField("end_date", "end date must be after start date")
	}
	if start.Before(startOfDay(time.Now())) {
		return invalidField("start_date", "start date cannot be in the past")
	}

	return nil
}

// Prepare enriches PTO data with the computed business-day count
func (d *PTODefinition) Prepare(data map[string]interface{}) map[string]interface{} {
	out := copyData(data)
	out["days"] = d.businessDays(data)
	out["workflow_type"] = d.Type()
	return out
}

// Summary formats a PTO request summary for notifications
func (d *PTODefinition) Summary(data map[string]interface{}) string {
	start, _ := stringValue(data, "start_date")
	end, _ := stringValue(data, "end_date")
	days, _ := numberValue(data, "days")
	reason, ok := stringValue(data, "reason")
	if !ok || reason == "" {
		reason = "Not specified"
	}
	return fmt.Sprintf("PTO Request: %s to %s (%d days)\nReason: %s", start, end, int(days), reason)
}

// businessDays counts weekdays between start and end dates inclusive
func (d *PTODefinition) businessDays(data map[string]interface{}) int {
	start, err := parseDate(data["start_date"])
	if err != nil {
		return 0
	}
	end, err := parseDate(data["end_date"])
	if err != nil {
		return 0
	}

	days := 0
	for current := startOfDay(start); !current.After(startOfDay(end)); current = current.AddDate(0, 0, 1) {
		wd := current.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}
