package workflow

import (
	"fmt"
	"strings"
	"time"
)

// OnboardingDefinition handles new-employee onboarding requests
type OnboardingDefinition struct{}

// NewOnboardingDefinition creates the onboarding workflow definition
func NewOnboardingDefinition() *OnboardingDefinition {
	return &OnboardingDefinition{}
}

// ChecklistTask is one item on a generated onboarding checklist
type ChecklistTask struct {
	Task           string  `json:"task"`
	Assignee       string  `json:"assignee"`
	Priority       string  `json:"priority"`
	EstimatedHours float64 `json:"estimated_hours"`
}

// Type returns the workflow type key
func (d *OnboardingDefinition) Type() string { return "onboarding" }

// DisplayName returns the human-readable workflow name
func (d *OnboardingDefinition) DisplayName() string { return "Employee Onboarding" }

// Description returns a short description for listings
func (d *OnboardingDefinition) Description() string {
	return "Onboard new employees with automated checklist"
}

// Validate checks onboarding submission data
func (d *OnboardingDefinition) Validate(data map[string]interface{}) error {
	for _, field := range []string{"employee_name", "employee_email", "department", "start_date"} {
		if _, ok := data[field]; !ok {
			return missingField(field)
		}
	}

	email, _ := stringValue(data, "employee_email")
	if !strings.Contains(email, "@") {
		return invalidField("employee_email", "invalid email address")
	}

	start, err := parseDate(data["start_date"])
	if err != nil {
		return invalidField("start_date", "invalid start date format")
	}
	if start.Before(startOfDay(time.Now())) {
		return invalidField("start_date", "start date cannot be in the past")
	}

	return nil
}

// Prepare generates the onboarding checklist and task counters
func (d *OnboardingDefinition) Prepare(data map[string]interface{}) map[string]interface{} {
	checklist := d.GenerateChecklist(data)

	out := copyData(data)
	out["checklist"] = checklist
	out["total_tasks"] = len(checklist)
	out["completed_tasks"] = 0
	out["workflow_type"] = d.Type()
	return out
}

// Summary formats an onboarding request summary for notifications
func (d *OnboardingDefinition) Summary(data map[string]interface{}) string {
	name, _ := stringValue(data, "employee_name")
	email, _ := stringValue(data, "employee_email")
	department, _ := stringValue(data, "department")
	startDate, _ := stringValue(data, "start_date")
	role, ok := stringValue(data, "role")
	if !ok || role == "" {
		role = "Not specified"
	}

	return fmt.Sprintf("New Employee Onboarding: %s\nEmail: %s\nDepartment: %s\nRole: %s\nStart Date: %s",
		name, email, department, role, startDate)
}

// GenerateChecklist builds the onboarding task list from department and role.
// Every employee gets the base checklist; department and role keywords add tasks.
func (d *OnboardingDefinition) GenerateChecklist(data map[string]interface{}) []ChecklistTask {
	department, _ := stringValue(data, "department")
	role, _ := stringValue(data, "role")
	department = strings.ToLower(department)
	role = strings.ToLower(role)

	checklist := []ChecklistTask{
		{Task: "Create email account", Assignee: "IT", Priority: "high", EstimatedHours: 0.5},
		{Task: "Setup workstation", Assignee: "IT", Priority: "high", EstimatedHours: 2},
		{Task: "Provide building access badge", Assignee: "Facilities", Priority: "high", EstimatedHours: 0.5},
		{Task: "Complete new hire paperwork", Assignee: "HR", Priority: "high", EstimatedHours: 1},
		{Task: "Setup benefits enrollment", Assignee: "HR", Priority: "medium", EstimatedHours: 1},
		{Task: "Schedule orientation session", Assignee: "HR", Priority: "medium", EstimatedHours: 4},
	}

	if strings.Contains(department, "engineering") || strings.Contains(department, "dev") {
		checklist = append(checklist,
			ChecklistTask{Task: "Setup GitHub account", Assignee: "Engineering", Priority: "high", EstimatedHours: 0.5},
			ChecklistTask{Task: "Provide development environment access", Assignee: "Engineering", Priority: "high", EstimatedHours: 1},
			ChecklistTask{Task: "Assign onboarding buddy", Assignee: "Engineering Manager", Priority: "medium", EstimatedHours: 0},
		)
	}

	if strings.Contains(department, "sales") || strings.Contains(department, "marketing") {
		checklist = append(checklist,
			ChecklistTask{Task: "Setup CRM access", Assignee: "Sales Ops", Priority: "high", EstimatedHours: 0.5},
			ChecklistTask{Task: "Provide sales training materials", Assignee: "Sales Enablement", Priority: "medium", EstimatedHours: 1},
		)
	}

	if strings.Contains(role, "manager") || strings.Contains(role, "director") || strings.Contains(role, "vp") {
		checklist = append(checklist,
			ChecklistTask{Task: "Setup conference room booking access", Assignee: "IT", Priority: "medium", EstimatedHours: 0.5},
		)
	}

	return checklist
}
