package workflow

import (
	"fmt"
	"math"
	"strings"
)

// ExpenseDefinition handles expense reimbursement requests
type ExpenseDefinition struct{}

// NewExpenseDefinition creates the expense workflow definition
func NewExpenseDefinition() *ExpenseDefinition {
	return &ExpenseDefinition{}
}

// ExpenseCategories is the fixed set of accepted expense categories
var ExpenseCategories = []string{"travel", "meals", "equipment", "software", "training", "other"}

// Per-category amounts above which approval is expected to get extra scrutiny
var categoryThresholds = map[string]float64{
	"travel":    1000,
	"equipment": 500,
	"software":  300,
	"training":  1000,
	"meals":     100,
	"other":     200,
}

// Type returns the workflow type key
func (d *ExpenseDefinition) Type() string { return "expense" }

// DisplayName returns the human-readable workflow name
func (d *ExpenseDefinition) DisplayName() string { return "Expense Approval" }

// Description returns a short description for listings
func (d *ExpenseDefinition) Description() string {
	return "Submit expenses for reimbursement approval"
}

// Validate checks expense submission data
func (d *ExpenseDefinition) Validate(data map[string]interface{}) error {
	for _, field := range []string{"amount", "category", "description"} {
		if _, ok := data[field]; !ok {
			return missingField(field)
		}
	}

	amount, ok := numberValue(data, "amount")
	if !ok {
		return invalidField("amount", "invalid amount format")
	}
	if amount <= 0 {
		return invalidField("amount", "amount must be greater than 0")
	}

	category, _ := stringValue(data, "category")
	if !isValidCategory(category) {
		return invalidField("category",
			fmt.Sprintf("invalid category, must be one of: %s", strings.Join(ExpenseCategories, ", ")))
	}

	description, _ := stringValue(data, "description")
	if len(strings.TrimSpace(description)) < 10 {
		return invalidField("description", "description must be at least 10 characters")
	}

	return nil
}

// Prepare normalizes the amount to two decimal places
func (d *ExpenseDefinition) Prepare(data map[string]interface{}) map[string]interface{} {
	out := copyData(data)
	amount, _ := numberValue(data, "amount")
	out["amount"] = math.Round(amount*100) / 100
	out["workflow_type"] = d.Type()
	return out
}

// Summary formats an expense request summary for notifications
func (d *ExpenseDefinition) Summary(data map[string]interface{}) string {
	amount, _ := numberValue(data, "amount")
	category, _ := stringValue(data, "category")
	description, _ := stringValue(data, "description")

	summary := fmt.Sprintf("Expense Reimbursement: $%.2f\nCategory: %s\nDescription: %s",
		amount, capitalize(category), description)
	if receipt, ok := stringValue(data, "receipt_url"); ok && receipt != "" {
		summary += fmt.Sprintf("\nReceipt: %s", receipt)
	}
	return summary
}

// ApprovalThreshold returns the scrutiny threshold for a category
func (d *ExpenseDefinition) ApprovalThreshold(category string) float64 {
	if t, ok := categoryThresholds[category]; ok {
		return t
	}
	return 200
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isValidCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}
