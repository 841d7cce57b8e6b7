package routing

// Approver identifies one person who must decide on a request
type Approver struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Directory resolves organizational approver roles. In production this would
// front an employee directory; the static implementation below serves demo
// deployments and tests.
type Directory interface {
	// Manager returns the manager responsible for the given requester
	Manager(requesterID string) Approver

	// HRApprover returns the HR approver
	HRApprover() Approver

	// FinanceApprover returns the finance approver
	FinanceApprover() Approver

	// ITApprover returns the IT approver
	ITApprover() Approver
}

// StaticDirectory is a fixed-role Directory backed by configuration
type StaticDirectory struct {
	ManagerApprover Approver
	HR              Approver
	Finance         Approver
	IT              Approver
}

// DefaultDirectory returns the built-in demo directory
func DefaultDirectory() *StaticDirectory {
	return &StaticDirectory{
		ManagerApprover: Approver{ID: "MGR001", Name: "Sarah Johnson", Email: "sarah.johnson@company.com"},
		HR:              Approver{ID: "HR001", Name: "Michael Chen", Email: "michael.chen@company.com"},
		Finance:         Approver{ID: "FIN001", Name: "Lisa Rodriguez", Email: "lisa.rodriguez@company.com"},
		IT:              Approver{ID: "IT001", Name: "David Park", Email: "david.park@company.com"},
	}
}

// Manager returns the manager responsible for the given requester
func (d *StaticDirectory) Manager(requesterID string) Approver {
	return d.ManagerApprover
}

// HRApprover returns the HR approver
func (d *StaticDirectory) HRApprover() Approver {
	return d.HR
}

// FinanceApprover returns the finance approver
func (d *StaticDirectory) FinanceApprover() Approver {
	return d.Finance
}

// ITApprover returns the IT approver
func (d *StaticDirectory) ITApprover() Approver {
	return d.IT
}
