package auth

const (
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
	RoleHRAdmin  = "HR Admin"
)

const (
	PermOrgRead          = "org.read"
	PermOrgWrite         = "org.write"
	PermKPIRead          = "kpi.read"
	PermKPIWrite         = "kpi.write"
	PermKPIImport        = "kpi.import"
	PermReviewCycleRead  = "review_cycle.read"
	PermReviewCycleWrite = "review_cycle.write"
	PermFeedbackRead     = "feedback.read"
	PermFeedbackWrite    = "feedback.write"
	PermAuditRead        = "audit.read"
	PermJobsRun          = "jobs.run"
)

var DefaultPermissions = []string{
	PermOrgRead,
	PermOrgWrite,
	PermKPIRead,
	PermKPIWrite,
	PermKPIImport,
	PermReviewCycleRead,
	PermReviewCycleWrite,
	PermFeedbackRead,
	PermFeedbackWrite,
	PermAuditRead,
	PermJobsRun,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermOrgRead,
		PermKPIRead,
		PermReviewCycleRead,
		PermFeedbackRead,
		PermFeedbackWrite,
	},
	RoleManager: {
		PermOrgRead,
		PermKPIRead,
		PermReviewCycleRead,
		PermFeedbackRead,
		PermFeedbackWrite,
	},
	RoleHRAdmin: {
		PermOrgRead,
		PermOrgWrite,
		PermKPIRead,
		PermKPIWrite,
		PermKPIImport,
		PermReviewCycleRead,
		PermReviewCycleWrite,
		PermFeedbackRead,
		PermFeedbackWrite,
		PermAuditRead,
		PermJobsRun,
	},
}
