package email

const (
	subjectPasswordChanged     = "Your password was changed"
	subjectWorkflowUploadedFmt = "Workflow %s was delivered"
	subjectRoleChanged         = "Your portal access was updated"
)
