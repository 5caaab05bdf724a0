package notifications

const (
	TypeReviewReminder          = "review_reminder"
	TypeFeedbackRequested       = "feedback_requested"
	TypeFeedbackRequestReminder = "feedback_request_reminder"
	TypeFeedbackReceived        = "feedback_received"
	TypeFeedbackBroadcast       = "feedback_broadcast"
	TypeKPIImportFinished       = "kpi_import_finished"
)
