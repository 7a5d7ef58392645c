package email

const (
	subjectFollowUp        = "Your plan options, as discussed"
	subjectCallReminderFmt = "Call reminder: %s"
)
