package email

const (
	subjectConfirmation = "Your repair appointment is booked"
	subjectReminder     = "Reminder: your repair appointment is tomorrow"
	subjectCancellation = "Your repair appointment was cancelled"
)
