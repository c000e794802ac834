package email

// Reminder carries the rendered details of one session reminder. Date and
// the two clock fields are already human-readable strings; the dispatch
// engine formats them before handing the reminder to a Sender.
type Reminder struct {
	To          string
	Title       string
	Date        string // e.g. "Monday, January 2, 2006"
	StartTime   string // e.g. "2:00 PM"
	EndTime     string
	Description string // optional, empty when the session has none
	LeadMinutes int
}
