// internal/domain/reminder/reminder.go
package reminder

import (
	"fmt"
	"time"
)

// Kind tells what a reminder announces.
type Kind string

const (
	KindWorkEnd   Kind = "work_end"  // Break starts
	KindBreakEnd  Kind = "break_end" // Work resumes
	KindHeartbeat Kind = "heartbeat" // Silent "still running" marker for long sessions
)

// Fixed identifiers reused across plans so a newer plan overwrites an older one.
const (
	IDWorkEnd         = "work-end"
	IDBreakEnd        = "break-end"
	HeartbeatIDPrefix = "heartbeat-"
)

// RetiredID is the identifier a due, undelivered reminder is kept under once a
// newer plan takes over its fixed id.
func RetiredID(id string, fireAt time.Time) string {
	return fmt.Sprintf("%s@%d", id, fireAt.UnixNano())
}

// HeartbeatID returns the sequential identifier of the n-th heartbeat.
func HeartbeatID(n int) string {
	return fmt.Sprintf("%s%d", HeartbeatIDPrefix, n)
}

// Reminder is one scheduled notification with an absolute firing time.
type Reminder struct {
	ID     string
	FireAt time.Time
	Kind   Kind
	Title  string
	Body   string
	Silent bool
}

// Plan is an ordered set of reminders generated when a phase starts.
type Plan []Reminder

// IDs returns the identifiers in plan order.
func (p Plan) IDs() []string {
	ids := make([]string, 0, len(p))
	for _, r := range p {
		ids = append(ids, r.ID)
	}
	return ids
}

// Find returns the reminder with the given id, if present.
func (p Plan) Find(id string) (Reminder, bool) {
	for _, r := range p {
		if r.ID == id {
			return r, true
		}
	}
	return Reminder{}, false
}
