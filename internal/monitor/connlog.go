package monitor

import "time"

// DefaultLogCapacity is the number of entries the connection log retains.
const DefaultLogCapacity = 50

// LogStatus classifies a connection log entry.
type LogStatus string

const (
	StatusAllowed LogStatus = "allowed"
	StatusBlocked LogStatus = "blocked"
)

// LogEntry is one line of the connection log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Status  LogStatus `json:"status"`
}

// ConnectionLog is a bounded, newest-first log. Once capacity is exceeded
// the oldest entries are evicted.
type ConnectionLog struct {
	capacity int
	entries  []LogEntry
	now      func() time.Time
}

// NewConnectionLog creates a log holding at most capacity entries.
func NewConnectionLog(capacity int, now func() time.Time) *ConnectionLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &ConnectionLog{
		capacity: capacity,
		entries:  make([]LogEntry, 0, capacity+1),
		now:      now,
	}
}

// Append timestamps and prepends an entry, then trims to capacity.
func (l *ConnectionLog) Append(message string, status LogStatus) LogEntry {
	entry := LogEntry{Time: l.now().UTC(), Message: message, Status: status}

	l.entries = append(l.entries, LogEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry

	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return entry
}

// Entries returns a copy of the log, newest first.
func (l *ConnectionLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *ConnectionLog) Len() int {
	return len(l.entries)
}

// Capacity returns the retention limit.
func (l *ConnectionLog) Capacity() int {
	return l.capacity
}
