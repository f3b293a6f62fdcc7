package domain

const (
	EventNameSessionsChanged = "sessions.changed"
	EventNameRosterChanged   = "roster.changed"
)

// EventSessionsChanged carries the full collection, date descending. Every
// write re-broadcasts the whole collection rather than a diff.
type EventSessionsChanged struct {
	Sessions []Session
}

func (EventSessionsChanged) Name() string { return EventNameSessionsChanged }

type EventRosterChanged struct {
	Names []string
}

func (EventRosterChanged) Name() string { return EventNameRosterChanged }
