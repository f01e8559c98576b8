package bus

import "time"

// Event kinds published by the core. Subscribers filter by namespace prefix,
// e.g. "timeline." receives every timeline event.
const (
	KindStatusUpdated    = "status.updated"
	KindStatusDeleted    = "status.deleted"
	KindTimelineUpdated  = "timeline.updated"
	KindTimelineStale    = "timeline.stale_changed"
	KindNotifyUpdated    = "notify.updated"
	KindActionFailed     = "action.failed"
	KindAccountRefreshed = "account.refreshed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// StatusChange identifies the status an entity event refers to, scoped by the
// owning account so subscribers never mix accounts up.
type StatusChange struct {
	AccountID string
	StatusID  string
}

// TimelineChange identifies the timeline a list event refers to.
type TimelineChange struct {
	AccountID string
	Timeline  string
	Stale     bool
}

// ActionFailure reports a rolled-back or rejected user action. The initiating
// caller gets the error return; this event is for passive observers only.
type ActionFailure struct {
	AccountID string
	Action    string
	Kind      string
}
