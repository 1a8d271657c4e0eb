package supervisor

import "time"

// EventType captures a single transition of the state machine from
// SPEC_FULL.md §4.1, for callers that want to log or render supervision
// progress (the runner CLI's plain-text log lines and the --watch TUI both
// drain the same channel).
type EventType string

const (
	EventSpawning        EventType = "spawning"
	EventWaiting         EventType = "waiting"
	EventExitedNatural   EventType = "exited_natural"
	EventKillingGraceful EventType = "killing_graceful"
	EventKillingForce    EventType = "killing_force"
	EventReleased        EventType = "released"
	EventError           EventType = "error"
)

// Event is a single state-machine notification. ChildPID is set only on
// the EventWaiting event, emitted once the root process has been spawned
// and attached; it is 0 on every other event.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Message   string
	Err       error
	ChildPID  int
}

// sendEvent delivers a best-effort notification: a full channel drops the
// event rather than block the state machine, matching the teacher's
// engine.sendEvent non-blocking convention.
func sendEvent(events chan<- Event, t EventType, message string, err error) {
	sendEventPID(events, t, message, err, 0)
}

func sendEventPID(events chan<- Event, t EventType, message string, err error, pid int) {
	if events == nil {
		return
	}
	evt := Event{Timestamp: time.Now(), Type: t, Message: message, Err: err, ChildPID: pid}
	select {
	case events <- evt:
	default:
	}
}
