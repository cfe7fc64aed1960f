package order

import "time"

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransition returns true if the transition from current to next is valid.
func CanTransition(current, next Status) bool {
	for _, s := range validTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// timestampField names the order column stamped when a status is entered.
type timestampField struct {
	column string
	field  func(o *Order) **time.Time
}

// statusTimestamps is defined for every status. Pending has no timestamp of
// its own; created_at covers it.
var statusTimestamps = map[Status]timestampField{
	StatusPending:   {},
	StatusConfirmed: {"confirmed_at", func(o *Order) **time.Time { return &o.ConfirmedAt }},
	StatusPreparing: {"preparing_at", func(o *Order) **time.Time { return &o.PreparingAt }},
	StatusReady:     {"ready_at", func(o *Order) **time.Time { return &o.ReadyAt }},
	StatusCompleted: {"completed_at", func(o *Order) **time.Time { return &o.CompletedAt }},
	StatusCancelled: {"cancelled_at", func(o *Order) **time.Time { return &o.CancelledAt }},
}

// StatusTimestamp returns when the order entered s. ok is false when s records
// no timestamp or the order has not reached it.
func (o *Order) StatusTimestamp(s Status) (at time.Time, ok bool) {
	tf := statusTimestamps[s]
	if tf.field == nil {
		return time.Time{}, false
	}
	if p := *tf.field(o); p != nil {
		return *p, true
	}
	return time.Time{}, false
}

// enter moves the order to next and stamps the matching timestamp field.
func (o *Order) enter(next Status, at time.Time) {
	o.Status = next
	o.UpdatedAt = at
	if tf := statusTimestamps[next]; tf.field != nil {
		t := at
		*tf.field(o) = &t
	}
}
