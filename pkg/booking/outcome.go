package booking

// Kind names an outcome variant. It is used as a metrics and log label.
type Kind string

const (
	KindSuccess         Kind = "success"
	KindInvalidTime     Kind = "invalid_time"
	KindSlotTaken       Kind = "slot_taken"
	KindElementNotFound Kind = "element_not_found"
	KindFailure         Kind = "failure"
)

// Outcome is the result of one booking attempt. The implementations in this
// package are the only ones.
type Outcome interface {
	Kind() Kind
	outcome()
}

// Success carries the booking reference and a full-page PNG of the confirmation.
type Success struct {
	Reference  string
	Screenshot []byte
}

// InvalidTime is the portal's message rejecting the start or end time.
type InvalidTime struct {
	Message string
}

// SlotTaken is the portal's message for a slot held by someone else.
type SlotTaken struct {
	Message string
}

// ElementNotFound names the frame or control that never appeared.
type ElementNotFound struct {
	Context string
}

// Failure is any other unsuccessful result.
type Failure struct {
	Message string
}

func (Success) Kind() Kind         { return KindSuccess }
func (InvalidTime) Kind() Kind     { return KindInvalidTime }
func (SlotTaken) Kind() Kind       { return KindSlotTaken }
func (ElementNotFound) Kind() Kind { return KindElementNotFound }
func (Failure) Kind() Kind         { return KindFailure }

func (Success) outcome()         {}
func (InvalidTime) outcome()     {}
func (SlotTaken) outcome()       {}
func (ElementNotFound) outcome() {}
func (Failure) outcome()         {}
