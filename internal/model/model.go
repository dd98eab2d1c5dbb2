package model

// Text is an optional free-text property value. Valid is false when the
// property is absent from the event, which is different from an empty value.
type Text struct {
	Value string
	Valid bool
}

// NewText returns a present Text holding v.
func NewText(v string) Text {
	return Text{Value: v, Valid: true}
}

// Event is the part of a VEVENT the course transforms operate on. Every
// other property stays on the underlying calendar component and is never
// touched.
type Event struct {
	UID string // iCalendar UID, used for diagnostics only

	Summary     Text
	Location    Text
	Description Text
}
