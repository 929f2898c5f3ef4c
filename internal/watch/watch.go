// Package watch turns a continuously varying scalar into discrete
// enter/in/exit events against a mutable [min, max] range, with optional
// sample debouncing. A Watcher is a single-writer state machine: feed it
// from one goroutine only.
package watch

import "fmt"

// EventType classifies a range transition.
type EventType int

const (
	// Enter: the value moved from outside the range to inside it.
	Enter EventType = iota
	// In: the value changed but stayed inside the range.
	In
	// Exit: the value moved from inside the range to outside it.
	Exit
)

func (t EventType) String() string {
	switch t {
	case Enter:
		return "enter"
	case In:
		return "in"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Event is one qualifying transition. FromBelow is meaningful for Enter
// (the previous value was below the range), IsBelow for Exit (the new value
// left below the range).
type Event struct {
	Type      EventType
	Value     float64
	FromBelow bool
	IsBelow   bool
}

func (e Event) String() string {
	switch e.Type {
	case Enter:
		return fmt.Sprintf("enter(%v, fromBelow=%v)", e.Value, e.FromBelow)
	case Exit:
		return fmt.Sprintf("exit(%v, isBelow=%v)", e.Value, e.IsBelow)
	default:
		return fmt.Sprintf("%v(%v)", e.Type, e.Value)
	}
}

// Watcher tracks one scalar against a [min, max] range. The zero value is
// not useful; use New.
type Watcher struct {
	value      float64
	min, max   float64
	inRange    bool
	samples    int
	sampleSize int
}

// New returns a Watcher over the range [min, max]. sampleSize is the number
// of distinct consecutive values required before a transition is evaluated;
// anything below 1 means no debouncing. The initial state is value −1,
// out of range.
func New(min, max float64, sampleSize int) *Watcher {
	if sampleSize < 1 {
		sampleSize = 1
	}
	return &Watcher{
		value:      -1,
		min:        min,
		max:        max,
		sampleSize: sampleSize,
	}
}

// Reset returns the watcher to its initial state (value −1, out of range),
// used when the monitored context goes away.
func (w *Watcher) Reset() {
	w.value = -1
	w.inRange = false
	w.samples = 0
}

// Value returns the last stored value.
func (w *Watcher) Value() float64 {
	return w.value
}

// InRange reports whether the last evaluation put the value inside the
// range.
func (w *Watcher) InRange() bool {
	return w.inRange
}

// SetValue feeds a new sample. An unchanged value is a no-op. A changed
// value counts toward the sample size; once enough distinct samples have
// arrived the transition is evaluated and at most one event emitted.
func (w *Watcher) SetValue(v float64) (Event, bool) {
	if v == w.value {
		return Event{}, false
	}

	w.samples++
	if w.samples < w.sampleSize {
		w.value = v
		return Event{}, false
	}
	w.samples = 0

	return w.evaluate(v)
}

// SetRangeMin updates the lower bound. An actual change re-evaluates the
// current value against the new range, so a live range redefinition can
// itself produce an enter or exit.
func (w *Watcher) SetRangeMin(v float64) (Event, bool) {
	if v == w.min {
		return Event{}, false
	}
	w.min = v
	return w.evaluate(w.value)
}

// SetRangeMax updates the upper bound, with the same re-evaluation
// semantics as SetRangeMin.
func (w *Watcher) SetRangeMax(v float64) (Event, bool) {
	if v == w.max {
		return Event{}, false
	}
	w.max = v
	return w.evaluate(w.value)
}

func (w *Watcher) evaluate(v float64) (Event, bool) {
	prev := w.value
	w.value = v
	in := v >= w.min && v <= w.max

	switch {
	case in && !w.inRange:
		w.inRange = true
		return Event{Type: Enter, Value: v, FromBelow: prev < w.min}, true
	case in && w.inRange:
		return Event{Type: In, Value: v}, true
	case !in && w.inRange:
		w.inRange = false
		return Event{Type: Exit, Value: v, IsBelow: v < w.min}, true
	default:
		return Event{}, false
	}
}
