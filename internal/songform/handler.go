package songform

import "reflect"

// DeleteConfirmMessage is asked before any delete trigger is allowed through.
const DeleteConfirmMessage = "确定要删除这条点歌请求吗？此操作不可恢复。"

// Notifier shows blocking messages to the user.
type Notifier interface {
	Notify(message string)
	Confirm(message string) bool
}

// Event is the cancellable action behind a submit or click.
type Event interface {
	PreventDefault()
}

// Action is an Event that only records whether it was cancelled.
type Action struct {
	cancelled bool
}

func (a *Action) PreventDefault() { a.cancelled = true }

// Cancelled reports whether PreventDefault was called.
func (a *Action) Cancelled() bool { return a.cancelled }

// Form is the song request form as seen by the handler.
type Form interface {
	Values() Values
	Focus(f Field)
	OnSubmit(fn func(Event))
}

// DeleteTrigger is a control that requests deletion of a record.
type DeleteTrigger interface {
	OnClick(fn func(Event))
}

// Handler adapts validation results and confirmations onto events.
type Handler struct {
	notifier Notifier
}

// NewHandler creates a Handler that reports through n.
func NewHandler(n Notifier) *Handler {
	return &Handler{notifier: n}
}

// Submit validates the form once. On failure it notifies, moves focus to the
// offending field and cancels ev. A valid submission leaves ev untouched.
func (h *Handler) Submit(form Form, ev Event) Result {
	res := Validate(form.Values())
	if res.Valid {
		return res
	}

	h.notifier.Notify(res.Message())
	form.Focus(res.FirstInvalid)
	ev.PreventDefault()
	return res
}

// ConfirmDelete asks for confirmation and cancels ev when declined.
func (h *Handler) ConfirmDelete(ev Event) bool {
	if h.notifier.Confirm(DeleteConfirmMessage) {
		return true
	}
	ev.PreventDefault()
	return false
}

// Init wires the submit check onto form and the confirmation onto every
// trigger present right now. Nil targets, typed or not, are skipped.
func Init(form Form, triggers []DeleteTrigger, n Notifier) *Handler {
	h := NewHandler(n)

	if !absent(form) {
		form.OnSubmit(func(ev Event) {
			h.Submit(form, ev)
		})
	}

	for _, t := range triggers {
		if absent(t) {
			continue
		}
		t.OnClick(func(ev Event) {
			h.ConfirmDelete(ev)
		})
	}

	return h
}

func absent(target any) bool {
	if target == nil {
		return true
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
