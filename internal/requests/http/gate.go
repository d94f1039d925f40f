package http

import "github.com/campus-radio/songdesk/internal/songform"

// responseNotifier records what the form handler would have shown and answers
// confirmations with the flag sent by the client.
type responseNotifier struct {
	messages  []string
	confirmed bool
}

func (n *responseNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func (n *responseNotifier) Confirm(message string) bool {
	n.messages = append(n.messages, message)
	return n.confirmed
}

func (n *responseNotifier) last() string {
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

// boundForm presents a decoded submission as a songform.Form.
type boundForm struct {
	values  songform.Values
	focused songform.Field
	submit  func(songform.Event)
}

func (f *boundForm) Values() songform.Values          { return f.values }
func (f *boundForm) Focus(field songform.Field)       { f.focused = field }
func (f *boundForm) OnSubmit(fn func(songform.Event)) { f.submit = fn }

// deleteButton is the single delete control of an admin request.
type deleteButton struct {
	click func(songform.Event)
}

func (b *deleteButton) OnClick(fn func(songform.Event)) { b.click = fn }

// gateSubmission runs the form's submit check. It returns the focused field
// and the message when the submission is cancelled.
func gateSubmission(v songform.Values) (songform.Field, string, bool) {
	n := &responseNotifier{}
	form := &boundForm{values: v}
	songform.Init(form, nil, n)

	ev := &songform.Action{}
	form.submit(ev)
	if ev.Cancelled() {
		return form.focused, n.last(), false
	}
	return songform.FieldNone, "", true
}

// gateDeletion runs the delete confirmation with the client's answer.
func gateDeletion(confirmed bool) bool {
	n := &responseNotifier{confirmed: confirmed}
	btn := &deleteButton{}
	songform.Init(nil, []songform.DeleteTrigger{btn}, n)

	ev := &songform.Action{}
	btn.click(ev)
	return !ev.Cancelled()
}
