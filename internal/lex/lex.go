// Package lex models the Lex V2 code-hook request and response contract
// used by the verification bot. Field names are fixed by the platform.
package lex

// Event is the inbound Lex V2 code-hook event. Only the fields the
// verification flow reads are modeled.
type Event struct {
	MessageVersion   string       `json:"messageVersion,omitempty"`
	InvocationSource string       `json:"invocationSource,omitempty"`
	SessionID        string       `json:"sessionId,omitempty"`
	InputTranscript  string       `json:"inputTranscript,omitempty"`
	SessionState     SessionState `json:"sessionState"`
}

// SessionState carries the dialog state for a session.
type SessionState struct {
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
	DialogAction      *DialogAction     `json:"dialogAction,omitempty"`
	Intent            Intent            `json:"intent"`
}

// Intent is the active intent with its slots.
type Intent struct {
	Name  string           `json:"name"`
	Slots map[string]*Slot `json:"slots,omitempty"`
	State string           `json:"state,omitempty"`
}

// Slot is a single slot with its value.
type Slot struct {
	Value *SlotValue `json:"value,omitempty"`
}

// SlotValue carries the raw and interpreted values of a slot.
type SlotValue struct {
	OriginalValue    string   `json:"originalValue,omitempty"`
	InterpretedValue string   `json:"interpretedValue,omitempty"`
	ResolvedValues   []string `json:"resolvedValues,omitempty"`
}

// DialogAction tells Lex what to do next.
type DialogAction struct {
	Type         string `json:"type"`
	SlotToElicit string `json:"slotToElicit,omitempty"`
}

// Message is a response message shown or spoken to the user.
type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Response is the code-hook response returned to Lex.
type Response struct {
	SessionState SessionState `json:"sessionState"`
	Messages     []Message    `json:"messages,omitempty"`
}

// SlotValue returns the interpreted value of the named slot, or the empty
// string when the slot is absent or unfilled.
func (e *Event) SlotValue(name string) string {
	slot, ok := e.SessionState.Intent.Slots[name]
	if !ok || slot == nil || slot.Value == nil {
		return ""
	}
	return slot.Value.InterpretedValue
}

// Close builds a response that closes the dialog with the given intent state,
// session attributes, and plain-text message.
func Close(intentName, intentState string, sessionAttributes map[string]string, content string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction:      &DialogAction{Type: "Close"},
			Intent:            Intent{Name: intentName, State: intentState},
			SessionAttributes: sessionAttributes,
		},
		Messages: []Message{
			{ContentType: "PlainText", Content: content},
		},
	}
}

// ElicitSlot builds a response asking the user for the named slot.
func ElicitSlot(intentName, slotToElicit, content string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction: &DialogAction{Type: "ElicitSlot", SlotToElicit: slotToElicit},
			Intent:       Intent{Name: intentName, State: "InProgress"},
		},
		Messages: []Message{
			{ContentType: "PlainText", Content: content},
		},
	}
}
