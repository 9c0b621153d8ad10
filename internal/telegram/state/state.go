// Package state tracks per-chat conversation sessions for the ad placement
// flow. The store is injected into the flow controller rather than being a
// package-level map so tests can run against isolated instances.
package state

// Step identifies a position in the ad placement conversation.
type Step string

const (
	// StepIdle indicates there is no active conversation in the chat.
	StepIdle Step = "idle"
	// StepSelectChannel waits for a publishing channel choice.
	StepSelectChannel Step = "select_channel"
	// StepSelectDuration waits for a rental duration choice.
	StepSelectDuration Step = "select_duration"
	// StepEnterMedia waits for an optional photo/video attachment.
	StepEnterMedia Step = "enter_media"
	// StepEnterText waits for the ad copy.
	StepEnterText Step = "enter_text"
	// StepBroadcast waits for the admin's broadcast message.
	StepBroadcast Step = "broadcast"
)

// Fields accumulates values collected through the flow. Advancing a step
// never clears earlier fields; re-entering a step overwrites its field.
type Fields struct {
	Channel   string
	Duration  string
	Price     int
	Currency  string
	MediaType string
	MediaID   string
}

// Session is the conversation state of one chat.
type Session struct {
	Step   Step
	Fields Fields
}

// Store manages sessions keyed by chat id.
type Store interface {
	// Get returns the current session, or an idle one if none exists.
	Get(chatID int64) Session
	// SetStep moves the chat to a new step without touching fields.
	SetStep(chatID int64, step Step)
	// Update applies fn to the session under the store lock.
	Update(chatID int64, fn func(*Session))
	// Clear resets the chat to idle with empty fields.
	Clear(chatID int64)
	// InProgress reports whether the chat has an active conversation.
	InProgress(chatID int64) bool
	// Acquire serializes handling per chat; the returned func releases it.
	Acquire(chatID int64) (release func())
}
