package domain

import "time"

// ActionKind is the kind of side effect a decision asks for
type ActionKind string

const (
	ActionDelete         ActionKind = "delete"
	ActionSendText       ActionKind = "send_text"
	ActionWarn           ActionKind = "warn"
	ActionSendPhoto      ActionKind = "send_photo"
	ActionBan            ActionKind = "ban"
	ActionUnban          ActionKind = "unban"
	ActionEditKeyboard   ActionKind = "edit_keyboard"
	ActionAnswerCallback ActionKind = "answer_callback"
)

// Button is an inline keyboard button
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row
type Keyboard [][]Button

// Action is one side effect against the messaging platform
type Action struct {
	Kind        ActionKind
	ChatID      int64
	MessageID   int // target for delete/edit, reply-to for sends
	UserID      int64
	Text        string
	Photo       []byte
	Keyboard    Keyboard
	DeleteAfter time.Duration // sent messages only, 0 keeps the message
	CallbackID  string
}

// AIRequest asks for an AI reply after the decision's actions have run
type AIRequest struct {
	ChatID    int64
	ChatTitle string
	ReplyTo   int
	UserID    int64
	Asker     string
	Question  string
}

// Decision is the ordered output of the moderation policy for one event
type Decision struct {
	Actions []Action
	AI      *AIRequest
	Reason  string
}

// Add appends actions to the decision
func (d *Decision) Add(actions ...Action) {
	d.Actions = append(d.Actions, actions...)
}

// Count returns how many actions of the given kind the decision holds
func (d *Decision) Count(kind ActionKind) int {
	n := 0
	for _, a := range d.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// DeleteMessage builds a delete action
func DeleteMessage(chatID int64, messageID int) Action {
	return Action{Kind: ActionDelete, ChatID: chatID, MessageID: messageID}
}

// Reply builds a send-text action replying to messageID (0 for none)
func Reply(chatID int64, messageID int, text string) Action {
	return Action{Kind: ActionSendText, ChatID: chatID, MessageID: messageID, Text: text}
}

// Warn builds a warning addressed to userID
func Warn(chatID int64, userID int64, text string) Action {
	return Action{Kind: ActionWarn, ChatID: chatID, UserID: userID, Text: text}
}

// Ban builds a ban action
func Ban(chatID, userID int64) Action {
	return Action{Kind: ActionBan, ChatID: chatID, UserID: userID}
}

// Unban builds an unban action
func Unban(chatID, userID int64) Action {
	return Action{Kind: ActionUnban, ChatID: chatID, UserID: userID}
}
