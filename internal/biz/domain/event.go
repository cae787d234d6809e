package domain

// ChatType is the Telegram chat type
type ChatType string

const (
	ChatTypePrivate    ChatType = "private"
	ChatTypeGroup      ChatType = "group"
	ChatTypeSupergroup ChatType = "supergroup"
	ChatTypeChannel    ChatType = "channel"
)

// IsGroup reports whether the chat is a group or supergroup
func (t ChatType) IsGroup() bool {
	return t == ChatTypeGroup || t == ChatTypeSupergroup
}

// Callback is an inline keyboard button press
type Callback struct {
	ID        string
	Data      string
	MessageID int
}

// Update is a platform-neutral view of one incoming Telegram update
type Update struct {
	UpdateID   int
	ChatID     int64
	ChatType   ChatType
	ChatTitle  string
	MessageID  int
	From       Sender
	Text       string // message text or media caption
	HasLink    bool   // url or text_link entity present
	IsForward  bool
	NewMembers []Sender
	LeftMember *Sender
	ReplyTo    *Sender // author of the message being replied to
	Callback   *Callback
}

// EventKind classifies an update
type EventKind string

const (
	EventJoin        EventKind = "join"
	EventLeave       EventKind = "leave"
	EventCommand     EventKind = "command"
	EventAdminAction EventKind = "admin-action"
	EventText        EventKind = "text"
	EventCallback    EventKind = "callback"
)

// Event is a classified update
type Event struct {
	Kind         EventKind
	UpdateID     int
	ChatID       int64
	ChatType     ChatType
	ChatTitle    string
	MessageID    int
	From         Sender
	FromAdmin    bool
	Text         string
	Command      string
	Args         []string
	ArgText      string // text after the command, inner whitespace kept
	Members      []Sender
	ReplyTo      *Sender
	MentionsBot  bool
	RepliesToBot bool
	HasLink      bool
	IsForward    bool
	Callback     *Callback
}

// IsPrivate reports whether the event came from a private chat
func (e *Event) IsPrivate() bool {
	return e.ChatType == ChatTypePrivate
}
