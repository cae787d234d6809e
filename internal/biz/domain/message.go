package domain

import "time"

// Message is a chat line kept as AI context
type Message struct {
	ChatID     int64
	SenderID   int64
	SenderName string
	Content    string
	CreateTime time.Time
	IsBot      bool // Whether the message was sent by the bot
}

// IsAfter checks if the message is after the specified time
func (m *Message) IsAfter(t time.Time) bool {
	return m.CreateTime.After(t)
}
