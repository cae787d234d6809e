package domain

import (
	"fmt"
	"strings"
)

// Sender represents a Telegram account that produced an update (value object)
type Sender struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

// DisplayName returns the username, then the full name, then a synthetic "User<id>"
func (s Sender) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name != "" {
		return name
	}
	return fmt.Sprintf("User%d", s.ID)
}

// Mention formats the sender for inclusion in a message
func (s Sender) Mention() string {
	if s.Username != "" {
		return "@" + s.Username
	}
	return s.DisplayName()
}
