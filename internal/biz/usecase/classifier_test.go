package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

const (
	testGroup  int64 = -1001
	testBotID  int64 = 999
	testAdmin  int64 = 1
	testMember int64 = 2
)

func adminsOnly(id int64) bool { return id == testAdmin }

func groupUpdate(from int64, text string) *domain.Update {
	return &domain.Update{
		UpdateID:  1,
		ChatID:    testGroup,
		ChatType:  domain.ChatTypeSupergroup,
		ChatTitle: "Test Group",
		MessageID: 10,
		From:      domain.Sender{ID: from, Username: "user" + string(rune('a'+from))},
		Text:      text,
	}
}

func TestClassifier_Kinds(t *testing.T) {
	c := NewClassifier(testBotID, "groupbot", testGroup)

	tests := []struct {
		name    string
		update  *domain.Update
		kind    domain.EventKind
		command string
		wantErr error
	}{
		{"plain text", groupUpdate(testMember, "hello"), domain.EventText, "", nil},
		{"public command", groupUpdate(testMember, "/stats"), domain.EventCommand, "stats", nil},
		{"admin command by admin", groupUpdate(testAdmin, "/filter add spam"), domain.EventAdminAction, "filter", nil},
		{"admin command by member", groupUpdate(testMember, "/ban @x"), domain.EventAdminAction, "ban", domain.ErrUnauthorized},
		{"addressed to us", groupUpdate(testAdmin, "/topusers@GroupBot"), domain.EventAdminAction, "topusers", nil},
		{"addressed to other bot", groupUpdate(testMember, "/ban@otherbot @x"), domain.EventText, "", nil},
		{"unknown command", groupUpdate(testMember, "/dance"), domain.EventText, "", nil},
		{"upper case command", groupUpdate(testMember, "/START"), domain.EventCommand, "start", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := c.Classify(tt.update, adminsOnly)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, ev)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.command, ev.Command)
		})
	}
}

func TestClassifier_MembershipTakesPriority(t *testing.T) {
	c := NewClassifier(testBotID, "groupbot", testGroup)

	u := groupUpdate(testMember, "/ban @x")
	u.NewMembers = []domain.Sender{{ID: 5, FirstName: "New"}}
	ev, err := c.Classify(u, adminsOnly)
	require.NoError(t, err)
	assert.Equal(t, domain.EventJoin, ev.Kind)
	assert.Len(t, ev.Members, 1)

	u = groupUpdate(testMember, "")
	u.LeftMember = &domain.Sender{ID: 5}
	ev, err = c.Classify(u, adminsOnly)
	require.NoError(t, err)
	assert.Equal(t, domain.EventLeave, ev.Kind)
}

func TestClassifier_Args(t *testing.T) {
	c := NewClassifier(testBotID, "groupbot", testGroup)

	ev, err := c.Classify(groupUpdate(testAdmin, "/filter   add  free   money"), adminsOnly)
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "free", "money"}, ev.Args)
	assert.Equal(t, "add  free   money", ev.ArgText)

	ev, err = c.Classify(groupUpdate(testAdmin, "/filter@groupbot"), adminsOnly)
	require.NoError(t, err)
	assert.Empty(t, ev.ArgText)
}

func TestClassifier_TextFlags(t *testing.T) {
	c := NewClassifier(testBotID, "groupbot", testGroup)

	u := groupUpdate(testMember, "hey @GroupBot what is this? see www.example.com")
	u.ReplyTo = &domain.Sender{ID: testBotID, IsBot: true}
	ev, err := c.Classify(u, adminsOnly)
	require.NoError(t, err)
	assert.True(t, ev.MentionsBot)
	assert.True(t, ev.RepliesToBot)
	assert.True(t, ev.HasLink)
	assert.False(t, ev.FromAdmin)

	ev, err = c.Classify(groupUpdate(testAdmin, "nothing special"), adminsOnly)
	require.NoError(t, err)
	assert.False(t, ev.MentionsBot)
	assert.False(t, ev.HasLink)
	assert.True(t, ev.FromAdmin)
}

func TestClassifier_Dropped(t *testing.T) {
	c := NewClassifier(testBotID, "groupbot", testGroup)

	other := groupUpdate(testMember, "hello")
	other.ChatID = -2002
	ev, err := c.Classify(other, adminsOnly)
	assert.NoError(t, err)
	assert.Nil(t, ev, "updates from other groups are ignored")

	empty := groupUpdate(testMember, "  ")
	ev, err = c.Classify(empty, adminsOnly)
	assert.NoError(t, err)
	assert.Nil(t, ev, "updates without text are ignored")

	channel := groupUpdate(testMember, "post")
	channel.ChatType = domain.ChatTypeChannel
	ev, err = c.Classify(channel, adminsOnly)
	assert.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = c.Classify(nil, adminsOnly)
	assert.NoError(t, err)
	assert.Nil(t, ev)
}

func TestClassifier_Callback(t *testing.T) {
	c := NewClassifier(testBotID, "groupbot", testGroup)

	u := &domain.Update{
		ChatID:   testAdmin,
		ChatType: domain.ChatTypePrivate,
		From:     domain.Sender{ID: testAdmin},
		Callback: &domain.Callback{ID: "cb", Data: "settings:ai", MessageID: 3},
	}
	ev, err := c.Classify(u, adminsOnly)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCallback, ev.Kind)
	assert.True(t, ev.FromAdmin)
}
