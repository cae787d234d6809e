package domain

import (
	"errors"
	"testing"
)

func TestSender_DisplayName(t *testing.T) {
	tests := []struct {
		name   string
		sender Sender
		want   string
	}{
		{"username wins", Sender{ID: 1, Username: "alice", FirstName: "Alice"}, "alice"},
		{"full name", Sender{ID: 2, FirstName: "Bob", LastName: "Stone"}, "Bob Stone"},
		{"first name only", Sender{ID: 3, FirstName: "Carol"}, "Carol"},
		{"synthetic", Sender{ID: 42}, "User42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sender.DisplayName(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSender_Mention(t *testing.T) {
	if got := (Sender{ID: 1, Username: "alice"}).Mention(); got != "@alice" {
		t.Errorf("Expected @alice, got %s", got)
	}
	if got := (Sender{ID: 1, FirstName: "Alice"}).Mention(); got != "Alice" {
		t.Errorf("Expected Alice, got %s", got)
	}
}

func TestFilterRule_Matches(t *testing.T) {
	rule := &FilterRule{Pattern: NormalizePattern("  GiveAway ")}

	if rule.Pattern != "giveaway" {
		t.Fatalf("Expected normalized pattern giveaway, got %q", rule.Pattern)
	}
	if !rule.Matches("Free GIVEAWAY here") {
		t.Error("Expected case-insensitive match")
	}
	if !rule.Matches("giveaways") {
		t.Error("Expected substring match")
	}
	if rule.Matches("give away") {
		t.Error("Expected no match when whitespace differs")
	}

	empty := &FilterRule{}
	if empty.Matches("anything") {
		t.Error("Expected empty pattern to never match")
	}
}

func TestGroupConfig_Toggle(t *testing.T) {
	cfg := DefaultGroupConfig(-100)

	for _, s := range Settings {
		before := cfg.Enabled(s)
		after, err := cfg.Toggle(s)
		if err != nil {
			t.Fatalf("Toggle(%s) failed: %v", s, err)
		}
		if after == before {
			t.Errorf("Expected %s to flip from %v", s, before)
		}
	}

	if _, err := cfg.Toggle(Setting("bogus")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown setting, got %v", err)
	}
}

func TestGroupConfig_Admins(t *testing.T) {
	cfg := DefaultGroupConfig(-100)

	if !cfg.AddAdmin(7) {
		t.Error("Expected first AddAdmin to report a change")
	}
	if cfg.AddAdmin(7) {
		t.Error("Expected duplicate AddAdmin to be a no-op")
	}
	if !cfg.IsAdmin(7) || cfg.IsAdmin(8) {
		t.Errorf("Unexpected admin set %v", cfg.AdminIDs)
	}

	clone := cfg.Clone()
	clone.AddAdmin(8)
	if cfg.IsAdmin(8) {
		t.Error("Expected clone to not share the admin slice")
	}
}

func TestNewLeaderboard(t *testing.T) {
	board := NewLeaderboard("Top", []User{
		{UserID: 1, Username: "alice", MessageCount: 5},
		{UserID: 2, DisplayName: "Bob", MessageCount: 3},
	})

	if len(board.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(board.Entries))
	}
	if board.Entries[0].Rank != 1 || board.Entries[0].Name != "@alice" || board.Entries[0].Count != 5 {
		t.Errorf("Unexpected first entry %+v", board.Entries[0])
	}
	if board.Entries[1].Rank != 2 || board.Entries[1].Name != "Bob" {
		t.Errorf("Unexpected second entry %+v", board.Entries[1])
	}
}

func TestDecision_Count(t *testing.T) {
	var d Decision
	d.Add(DeleteMessage(1, 10), Warn(1, 2, "warned"), DeleteMessage(1, 11))

	if d.Count(ActionDelete) != 2 {
		t.Errorf("Expected 2 deletes, got %d", d.Count(ActionDelete))
	}
	if d.Count(ActionBan) != 0 {
		t.Errorf("Expected 0 bans, got %d", d.Count(ActionBan))
	}
}
