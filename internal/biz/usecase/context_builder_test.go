package usecase

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/socialbounty/groupbot/internal/biz/domain"
)

func TestContextBuilder_BuildPrompt(t *testing.T) {
	uc := NewContextBuilderUsecase(DefaultPromptConfig)

	uc.Record(domain.Message{ChatID: testGroup, SenderID: 3, SenderName: "carol", Content: "the deploy broke"})
	uc.Record(domain.Message{ChatID: testGroup, SenderID: testMember, SenderName: "bob", Content: "@groupbot why?"})

	req := aiRequest()
	req.Question = "why?"
	prompt := uc.BuildPrompt(req)

	if !strings.Contains(prompt, "carol: the deploy broke") {
		t.Errorf("Expected history in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, DefaultPromptConfig.CurrentMarker+"\nbob: why?") {
		t.Errorf("Expected current message in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "chat: Test Group") {
		t.Errorf("Expected chat context in prompt, got:\n%s", prompt)
	}
}

func TestContextBuilder_SkipsEmpty(t *testing.T) {
	uc := NewContextBuilderUsecase(DefaultPromptConfig)
	uc.Record(domain.Message{ChatID: testGroup, Content: "   "})

	if n := len(uc.History(testGroup)); n != 0 {
		t.Errorf("Expected empty history, got %d", n)
	}
}

func TestContextBuilder_Truncation(t *testing.T) {
	cfg := DefaultPromptConfig
	cfg.MaxHistoryCount = 2
	cfg.MaxHistoryMinutes = 30
	uc := NewContextBuilderUsecase(cfg)

	now := time.Now()
	uc.Record(domain.Message{ChatID: testGroup, SenderName: "a", Content: "ancient", CreateTime: now.Add(-2 * time.Hour)})
	uc.Record(domain.Message{ChatID: testGroup, SenderName: "b", Content: "recent", CreateTime: now.Add(-10 * time.Minute)})
	uc.Record(domain.Message{ChatID: testGroup, SenderName: "c", Content: "last1", CreateTime: now.Add(-time.Minute)})
	uc.Record(domain.Message{ChatID: testGroup, SenderName: "d", Content: "last2", CreateTime: now})

	result := uc.truncateHistory(uc.History(testGroup))

	if len(result) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(result))
	}
	if result[0].Content != "recent" {
		t.Errorf("Expected time-window message first, got %s", result[0].Content)
	}
}

func TestContextBuilder_Cap(t *testing.T) {
	uc := NewContextBuilderUsecase(DefaultPromptConfig)
	for i := 0; i < historyCap+10; i++ {
		uc.Record(domain.Message{ChatID: testGroup, Content: fmt.Sprintf("m%d", i)})
	}

	history := uc.History(testGroup)
	if len(history) != historyCap {
		t.Fatalf("Expected %d messages, got %d", historyCap, len(history))
	}
	if history[0].Content != "m10" {
		t.Errorf("Expected oldest kept message m10, got %s", history[0].Content)
	}
}
