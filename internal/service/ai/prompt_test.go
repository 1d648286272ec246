package ai

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/omnichat/backend/internal/model/chat"
)

func TestSystemPromptForIncludesModeFocus(t *testing.T) {
	for _, mode := range []chat.Mode{chat.ModeGeneral, chat.ModeHomework, chat.ModeCoding, chat.ModeCreative, chat.ModeVideo} {
		prompt := SystemPromptFor(mode)
		if !strings.Contains(prompt, "Smart Chat Assistant") {
			t.Fatalf("mode %q lost the base instruction", mode)
		}
		if !strings.Contains(prompt, "### CURRENT MODE") {
			t.Fatalf("mode %q missing the focus section", mode)
		}
		if !strings.Contains(prompt, modeFocus[mode]) {
			t.Fatalf("mode %q missing its focus line", mode)
		}
	}
}

func TestSystemPromptForUnknownModeFallsBack(t *testing.T) {
	prompt := SystemPromptFor(chat.Mode("unknown"))
	if prompt != baseInstruction {
		t.Fatal("unknown mode should reuse the bare base instruction")
	}
}

func TestConversationHistoryFiltersAndMapsRoles(t *testing.T) {
	messages := []chat.Message{
		{Sender: chat.SenderUser, Text: "hello"},
		{Sender: chat.SenderAI, Text: "hi there"},
		{Sender: chat.SenderAI, Text: "I encountered an error. Please try again.", IsError: true},
		{Sender: chat.SenderUser, Text: "look at this", Attachment: &chat.Attachment{Kind: chat.AttachmentImage, MIMEType: "image/png"}},
		{Sender: chat.SenderUser, Text: "and a follow-up"},
	}

	history := conversationHistory(messages)
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}

	if history[0].Role != schema.User || history[0].Content != "hello" {
		t.Fatalf("unexpected first entry: %+v", history[0])
	}
	if history[1].Role != schema.Assistant || history[1].Content != "hi there" {
		t.Fatalf("unexpected second entry: %+v", history[1])
	}
	if history[2].Role != schema.User || history[2].Content != "and a follow-up" {
		t.Fatalf("unexpected third entry: %+v", history[2])
	}
}

func TestConversationHistoryEmptyLog(t *testing.T) {
	if got := conversationHistory(nil); got != nil {
		t.Fatalf("expected nil history, got %v", got)
	}
}
