package chat

import (
	"strings"
	"testing"
)

func TestDeriveTitleShortTextVerbatim(t *testing.T) {
	messages := []Message{{Text: "Explain quantum entanglement", Sender: SenderUser}}

	if got := DeriveTitle(messages); got != "Explain quantum entanglement" {
		t.Fatalf("unexpected title: %q", got)
	}
}

func TestDeriveTitleTruncatesAtThirtyCodePoints(t *testing.T) {
	long := strings.Repeat("a", 31)
	messages := []Message{{Text: long, Sender: SenderUser}}

	got := DeriveTitle(messages)
	want := strings.Repeat("a", 30) + "..."
	if got != want {
		t.Fatalf("unexpected title: got %q want %q", got, want)
	}
}

func TestDeriveTitleCountsCodePointsNotBytes(t *testing.T) {
	// 30 multibyte code points must survive untruncated.
	text := strings.Repeat("世", 30)
	messages := []Message{{Text: text, Sender: SenderUser}}

	if got := DeriveTitle(messages); got != text {
		t.Fatalf("multibyte title truncated: %q", got)
	}

	messages[0].Text = text + "界"
	got := DeriveTitle(messages)
	if got != text+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestDeriveTitleEmptyLogFallsBack(t *testing.T) {
	if got := DeriveTitle(nil); got != "New Chat" {
		t.Fatalf("unexpected fallback title: %q", got)
	}
}

func TestDeriveTitleAttachmentOnlyFirstMessage(t *testing.T) {
	messages := []Message{{
		Sender:     SenderUser,
		Attachment: &Attachment{Kind: AttachmentImage, MIMEType: "image/png"},
	}}

	// Degenerates to the empty string; the store must tolerate this.
	if got := DeriveTitle(messages); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}
