package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omnichat/backend/internal/model/chat"
	"github.com/omnichat/backend/internal/service/conversation"
	"github.com/omnichat/backend/internal/storage"
)

type scriptedContext struct {
	partials []string
	final    string
	err      error
}

func (s scriptedContext) StreamReply(_ context.Context, _ string, _ *chat.Attachment, onPartial func(string)) (string, error) {
	for _, p := range s.partials {
		onPartial(p)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.final, nil
}

type scriptedGenerator struct {
	ctx scriptedContext
}

func (g scriptedGenerator) NewContext(context.Context, []chat.Message, chat.Mode) (chat.GenerationContext, error) {
	return g.ctx, nil
}

func (g scriptedGenerator) GenerateVideo(context.Context, string) (*chat.Attachment, error) {
	return nil, nil
}

func newHandler(t *testing.T, gen scriptedGenerator) *Handler {
	t.Helper()
	store := storage.NewStore(filepath.Join(t.TempDir(), "sessions.json"))
	return New(conversation.New(context.Background(), store, gen))
}

func TestHandleStreamRequestEmitsFrames(t *testing.T) {
	h := newHandler(t, scriptedGenerator{ctx: scriptedContext{
		partials: []string{"Hel", "Hello"},
		final:    "Hello",
	}})

	rec := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), rec, "hi"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`"event":"start"`,
		`"event":"user"`,
		`"event":"delta"`,
		`"event":"message"`,
		`"event":"end"`,
		`"content":"Hello"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in stream body:\n%s", want, body)
		}
	}

	// Deltas carry the full accumulated text, not increments.
	if !strings.Contains(body, `"content":"Hel"`) {
		t.Fatalf("missing first cumulative delta in body:\n%s", body)
	}
}

func TestHandleStreamRequestEmptyTurn(t *testing.T) {
	h := newHandler(t, scriptedGenerator{})

	rec := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), rec, "   "); err != nil {
		t.Fatalf("rejections must be absorbed into the stream, got %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"event":"error"`) {
		t.Fatalf("expected error frame, body:\n%s", body)
	}
	if strings.Contains(body, `"event":"end"`) {
		t.Fatalf("rejected turn must not emit an end frame, body:\n%s", body)
	}
}

func TestHandleStreamRequestGenerationFailureStillEnds(t *testing.T) {
	h := newHandler(t, scriptedGenerator{ctx: scriptedContext{err: errors.New("remote fault")}})

	rec := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), rec, "break"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"isError":true`) {
		t.Fatalf("expected error-marked message frame, body:\n%s", body)
	}
	if !strings.Contains(body, `"event":"end"`) {
		t.Fatalf("turn with a failed generation still ends the stream, body:\n%s", body)
	}
}
