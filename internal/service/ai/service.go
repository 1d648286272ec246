// Package ai wraps the remote generation service behind the capability the
// conversation core consumes: context-seeded streaming replies plus
// one-shot video and speech generation.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/omnichat/backend/internal/config"
	"github.com/omnichat/backend/internal/model/chat"
)

// Service implements chat.Generator on top of the Ark model family.
// Construction is cheap; the underlying models are built lazily on first
// use so a missing credential surfaces as a per-operation failure rather
// than a startup crash.
type Service struct {
	cfg    config.AIConfig
	speech config.SpeechConfig
	client *http.Client

	mu     sync.Mutex
	models map[string]model.ChatModel
}

// NewService creates the generation service. No remote calls are made here.
func NewService(cfg config.AIConfig, speechCfg config.SpeechConfig) *Service {
	return &Service{
		cfg:    cfg,
		speech: speechCfg,
		client: &http.Client{Timeout: time.Duration(speechCfg.Timeout) * time.Second},
		models: make(map[string]model.ChatModel),
	}
}

// chatModel returns the cached model for a model id, constructing it on
// first use. Idempotent; safe from concurrent turns.
func (s *Service) chatModel(ctx context.Context, modelID string, temperature float32) (model.ChatModel, error) {
	if !s.cfg.Enabled() {
		return nil, fmt.Errorf("%w: ARK_API_KEY is missing", ErrNotInitialized)
	}

	key := fmt.Sprintf("%s@%.2f", modelID, temperature)

	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.models[key]; ok {
		return m, nil
	}

	m, err := s.cfg.NewChatModel(ctx, modelID, temperature)
	if err != nil {
		return nil, fmt.Errorf("%w: create chat model %s: %v", ErrNotInitialized, modelID, err)
	}
	s.models[key] = m
	return m, nil
}

// Context is a disposable generation handle seeded with history under one
// mode. It accumulates the turns it serves; it is rebuilt, not mutated,
// when the session or mode changes.
type Context struct {
	svc      *Service
	mode     chat.Mode
	runnable compose.Runnable[map[string]any, *schema.Message]
	system   string
	history  []*schema.Message
}

// NewContext builds a generation context for the mode, seeded with the
// given history. Video mode has no persistent context; its handle refuses
// streaming and turns are served by the one-shot job client.
func (s *Service) NewContext(ctx context.Context, history []chat.Message, mode chat.Mode) (chat.GenerationContext, error) {
	cfg, ok := chat.ConfigFor(mode)
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	gen := &Context{
		svc:     s,
		mode:    mode,
		system:  SystemPromptFor(mode),
		history: conversationHistory(history),
	}

	if cfg.Class == chat.ModelNone {
		return gen, nil
	}

	chatModel, err := s.chatModel(ctx, s.cfg.ModelFor(cfg.Class), cfg.Temperature)
	if err != nil {
		return nil, err
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}

	gen.runnable = runnable
	return gen, nil
}

// StreamReply streams the assistant reply for one turn. onPartial receives
// the cumulative text so far, in arrival order. When an attachment is
// present the persistent context is bypassed and a single-turn multimodal
// request goes straight to a vision model.
func (c *Context) StreamReply(ctx context.Context, text string, attachment *chat.Attachment, onPartial func(string)) (string, error) {
	if attachment != nil {
		return c.svc.streamMultimodal(ctx, c.system, text, attachment, onPartial)
	}

	if c.runnable == nil {
		return "", fmt.Errorf("%w: mode %s has no streaming context", ErrGeneration, c.mode)
	}

	input := map[string]any{
		"system":  c.system,
		"history": c.history,
		"query":   text,
	}

	stream, err := c.runnable.Stream(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	full, err := drainStream(stream, onPartial)
	if err != nil {
		return "", err
	}

	// Carry the finished turn forward so the next reply in this context
	// sees it. Multimodal turns are deliberately not carried (see
	// conversationHistory).
	c.history = append(c.history, schema.UserMessage(text), schema.AssistantMessage(full, nil))
	return full, nil
}

// streamMultimodal issues a single-turn request with the attachment inlined
// as a data URL part. Video attachments need the higher-capability vision
// model; image and audio use the default one.
func (s *Service) streamMultimodal(ctx context.Context, system, text string, attachment *chat.Attachment, onPartial func(string)) (string, error) {
	modelID := s.cfg.VisionModel
	if attachment.Kind == chat.AttachmentVideo {
		modelID = s.cfg.VisionProModel
	}

	chatModel, err := s.chatModel(ctx, modelID, 0.7)
	if err != nil {
		return "", err
	}

	parts := make([]schema.ChatMessagePart, 0, 2)
	if strings.TrimSpace(text) != "" {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: text,
		})
	}

	url := attachmentDataURL(attachment)
	switch attachment.Kind {
	case chat.AttachmentImage:
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:      url,
				MIMEType: attachment.MIMEType,
			},
		})
	case chat.AttachmentVideo:
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeVideoURL,
			VideoURL: &schema.ChatMessageVideoURL{
				URL:      url,
				MIMEType: attachment.MIMEType,
			},
		})
	case chat.AttachmentAudio:
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeAudioURL,
			AudioURL: &schema.ChatMessageAudioURL{
				URL:      url,
				MIMEType: attachment.MIMEType,
			},
		})
	default:
		return "", fmt.Errorf("%w: unsupported attachment kind %q", ErrGeneration, attachment.Kind)
	}

	messages := []*schema.Message{
		schema.SystemMessage(system),
		{Role: schema.User, MultiContent: parts},
	}

	stream, err := chatModel.Stream(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return drainStream(stream, onPartial)
}

// drainStream consumes a model stream, invoking onPartial with the
// cumulative text per received chunk, and returns the final text. A stream
// that ends with no content is an error.
func drainStream(stream *schema.StreamReader[*schema.Message], onPartial func(string)) (string, error) {
	defer stream.Close()

	var builder strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		builder.WriteString(chunk.Content)
		if onPartial != nil {
			onPartial(builder.String())
		}
	}

	full := builder.String()
	if full == "" {
		return "", fmt.Errorf("%w: stream ended with no content", ErrGeneration)
	}

	log.Printf("[ai] stream complete, length=%d", len(full))
	return full, nil
}

func attachmentDataURL(attachment *chat.Attachment) string {
	return "data:" + attachment.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(attachment.Data)
}
