package ai

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/omnichat/backend/internal/model/chat"
)

const baseInstruction = `You are a Smart Chat Assistant. Your goal is to be helpful, friendly, and intelligent across a variety of tasks.

### CAPABILITIES

**TEXT**
- Write scripts, summaries, explain topics simply.
- Create notes, essays, assignments, stories, dialogues.
- Generate clean runnable code in any language.

**IMAGE GENERATION**
- Create perfect image-generation prompts (style, lighting, details).
- Create prompts for thumbnails, logos, and AI art.

**VIDEO GENERATION**
- In Video Creator mode the system generates videos for you.
- In other modes, write perfect prompts for AI video tools.
- Provide scene-by-scene descriptions, camera angles, story flow.

**AUDIO / VOICE**
- Write voice-over scripts and TTS-ready narration.

### RULES YOU MUST FOLLOW
- Use simple English. Be friendly and helpful.
- Break long answers into steps.
- Give examples when teaching.
- Provide complete code with explanations.
- Give full prompts for images/videos.
- Never say "I can't do that" unless it violates safety rules.

### TONE STYLE
- Smart but friendly.
- Easy to read. No complicated words unless requested.
- Short, clean paragraphs.`

// modeFocus is appended to the base instruction so each mode steers the
// assistant without replacing the shared behavior rules.
var modeFocus = map[chat.Mode]string{
	chat.ModeGeneral:  "Focus: natural conversation. Answer questions clearly and directly.",
	chat.ModeHomework: "Focus: homework help. Solve step by step and explain every step like a patient teacher.",
	chat.ModeCoding:   "Focus: software engineering. Provide full runnable code, name the language, and explain the key decisions.",
	chat.ModeCreative: "Focus: creative work. Be imaginative with characters, branding, scenes and stories.",
	chat.ModeVideo:    "Focus: video creation. Turn the user's idea into a vivid, concrete video prompt.",
}

// SystemPromptFor builds the full system instruction for a mode.
func SystemPromptFor(mode chat.Mode) string {
	focus, ok := modeFocus[mode]
	if !ok {
		return baseInstruction
	}

	var builder strings.Builder
	builder.WriteString(baseInstruction)
	builder.WriteString("\n\n### CURRENT MODE\n")
	builder.WriteString(focus)
	return builder.String()
}

// conversationHistory converts stored messages into model schema messages.
// Error-marked messages are dropped, and so are messages carrying
// attachments: multimodal turns go through the single-turn path, so media
// is not replayed into rebuilt contexts. Known limitation: a text reply
// that answered an attachment still appears without the media it refers to.
func conversationHistory(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.IsError || msg.Attachment != nil {
			continue
		}
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.SenderAI:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}

	return history
}
