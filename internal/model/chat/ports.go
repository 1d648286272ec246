package chat

import "context"

// Generator is the abstract generation capability the conversation core
// drives: streaming replies through a disposable context handle plus
// one-shot media operations.
type Generator interface {
	// NewContext builds a generation context seeded with prior turns under
	// the given mode. Old handles are discarded, never reused.
	NewContext(ctx context.Context, history []Message, mode Mode) (GenerationContext, error)

	// GenerateVideo runs a long-running video job for the prompt and
	// resolves with a playable reference once the job reaches a terminal
	// state.
	GenerateVideo(ctx context.Context, prompt string) (*Attachment, error)
}

// GenerationContext is a stateful conversation handle. StreamReply invokes
// onPartial with the cumulative text so far, in arrival order, at least once
// per received increment, and resolves with the final cumulative text.
type GenerationContext interface {
	StreamReply(ctx context.Context, text string, attachment *Attachment, onPartial func(string)) (string, error)
}
