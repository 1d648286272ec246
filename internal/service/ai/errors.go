package ai

import "errors"

var (
	// ErrNotInitialized reports a missing generation credential. It is a
	// precondition failure surfaced as a disabled capability, not a crash.
	ErrNotInitialized = errors.New("generation client not initialized")

	// ErrGeneration reports a failed remote call or a response stream that
	// terminated with no content.
	ErrGeneration = errors.New("generation failed")

	// ErrMediaJob reports a media generation job that ended without usable
	// output or never reached a terminal state.
	ErrMediaJob = errors.New("media job failed")
)
