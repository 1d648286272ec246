package chat

import "fmt"

// Mode selects the assistant behavior profile for a conversation.
type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeHomework Mode = "homework"
	ModeCoding   Mode = "coding"
	ModeCreative Mode = "creative"
	ModeVideo    Mode = "video"
)

// ModelClass names the backing-model tier a mode runs on.
type ModelClass string

const (
	// ModelLight is the low-latency conversational tier.
	ModelLight ModelClass = "light"
	// ModelReasoning is the higher-capability tier for stepwise work.
	ModelReasoning ModelClass = "reasoning"
	// ModelNone marks modes served exclusively by one-shot media calls.
	ModelNone ModelClass = "none"
)

// ModeConfig is one row of the mode policy table: the model tier, sampling
// temperature and display metadata for a mode. Keeping the table in one
// place keeps the policy testable instead of scattering branches across
// call sites.
type ModeConfig struct {
	Mode        Mode       `json:"mode"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Class       ModelClass `json:"-"`
	Temperature float32    `json:"-"`
}

var modeTable = []ModeConfig{
	{
		Mode:        ModeGeneral,
		Label:       "General Chat",
		Description: "Natural conversation & text generation.",
		Class:       ModelLight,
		Temperature: 0.7,
	},
	{
		Mode:        ModeHomework,
		Label:       "Homework Solver",
		Description: "Step-by-step solutions & educational help.",
		Class:       ModelReasoning,
		Temperature: 0.3,
	},
	{
		Mode:        ModeCoding,
		Label:       "Coding Expert",
		Description: "Code generation, debugging & explanation.",
		Class:       ModelReasoning,
		Temperature: 0.2,
	},
	{
		Mode:        ModeCreative,
		Label:       "Creative Studio",
		Description: "Brainstorming, design & storytelling.",
		Class:       ModelReasoning,
		Temperature: 1.0,
	},
	{
		Mode:        ModeVideo,
		Label:       "Video Creator",
		Description: "Generate AI videos from text prompts.",
		Class:       ModelNone,
		Temperature: 0.7,
	},
}

// Modes returns the closed mode table in display order.
func Modes() []ModeConfig {
	return append([]ModeConfig(nil), modeTable...)
}

// ConfigFor looks up the policy row for a mode.
func ConfigFor(mode Mode) (ModeConfig, bool) {
	for _, cfg := range modeTable {
		if cfg.Mode == mode {
			return cfg, true
		}
	}
	return ModeConfig{}, false
}

// ParseMode validates a wire value against the closed enumeration.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(raw)
	if _, ok := ConfigFor(mode); !ok {
		return "", fmt.Errorf("unknown mode %q", raw)
	}
	return mode, nil
}
