package chat

// Suggestion is one conversation starter shown on an empty chat.
type Suggestion struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

var suggestionTable = []Suggestion{
	{
		Title:  "Create a Story",
		Prompt: "Write a short sci-fi story about a robot who loves gardening.",
	},
	{
		Title:  "Python Debugging",
		Prompt: "Here is a python script that isn't working. Can you find the bug?\n\n```python\ndef sum(a, b):\n  return a - b\n```",
	},
	{
		Title:  "Video Prompt",
		Prompt: "Give me a prompt for a cinematic video of a cyberpunk city rain storm.",
	},
	{
		Title:  "Explain Physics",
		Prompt: "Explain quantum entanglement simply.",
	},
}

// Suggestions returns the starter prompts in display order.
func Suggestions() []Suggestion {
	return append([]Suggestion(nil), suggestionTable...)
}
