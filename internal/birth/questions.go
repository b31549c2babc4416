package birth

// Option is one selectable answer
type Option struct {
	Category Category
	Text     string
}

// Question is one quiz step
type Question struct {
	ID      string
	Prompt  string
	Options []Option
}

// Questions is the fixed quiz, asked in order
var Questions = []Question{
	{
		ID:     "approach",
		Prompt: "When facing a problem, you usually...",
		Options: []Option{
			{Analyst, "Research and analyze data"},
			{Creator, "Brainstorm creative solutions"},
			{Hybrid, "Mix of both"},
		},
	},
	{
		ID:     "content",
		Prompt: "You prefer content that is...",
		Options: []Option{
			{Analyst, "Factual and well-sourced"},
			{Creator, "Imaginative and inspiring"},
			{Hybrid, "Depends on the situation"},
		},
	},
	{
		ID:     "help",
		Prompt: "You mostly need help with...",
		Options: []Option{
			{Analyst, "Research and understanding"},
			{Creator, "Creating and expressing ideas"},
			{Hybrid, "A variety of tasks"},
		},
	},
	{
		ID:     "style",
		Prompt: "Your ideal AI assistant is...",
		Options: []Option{
			{Analyst, "Precise and thorough"},
			{Creator, "Playful and imaginative"},
			{Hybrid, "Adaptable to my needs"},
		},
	},
}
