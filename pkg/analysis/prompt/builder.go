package prompt

import (
	"strings"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/pkg/llm"
)

// Builder assembles the provider-agnostic chat context for one analysis turn.
type Builder struct {
	analysis *entity.Analysis
	history  []*entity.Message
}

func NewBuilder(analysis *entity.Analysis, history []*entity.Message) *Builder {
	return &Builder{
		analysis: analysis,
		history:  history,
	}
}

// Build renders the system prompt plus the conversation so far.
func (b *Builder) Build() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+1)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: b.systemPrompt(),
	})
	for _, m := range b.history {
		role := "user"
		if m.Role == constant.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: m.Content,
		})
	}
	return messages
}

// BuildOpening renders the context for the analysis's very first question,
// before any conversation exists.
func (b *Builder) BuildOpening() []llm.Message {
	return []llm.Message{
		{Role: "system", Content: b.systemPrompt()},
		{Role: "user", Content: "Start the requirements analysis by asking your first clarifying question."},
	}
}

func (b *Builder) systemPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a requirements analyst refining a software epic through clarifying questions.\n")
	prompt.WriteString("Ask one focused question per turn, covering functional requirements, non-functional requirements, business rules and acceptance criteria.\n")
	prompt.WriteString("The analysis is currently in the " + string(b.analysis.CurrentPhase) + " phase.\n")
	prompt.WriteString("</task>\n\n")

	if b.analysis.EpicContent != "" {
		prompt.WriteString("<epic>\n")
		prompt.WriteString(b.analysis.EpicContent)
		prompt.WriteString("\n</epic>\n\n")
	}

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Start each question with a category tag on its own line: [CATEGORY: <name>]\n")
	prompt.WriteString("2. Valid categories: ")
	names := make([]string, 0, len(constant.AllCategories))
	for _, c := range constant.AllCategories {
		names = append(names, string(c))
	}
	prompt.WriteString(strings.Join(names, ", "))
	prompt.WriteString("\n")
	prompt.WriteString("3. Build on earlier answers; never repeat a question already answered\n")
	prompt.WriteString("</guidelines>\n")

	return prompt.String()
}

// ParseCategory extracts the [CATEGORY: ...] tag from an assistant reply.
// Replies without a recognizable tag are simply untagged.
func ParseCategory(reply string) *constant.QuestionCategory {
	const marker = "[CATEGORY:"
	start := strings.Index(reply, marker)
	if start < 0 {
		return nil
	}
	rest := reply[start+len(marker):]
	end := strings.Index(rest, "]")
	if end < 0 {
		return nil
	}
	raw := strings.ToUpper(strings.TrimSpace(rest[:end]))
	if category, ok := constant.ParseCategory(raw); ok {
		return &category
	}
	return nil
}
