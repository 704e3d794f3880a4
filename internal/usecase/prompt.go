package usecase

import (
	"strings"

	"hackathon-assistant/internal/domain"
)

const (
	contextHeader  = "Context:"
	questionHeader = "User Question:"
	notFoundPhrase = "I'm sorry, I couldn't find this information"
)

// Compose builds the completion request messages: the system instruction,
// at most the last domain.MaxHistoryTurns history turns verbatim, then one
// user message carrying the full context and the question.
func Compose(systemPrompt, contextText string, history []domain.ChatMessage, question string) []domain.ChatMessage {
	recent := domain.RecentTurns(history, domain.MaxHistoryTurns)

	messages := make([]domain.ChatMessage, 0, len(recent)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	messages = append(messages, recent...)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: contextHeader + "\n" + contextText + "\n\n" + questionHeader + " " + question,
	})
	return messages
}

// SystemPrompt is the fixed instruction sent with every question.
func SystemPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are an official Hackathon Support Assistant.",
		"You help participants, mentors, and organizers by answering questions strictly from the provided hackathon data.",
		"",
		"Grounding Rules:",
		groundingRules(),
		"",
		"Status Rules:",
		statusRules(),
		"",
		"Formatting Rules:",
		formattingRules(),
	}, "\n")
}

func groundingRules() string {
	return strings.Join([]string{
		"1) Use only the information given in the context and the earlier turns of this conversation.",
		"2) Do not assume, guess, or add information that is not in the provided data.",
		"3) If part of the requested information is missing but related information exists, give what is available and say what is missing.",
		"4) Only if nothing relevant is in the context, respond exactly: \"" + notFoundPhrase + ".\"",
		"5) Be helpful and include every relevant detail from the context.",
	}, "\n")
}

func statusRules() string {
	return strings.Join([]string{
		"1) Status lines in the context are computed from the current date and are authoritative.",
		"2) State them definitively, for example \"Registration is open now\" or \"The hackathon has ended\".",
		"3) Do not hedge with phrases such as \"it may be open\" or \"please check the dates\" when a status is given.",
	}, "\n")
}

func formattingRules() string {
	return strings.Join([]string{
		"Your answer is rendered as markdown.",
		"- For one or two items, answer in natural sentences without list formatting.",
		"- For three or more items, always use a numbered list where each item starts with a bold title, e.g. \"**1. Fintech Track** (Payments)\", followed by short \"- \" detail lines.",
		"- Use ** for bold.",
		"- Put a blank line between sections.",
	}, "\n")
}
