// Package extract turns a free-text question and a hackathon record into a
// compact plain-text context for the completion model.
//
// Each category in the table owns a keyword set and a renderer. A question
// selects every category whose keywords it contains (plain substring match on
// the lower-cased question), and the selected blocks are emitted in table
// order. The overview block is prepended when nothing matched or when the
// question reads as a general one.
package extract

import (
	"strings"
	"time"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/temporal"
)

// generalKeywords force the overview block even when categories matched.
var generalKeywords = []string{"about", "overview", "general", "info", "tell me", "what is", "status", "when"}

// Extract renders the context for question. It is pure: identical inputs and
// the same now produce identical output.
func Extract(h domain.Hackathon, question string, now time.Time) string {
	q := strings.ToLower(question)

	var blocks []string
	for _, c := range categories {
		if !c.matches(q) {
			continue
		}
		blocks = append(blocks, c.block(h, now))
	}
	if len(blocks) == 0 || containsAny(q, generalKeywords) {
		blocks = append([]string{overview(h, now)}, blocks...)
	}
	return strings.Join(blocks, "\n\n")
}

// Match returns the tags of the categories question selects, in table order.
func Match(question string) []string {
	q := strings.ToLower(question)
	var tags []string
	for _, c := range categories {
		if c.matches(q) {
			tags = append(tags, c.tag)
		}
	}
	return tags
}

// Tags lists every category tag in table order.
func Tags() []string {
	tags := make([]string, len(categories))
	for i, c := range categories {
		tags[i] = c.tag
	}
	return tags
}

var statusIcons = map[temporal.Status]string{
	temporal.StatusUpcoming: "🔜",
	temporal.StatusOngoing:  "🚀",
	temporal.StatusEnded:    "✅",
	temporal.StatusUnknown:  "❓",
}

func overview(h domain.Hackathon, now time.Time) string {
	status := temporal.HackathonStatus(h, now)

	var w lines
	w.add(header("HACKATHON OVERVIEW"))
	w.addf("Name: %s", h.Name.Or(notSpecified))
	w.addf("Status: %s %s", statusIcons[status], strings.ToUpper(string(status)))
	w.addf("Tagline: %s", h.Tagline.Or(notSpecified))
	w.addf("About: %s", h.About.Or(notSpecified))
	w.addf("Organizer: %s", h.OrganizerName.Or(notSpecified))
	w.addf("Mode: %s", h.Mode.Or(notSpecified))
	w.addf("Duration: %s", period(h.StartDatetime, h.EndDatetime))
	w.addf("Total Participants: %d", h.TotalParticipants.Or(0))
	return w.String()
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
