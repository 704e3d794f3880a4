package extract

import (
	"strconv"
	"strings"
	"time"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/temporal"
)

type renderFunc func(w *lines, h domain.Hackathon, now time.Time)

type category struct {
	tag      string
	title    string
	keywords []string
	render   renderFunc
}

func (c category) matches(q string) bool { return containsAny(q, c.keywords) }

func (c category) block(h domain.Hackathon, now time.Time) string {
	var w lines
	w.add(header(c.title))
	c.render(&w, h, now)
	return w.String()
}

// categories is evaluated in order; the order only decides block order.
var categories = []category{
	{
		tag:      "registration",
		title:    "REGISTRATION INFORMATION",
		keywords: []string{"register", "registration", "sign up", "join", "participate", "enroll", "apply"},
		render:   renderRegistration,
	},
	{
		tag:      "team",
		title:    "TEAM SIZE INFORMATION",
		keywords: []string{"team", "size", "member", "solo", "group", "individual", "alone", "partner", "collaborate"},
		render:   renderTeam,
	},
	{
		tag:      "themes",
		title:    "THEMES AND PROBLEM STATEMENTS",
		keywords: []string{"theme", "track", "problem", "challenge", "topic", "category", "domain", "statement"},
		render:   renderThemes,
	},
	{
		tag:      "timeline",
		title:    "HACKATHON TIMELINE AND PHASES",
		keywords: []string{"phase", "timeline", "deadline", "when", "date", "schedule", "duration", "time", "start", "end", "submission"},
		render:   renderTimeline,
	},
	{
		tag:      "evaluation",
		title:    "EVALUATION CRITERIA",
		keywords: []string{"judg", "evaluat", "criteria", "score", "point", "metric", "assess", "grade", "marking"},
		render:   renderEvaluation,
	},
	{
		tag:      "resources",
		title:    "AVAILABLE RESOURCES",
		keywords: []string{"resource", "template", "material", "help", "guide", "document", "link", "tool"},
		render:   freeText(func(h domain.Hackathon) domain.Text { return h.Resources }, "No specific resources have been provided yet."),
	},
	{
		tag:      "prizes",
		title:    "PRIZES",
		keywords: []string{"prize", "reward", "win", "award", "bounty", "incentive"},
		render:   renderPrizes,
	},
	{
		tag:      "events",
		title:    "SCHEDULED EVENTS",
		keywords: []string{"event", "workshop", "session", "webinar", "meeting", "ceremony"},
		render:   renderEvents,
	},
	{
		tag:      "contact",
		title:    "CONTACT & LINKS",
		keywords: []string{"contact", "reach", "support", "link", "social", "discord", "slack", "email"},
		render:   renderLinks,
	},
	{
		tag:      "mentors",
		title:    "MENTORS",
		keywords: []string{"mentor", "mentors", "mentorship", "guide", "advisor", "expert"},
		render:   renderMentors,
	},
	{
		tag:      "judges",
		title:    "JUDGES",
		keywords: []string{"judge", "judges", "judging", "jury", "evaluator"},
		render:   renderJudges,
	},
	{
		tag:      "partners",
		title:    "PARTNERS & SPONSORS",
		keywords: []string{"partner", "partners", "sponsor", "sponsors", "supporter", "collaboration"},
		render:   renderPartners,
	},
	{
		tag:      "faq",
		title:    "FREQUENTLY ASKED QUESTIONS",
		keywords: []string{"faq", "frequently", "question", "questions", "common", "ask"},
		render:   renderFAQ,
	},
	{
		tag:      "rules",
		title:    "RULES & REGULATIONS",
		keywords: []string{"rule", "rules", "regulation", "regulations", "guideline", "guidelines", "policy"},
		render:   freeText(func(h domain.Hackathon) domain.Text { return h.Rules }, "Detailed rules will be published soon."),
	},
	{
		tag:      "eligibility",
		title:    "ELIGIBILITY",
		keywords: []string{"eligib", "can i join", "can i participate", "who can", "requirement", "qualify"},
		render:   renderEligibility,
	},
	{
		tag:      "location",
		title:    "LOCATION & VENUE",
		keywords: []string{"location", "venue", "where", "address", "place"},
		render:   renderLocation,
	},
	{
		tag:      "announcements",
		title:    "ANNOUNCEMENTS",
		keywords: []string{"announcement", "announcements", "update", "updates", "news", "latest"},
		render:   freeText(func(h domain.Hackathon) domain.Text { return h.Announcements }, "No announcements at this time. Check back later for updates."),
	},
	{
		tag:      "stats",
		title:    "PARTICIPATION STATISTICS",
		keywords: []string{"how many", "participants", "registered", "views", "popular"},
		render:   renderStats,
	},
	{
		tag:      "tags",
		title:    "HACKATHON CATEGORY",
		keywords: []string{"tag", "tags", "category", "categories", "industry", "type"},
		render:   renderTags,
	},
	{
		tag:      "winners",
		title:    "WINNERS",
		keywords: []string{"winner", "winners", "result", "results", "who won"},
		render:   renderWinners,
	},
	{
		tag:      "contact_details",
		title:    "CONTACT DETAILS",
		keywords: []string{"email", "phone", "call", "contact number"},
		render:   renderContactDetails,
	},
}

func renderRegistration(w *lines, h domain.Hackathon, now time.Time) {
	phase, hasPhase := h.RegistrationPhase()
	if hasPhase {
		w.addf("Registration Period: %s", period(phase.StartDatetime, phase.EndDatetime))
	} else {
		w.addf("Registration Period: %s", notSpecified)
	}

	if temporal.RegistrationOpen(h, now) {
		w.add("Current Status: ✅ OPEN - You can register now!")
	} else {
		w.add("Current Status: ❌ CLOSED - " + closedReason(phase, hasPhase, now))
	}
	w.addf("Description: %s", phase.Description.Or("Registration period for the hackathon"))

	if len(h.RegistrationQuestions) > 0 {
		w.blank()
		w.add("Registration Questions Required:")
		for _, q := range h.RegistrationQuestions {
			w.addf("  - %s (%s) - %s", q.Label.Or("Untitled question"), q.Type.Or("text"), requiredLabel(q.Required))
		}
	}
}

func closedReason(phase domain.Phase, hasPhase bool, now time.Time) string {
	if hasPhase {
		switch temporal.WindowStatus(string(phase.StartDatetime), string(phase.EndDatetime), now) {
		case temporal.StatusUpcoming:
			return "Registration has not opened yet"
		case temporal.StatusEnded:
			return "Registration has ended"
		}
	}
	return "Registration is not open at the moment"
}

func renderTeam(w *lines, h domain.Hackathon, _ time.Time) {
	w.addf("Minimum team size: %s", teamSize(h.MinTeamSize))
	w.addf("Maximum team size: %s", teamSize(h.MaxTeamSize))

	lo, hi := h.MinTeamSize, h.MaxTeamSize
	switch {
	case lo.Valid && hi.Valid && lo.Value == 1 && hi.Value == 1:
		w.add("This is a SOLO hackathon - only individual participation is allowed.")
	case lo.Valid && lo.Value == 1 && hi.Valid:
		w.addf("Solo participation is allowed. Teams can have up to %d members.", hi.Value)
	case lo.Valid && lo.Value == 1:
		w.add("Solo participation is allowed.")
	}
}

func teamSize(o domain.OptInt) string {
	if !o.Valid {
		return notSpecified
	}
	return strconv.Itoa(o.Value)
}

func renderThemes(w *lines, h domain.Hackathon, _ time.Time) {
	w.addf("Total number of themes: %d", len(h.Themes))
	if len(h.Themes) == 0 {
		w.add("Themes and problem statements have not been announced yet.")
		return
	}
	for i, theme := range h.Themes {
		w.blank()
		w.addf("%d. %s", i+1, theme.Name.Or("Untitled theme"))
		w.addf("   Description: %s", theme.Description.Or("No description available"))
		if len(theme.ProblemStatements) == 0 {
			continue
		}
		w.addf("   Problem Statements (%d):", len(theme.ProblemStatements))
		for _, ps := range theme.ProblemStatements {
			w.addf("     • %s", ps.Name.Or("Untitled problem statement"))
			if !blank(ps.Description) {
				w.addf("       %s", ps.Description)
			}
		}
	}
}

func renderTimeline(w *lines, h domain.Hackathon, now time.Time) {
	w.addf("Overall Duration: %s", period(h.StartDatetime, h.EndDatetime))
	w.blank()
	w.addf("Total Phases: %d", len(h.Phases))

	for i, phase := range h.Phases {
		w.blank()
		w.addf("%d. %s", i+1, phase.Name.Or("Unnamed phase"))
		w.addf("   Period: %s", period(phase.StartDatetime, phase.EndDatetime))
		if status := temporal.WindowStatus(string(phase.StartDatetime), string(phase.EndDatetime), now); status != temporal.StatusUnknown {
			w.addf("   Current Status: %s", strings.ToUpper(string(status)))
		}
		w.addf("   Type: %s", phase.Type.Or(notSpecified))
		if !blank(phase.Description) {
			w.addf("   Description: %s", phase.Description)
		}
		if len(phase.SubmissionQuestions) > 0 {
			w.add("   Submission Requirements:")
			for _, sq := range phase.SubmissionQuestions {
				w.addf("     - %s (Type: %s) - %s", sq.Label.Or("Untitled requirement"), sq.Type.Or(notSpecified), requiredLabel(sq.Required))
			}
		}
		if phase.IsEliminationRound {
			w.add("   ⚠️ This is an ELIMINATION ROUND")
		}
		w.addf("   Evaluator: %s", phase.Evaluator.Or(notSpecified))
	}
}

func renderEvaluation(w *lines, h domain.Hackathon, _ time.Time) {
	found := false
	for _, phase := range h.Phases {
		if len(phase.EvaluationMetrics) == 0 {
			continue
		}
		found = true
		w.blank()
		w.addf("%s Phase:", phase.Name.Or("Unnamed"))
		w.addf("Evaluator: %s", phase.Evaluator.Or(notSpecified))
		w.addf("Elimination Round: %s", yesNo(phase.IsEliminationRound))
		w.blank()
		w.add("Scoring Breakdown:")
		for _, group := range phase.EvaluationMetrics {
			if len(group.Metrics) == 0 {
				continue
			}
			total := group.Metrics.Total()
			w.blank()
			w.addf("Total Points: %s", formatPoints(total))
			for _, m := range group.Metrics {
				w.addf("  • %s: %s points (%.0f%%)", m.Name, formatPoints(m.Points), percentage(m.Points, total))
			}
		}
	}
	if !found {
		w.add("Evaluation criteria have not been published yet.")
	}
}

func freeText(field func(domain.Hackathon) domain.Text, missing string) renderFunc {
	return func(w *lines, h domain.Hackathon, _ time.Time) {
		text := field(h)
		if blank(text) {
			w.add(missing)
			return
		}
		w.add(string(text))
	}
}

func renderPrizes(w *lines, h domain.Hackathon, _ time.Time) {
	if len(h.Prizes) == 0 {
		w.add("Prize information has not been announced yet.")
		return
	}
	for _, prize := range h.Prizes {
		w.addf("  • %s", prizeLabel(prize))
	}
}

func prizeLabel(e domain.Entry) string {
	if e.Kind == domain.EntryPlain {
		return e.Text
	}
	label := e.FieldOr("Prize", "title", "name", "position", "rank")
	if amount := e.Field("amount", "value", "reward", "prize"); amount != "" {
		label += ": " + amount
	}
	if desc := e.Field("description"); desc != "" {
		label += " - " + desc
	}
	return label
}

func renderEvents(w *lines, h domain.Hackathon, _ time.Time) {
	if len(h.Events) == 0 {
		w.add("No specific events have been scheduled yet.")
		return
	}
	for _, ev := range h.Events {
		w.blank()
		w.addf("• %s", ev.Title.Or("Untitled event"))
		w.addf("  Date/Time: %s", ev.Datetime.Or("To be announced"))
		if !blank(ev.Description) {
			w.addf("  Description: %s", ev.Description)
		}
	}
}

func renderLinks(w *lines, h domain.Hackathon, _ time.Time) {
	found := false
	for _, link := range h.Links {
		if link.URL == "" {
			continue
		}
		found = true
		w.addf("  • %s: %s", capitalize(link.Platform), link.URL)
	}
	if !found {
		w.add("Contact information will be provided soon.")
	}
}

func renderMentors(w *lines, h domain.Hackathon, _ time.Time) {
	if len(h.Mentors) == 0 {
		w.add("No mentors have been assigned yet.")
		return
	}
	w.addf("Total mentors: %d", len(h.Mentors))
	for _, m := range h.Mentors {
		if m.Kind == domain.EntryPlain {
			w.addf("• %s", m.Text)
			continue
		}
		w.blank()
		w.addf("• **%s**", m.FieldOr("Unknown", "name"))
		w.addf("  Expertise: %s", m.FieldOr("Mentor", "expertise", "role"))
		if bio := m.Field("bio", "description"); bio != "" {
			w.addf("  Bio: %s", bio)
		}
	}
}

func renderJudges(w *lines, h domain.Hackathon, _ time.Time) {
	if len(h.Judges) == 0 {
		w.add("Judges will be announced soon.")
		return
	}
	w.addf("Total judges: %d", len(h.Judges))
	for _, j := range h.Judges {
		if j.Kind == domain.EntryPlain {
			w.addf("• %s", j.Text)
			continue
		}
		w.blank()
		w.addf("• **%s**", j.FieldOr("Unknown", "name"))
		w.addf("  Title: %s", j.FieldOr("Judge", "title", "role"))
		if company := j.Field("company", "organization"); company != "" {
			w.addf("  Company: %s", company)
		}
	}
}

func renderPartners(w *lines, h domain.Hackathon, _ time.Time) {
	if len(h.Partners) == 0 {
		w.add("Partner and sponsor information will be announced soon.")
		return
	}
	for _, p := range h.Partners {
		if p.Kind == domain.EntryPlain {
			w.addf("• %s", p.Text)
			continue
		}
		w.addf("• %s", p.FieldOr("Unknown", "name"))
	}
}

func renderFAQ(w *lines, h domain.Hackathon, _ time.Time) {
	if len(h.FAQ) == 0 {
		w.add("No FAQs available yet.")
		return
	}
	for i, faq := range h.FAQ {
		w.blank()
		w.addf("**Q%d: %s**", i+1, faq.Question)
		w.addf("A: %s", faq.Answer.Or("No answer has been published yet."))
	}
}

func renderEligibility(w *lines, h domain.Hackathon, _ time.Time) {
	el := h.Eligibility
	if profile := el.ProfileType.Or(domain.EligibilityAny); profile != domain.EligibilityAny {
		w.addf("Profile Type: %s", profile)
	} else {
		w.add("Open to all participants")
	}
	if !blank(el.Details) {
		w.addf("Details: %s", el.Details)
	}
	if gender := el.Gender.Or(domain.EligibilityAny); gender != domain.EligibilityAny {
		w.addf("Gender: %s", gender)
	}
}

func renderLocation(w *lines, h domain.Hackathon, _ time.Time) {
	mode := h.Mode.Or(notSpecified)
	w.addf("Mode: %s", capitalize(mode))
	switch {
	case !blank(h.Location):
		w.addf("Location: %s", h.Location)
	case strings.EqualFold(strings.TrimSpace(mode), "online"):
		w.add("This is an online hackathon - no physical location")
	default:
		w.add("Venue details will be announced soon.")
	}
}

func renderStats(w *lines, h domain.Hackathon, _ time.Time) {
	w.addf("Total Registered Participants: %d", h.TotalParticipants.Or(0))
	w.addf("Total Page Views: %d", h.TotalViews.Or(0))
}

func renderTags(w *lines, h domain.Hackathon, _ time.Time) {
	found := false
	if !blank(h.Type) {
		found = true
		w.addf("Type: %s", capitalize(string(h.Type)))
	}
	if !blank(h.Industry) {
		found = true
		w.addf("Industry: %s", capitalize(string(h.Industry)))
	}
	var tags []string
	for _, t := range h.Tags {
		if !blank(t) {
			tags = append(tags, string(t))
		}
	}
	if len(tags) > 0 {
		found = true
		w.addf("Tags: %s", strings.Join(tags, ", "))
	}
	if !found {
		w.add("No category or tag information has been provided.")
	}
}

func renderWinners(w *lines, h domain.Hackathon, _ time.Time) {
	if h.IsWinnersAnnounced {
		w.add("Winners have been announced!")
		return
	}
	w.add("Winners will be announced after the hackathon concludes.")
}

func renderContactDetails(w *lines, h domain.Hackathon, _ time.Time) {
	if len(h.ContactDetails) == 0 {
		w.add("No direct contact details have been shared yet.")
		return
	}
	for _, c := range h.ContactDetails {
		if c.Kind == domain.EntryPlain {
			w.addf("• %s", c.Text)
			continue
		}
		w.blank()
		w.addf("• %s", c.FieldOr("Contact", "name"))
		if email := c.Field("email"); email != "" {
			w.addf("  Email: %s", email)
		}
		if phone := c.Field("phone"); phone != "" {
			w.addf("  Phone: %s", phone)
		}
	}
}
