package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PhaseTypeRegistration marks the phase whose window governs registration.
const PhaseTypeRegistration = "registration"

// Hackathon is the typed view over a stored hackathon document. Every field
// is optional; absent or malformed values decode to their zero value.
type Hackathon struct {
	ID   Text `json:"_id"`
	Slug Text `json:"slug"`

	Name          Text       `json:"name"`
	Tagline       Text       `json:"tagline"`
	About         Text       `json:"about"`
	OrganizerName Text       `json:"organizer_name"`
	Mode          Text       `json:"mode"`
	Location      Text       `json:"location"`
	Status        Text       `json:"status"`
	Type          Text       `json:"type"`
	Industry      Text       `json:"industry"`
	Tags          List[Text] `json:"tags"`

	StartDatetime      Text `json:"start_datetime"`
	EndDatetime        Text `json:"end_datetime"`
	IsRegistrationOpen Flag `json:"is_registration_open"`

	Themes                List[Theme]        `json:"themes"`
	Phases                List[Phase]        `json:"phases"`
	Mentors               List[Entry]        `json:"mentors"`
	Judges                List[Entry]        `json:"judges"`
	Partners              List[Entry]        `json:"partners"`
	FAQ                   List[FAQ]          `json:"faq"`
	Prizes                List[Entry]        `json:"prizes"`
	Events                List[Event]        `json:"events"`
	RegistrationQuestions List[FormQuestion] `json:"registration_questions"`
	ContactDetails        List[Entry]        `json:"contact_details"`

	MinTeamSize        OptInt      `json:"min_team_size"`
	MaxTeamSize        OptInt      `json:"max_team_size"`
	Links              Links       `json:"links"`
	Resources          Text        `json:"resources"`
	Rules              Text        `json:"rules"`
	Announcements      Text        `json:"announcements"`
	Eligibility        Eligibility `json:"eligibility"`
	TotalParticipants  OptInt      `json:"total_participants"`
	TotalViews         OptInt      `json:"total_views"`
	IsWinnersAnnounced Flag        `json:"is_winners_announced"`
}

// UnmarshalJSON accepts the primary key as either "_id" or "id".
func (h *Hackathon) UnmarshalJSON(data []byte) error {
	type plain Hackathon
	if err := json.Unmarshal(data, (*plain)(h)); err != nil {
		return err
	}
	if strings.TrimSpace(string(h.ID)) == "" {
		var alt struct {
			ID Text `json:"id"`
		}
		_ = json.Unmarshal(data, &alt)
		h.ID = alt.ID
	}
	return nil
}

// DecodeHackathon decodes a stored document. Only non-object input fails.
func DecodeHackathon(data []byte) (Hackathon, error) {
	var h Hackathon
	if err := json.Unmarshal(data, &h); err != nil {
		return Hackathon{}, fmt.Errorf("domain: decode hackathon: %w", err)
	}
	return h, nil
}

// RegistrationPhase returns the first phase typed "registration".
func (h Hackathon) RegistrationPhase() (Phase, bool) {
	for _, p := range h.Phases {
		if strings.EqualFold(strings.TrimSpace(string(p.Type)), PhaseTypeRegistration) {
			return p, true
		}
	}
	return Phase{}, false
}

type Theme struct {
	Name              Text                   `json:"name"`
	Description       Text                   `json:"description"`
	ProblemStatements List[ProblemStatement] `json:"problem_statements"`
}

func (t *Theme) UnmarshalJSON(data []byte) error {
	type plain Theme
	return objectOrString(data, (*plain)(t), func(s string) { *t = Theme{Name: Text(s)} })
}

type ProblemStatement struct {
	Name        Text `json:"name"`
	Description Text `json:"description"`
}

func (p *ProblemStatement) UnmarshalJSON(data []byte) error {
	type plain ProblemStatement
	return objectOrString(data, (*plain)(p), func(s string) { *p = ProblemStatement{Name: Text(s)} })
}

type Phase struct {
	Name                Text               `json:"name"`
	Type                Text               `json:"type"`
	Description         Text               `json:"description"`
	StartDatetime       Text               `json:"start_datetime"`
	EndDatetime         Text               `json:"end_datetime"`
	SubmissionQuestions List[FormQuestion] `json:"submission_questions"`
	EvaluationMetrics   List[MetricGroup]  `json:"evaluation_metrics"`
	IsEliminationRound  Flag               `json:"is_elimination_round"`
	Evaluator           Text               `json:"evaluator"`
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	type plain Phase
	return objectOrString(data, (*plain)(p), func(s string) { *p = Phase{Name: Text(s)} })
}

// MetricGroup is one scoring breakdown of a phase.
type MetricGroup struct {
	Metrics Metrics `json:"metrics"`
}

// FormQuestion is a registration or submission form field.
type FormQuestion struct {
	Label    Text `json:"label"`
	Type     Text `json:"type"`
	Required Flag `json:"required"`
}

func (q *FormQuestion) UnmarshalJSON(data []byte) error {
	type plain FormQuestion
	return objectOrString(data, (*plain)(q), func(s string) { *q = FormQuestion{Label: Text(s)} })
}

type FAQ struct {
	Question Text `json:"question"`
	Answer   Text `json:"answer"`
}

func (f *FAQ) UnmarshalJSON(data []byte) error {
	type plain FAQ
	return objectOrString(data, (*plain)(f), func(s string) { *f = FAQ{Question: Text(s)} })
}

type Event struct {
	Title       Text `json:"title"`
	Datetime    Text `json:"datetime"`
	Description Text `json:"description"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	return objectOrString(data, (*plain)(e), func(s string) { *e = Event{Title: Text(s)} })
}

// EligibilityAny is the default for every eligibility restriction.
const EligibilityAny = "any"

type Eligibility struct {
	ProfileType Text `json:"profile_type"`
	Details     Text `json:"details"`
	Gender      Text `json:"gender"`
}

// UnmarshalJSON ignores non-object values, leaving the defaults in place.
func (e *Eligibility) UnmarshalJSON(data []byte) error {
	type plain Eligibility
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		*e = Eligibility{}
		return nil
	}
	*e = Eligibility(out)
	return nil
}
