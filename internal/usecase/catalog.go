package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/temporal"
)

var newUUID = func() string {
	return uuid.NewString()
}

// HackathonSummary is the list view of one hackathon.
type HackathonSummary struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Status           temporal.Status `json:"status"`
	Mode             string          `json:"mode"`
	StartDatetime    string          `json:"start_datetime"`
	EndDatetime      string          `json:"end_datetime"`
	RegistrationOpen bool            `json:"registration_open"`
	Organizer        string          `json:"organizer"`
}

// HackathonDetails extends the summary with the fields shown on a detail page.
type HackathonDetails struct {
	HackathonSummary
	Tagline           string   `json:"tagline"`
	About             string   `json:"about"`
	Location          string   `json:"location"`
	MinTeamSize       *int     `json:"min_team_size"`
	MaxTeamSize       *int     `json:"max_team_size"`
	ThemeCount        int      `json:"theme_count"`
	PhaseCount        int      `json:"phase_count"`
	TotalParticipants *int     `json:"total_participants"`
	Tags              []string `json:"tags"`
}

type ImportResult struct {
	ID   string `json:"id"`
	Slug string `json:"slug,omitempty"`
	Name string `json:"name,omitempty"`
}

type ImportFailure struct {
	Index  int    `json:"index"`
	Slug   string `json:"slug,omitempty"`
	Name   string `json:"name,omitempty"`
	Code   string `json:"error"`
	Reason string `json:"reason"`
}

type BatchImportResult struct {
	Imported      []ImportResult  `json:"imported"`
	Failed        []ImportFailure `json:"failed"`
	ImportedCount int             `json:"imported_count"`
	FailedCount   int             `json:"failed_count"`
}

// CatalogService lists, imports and edits stored hackathons.
type CatalogService struct {
	store  HackathonStore
	clock  temporal.Clock
	logger *slog.Logger
}

func NewCatalogService(store HackathonStore, clock temporal.Clock, logger *slog.Logger) (*CatalogService, error) {
	if store == nil {
		return nil, errors.New("usecase: hackathon store must not be nil")
	}
	if clock == nil {
		clock = temporal.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		store:  store,
		clock:  clock,
		logger: logger.With(slog.String("module", "catalog")),
	}, nil
}

func (s *CatalogService) ListHackathons(ctx context.Context) []HackathonSummary {
	now := s.clock.Now().UTC()
	hackathons := s.store.ListAll(ctx)
	out := make([]HackathonSummary, 0, len(hackathons))
	for _, h := range hackathons {
		out = append(out, summarize(h, now))
	}
	return out
}

// GetHackathon resolves identifier as an id first, then as a slug.
func (s *CatalogService) GetHackathon(ctx context.Context, identifier string) (HackathonDetails, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return HackathonDetails{}, newError(ErrorInvalidInput, "missing_identifier", nil)
	}
	h, ok := s.store.Get(ctx, identifier)
	if !ok {
		h, ok = s.store.GetBySlug(ctx, identifier)
	}
	if !ok {
		return HackathonDetails{}, newError(ErrorNotFound, "hackathon_not_found", nil)
	}
	return detail(h, s.clock.Now().UTC()), nil
}

// ImportHackathon stores a new hackathon document. Control characters are
// stripped and an id is generated when the document carries none.
func (s *CatalogService) ImportHackathon(ctx context.Context, doc domain.Document) (ImportResult, error) {
	if len(doc) == 0 {
		return ImportResult{}, newError(ErrorInvalidInput, "empty_document", nil)
	}
	doc = SanitizeDocument(doc)
	if _, err := doc.Hackathon(); err != nil {
		return ImportResult{}, newError(ErrorInvalidInput, "invalid_document", err)
	}
	if slug := doc.Slug(); slug != "" {
		if _, exists := s.store.GetBySlug(ctx, slug); exists {
			return ImportResult{}, newError(ErrorConflict, "duplicate_slug", nil)
		}
	}

	id := doc.ID()
	if id == "" {
		id = newUUID()
	}
	doc[domain.FieldID] = id
	delete(doc, domain.FieldAltID)

	if _, exists := s.store.Get(ctx, id); exists {
		return ImportResult{}, newError(ErrorConflict, "duplicate_id", nil)
	}
	if !s.store.Insert(ctx, doc) {
		return ImportResult{}, newError(ErrorInternal, "store_write_error", nil)
	}

	s.logger.Info("hackathon imported", slog.String("hackathon_id", id), slog.String("slug", doc.Slug()))
	return ImportResult{ID: id, Slug: doc.Slug(), Name: doc.Name()}, nil
}

// ImportHackathons imports each document independently; one failure does
// not stop the rest.
func (s *CatalogService) ImportHackathons(ctx context.Context, docs []domain.Document) (BatchImportResult, error) {
	if len(docs) == 0 {
		return BatchImportResult{}, newError(ErrorInvalidInput, "empty_batch", nil)
	}
	result := BatchImportResult{
		Imported: []ImportResult{},
		Failed:   []ImportFailure{},
	}
	for i, doc := range docs {
		imported, err := s.ImportHackathon(ctx, doc)
		if err != nil {
			failure := ImportFailure{Index: i, Slug: doc.Slug(), Name: doc.Name(), Code: string(ErrorInternal), Reason: err.Error()}
			var usecaseErr *Error
			if errors.As(err, &usecaseErr) {
				failure.Code = string(usecaseErr.Code)
				failure.Reason = usecaseErr.Reason
			}
			result.Failed = append(result.Failed, failure)
			continue
		}
		result.Imported = append(result.Imported, imported)
	}
	result.ImportedCount = len(result.Imported)
	result.FailedCount = len(result.Failed)
	return result, nil
}

// UpdateHackathon applies a partial top-level update. The id fields are
// immutable; a slug change must not collide with another hackathon.
func (s *CatalogService) UpdateHackathon(ctx context.Context, id string, partial domain.Document) (HackathonDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return HackathonDetails{}, newError(ErrorInvalidInput, "missing_hackathon_id", nil)
	}
	if len(partial) == 0 {
		return HackathonDetails{}, newError(ErrorInvalidInput, "empty_update", nil)
	}
	if _, ok := partial[domain.FieldID]; ok {
		return HackathonDetails{}, newError(ErrorInvalidInput, "immutable_id", nil)
	}
	if _, ok := partial[domain.FieldAltID]; ok {
		return HackathonDetails{}, newError(ErrorInvalidInput, "immutable_id", nil)
	}
	partial = SanitizeDocument(partial)

	if _, ok := s.store.Get(ctx, id); !ok {
		return HackathonDetails{}, newError(ErrorNotFound, "hackathon_not_found", nil)
	}
	if slug := partial.Slug(); slug != "" {
		if other, exists := s.store.GetBySlug(ctx, slug); exists && other.ID.String() != id {
			return HackathonDetails{}, newError(ErrorConflict, "duplicate_slug", nil)
		}
	}
	if !s.store.Update(ctx, id, partial) {
		return HackathonDetails{}, newError(ErrorInternal, "store_write_error", nil)
	}

	updated, ok := s.store.Get(ctx, id)
	if !ok {
		return HackathonDetails{}, newError(ErrorInternal, "store_read_error", nil)
	}
	s.logger.Info("hackathon updated", slog.String("hackathon_id", id), slog.Int("fields", len(partial)))
	return detail(updated, s.clock.Now().UTC()), nil
}

func summarize(h domain.Hackathon, now time.Time) HackathonSummary {
	return HackathonSummary{
		ID:               h.ID.String(),
		Name:             h.Name.String(),
		Slug:             h.Slug.String(),
		Status:           temporal.HackathonStatus(h, now),
		Mode:             h.Mode.String(),
		StartDatetime:    h.StartDatetime.String(),
		EndDatetime:      h.EndDatetime.String(),
		RegistrationOpen: temporal.RegistrationOpen(h, now),
		Organizer:        h.OrganizerName.String(),
	}
}

func detail(h domain.Hackathon, now time.Time) HackathonDetails {
	tags := make([]string, 0, len(h.Tags))
	for _, tag := range h.Tags {
		if tag != "" {
			tags = append(tags, tag.String())
		}
	}
	return HackathonDetails{
		HackathonSummary:  summarize(h, now),
		Tagline:           h.Tagline.String(),
		About:             h.About.String(),
		Location:          h.Location.String(),
		MinTeamSize:       optInt(h.MinTeamSize),
		MaxTeamSize:       optInt(h.MaxTeamSize),
		ThemeCount:        len(h.Themes),
		PhaseCount:        len(h.Phases),
		TotalParticipants: optInt(h.TotalParticipants),
		Tags:              tags,
	}
}

func optInt(v domain.OptInt) *int {
	if !v.Valid {
		return nil
	}
	n := v.Value
	return &n
}
