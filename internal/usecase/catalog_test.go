package usecase

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/temporal"
)

type fakeStore struct {
	docs        map[string]domain.Document
	failInsert  bool
	failUpdate  bool
	insertCalls int
	updateCalls int
	lastInsert  domain.Document
	lastUpdate  domain.Document
}

func newFakeStore(docs ...domain.Document) *fakeStore {
	s := &fakeStore{docs: map[string]domain.Document{}}
	for _, d := range docs {
		s.docs[d.ID()] = d
	}
	return s
}

func (s *fakeStore) decode(d domain.Document) (domain.Hackathon, bool) {
	h, err := d.Hackathon()
	return h, err == nil
}

func (s *fakeStore) Get(_ context.Context, id string) (domain.Hackathon, bool) {
	d, ok := s.docs[id]
	if !ok {
		return domain.Hackathon{}, false
	}
	return s.decode(d)
}

func (s *fakeStore) GetBySlug(_ context.Context, slug string) (domain.Hackathon, bool) {
	for _, d := range s.docs {
		if d.Slug() == slug {
			return s.decode(d)
		}
	}
	return domain.Hackathon{}, false
}

func (s *fakeStore) ListAll(_ context.Context) []domain.Hackathon {
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.Hackathon, 0, len(ids))
	for _, id := range ids {
		if h, ok := s.decode(s.docs[id]); ok {
			out = append(out, h)
		}
	}
	return out
}

func (s *fakeStore) Insert(_ context.Context, doc domain.Document) bool {
	s.insertCalls++
	s.lastInsert = doc
	if s.failInsert {
		return false
	}
	if _, exists := s.docs[doc.ID()]; exists {
		return false
	}
	s.docs[doc.ID()] = doc
	return true
}

func (s *fakeStore) Update(_ context.Context, id string, partial domain.Document) bool {
	s.updateCalls++
	s.lastUpdate = partial
	if s.failUpdate {
		return false
	}
	d, ok := s.docs[id]
	if !ok {
		return false
	}
	s.docs[id] = d.Merge(partial)
	return true
}

func newCatalogTestService(t *testing.T, store HackathonStore) *CatalogService {
	t.Helper()
	svc, err := NewCatalogService(store, fixedClock(), nil)
	require.NoError(t, err)
	return svc
}

func stubUUID(t *testing.T, ids ...string) {
	t.Helper()
	prev := newUUID
	t.Cleanup(func() { newUUID = prev })
	i := 0
	newUUID = func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestNewCatalogService_ValidatesDependencies(t *testing.T) {
	_, err := NewCatalogService(nil, fixedClock(), nil)
	require.Error(t, err)
}

func TestListHackathons(t *testing.T) {
	ended := domain.Document{
		"_id":                  "hk-0",
		"name":                 "Winter Hack",
		"mode":                 "online",
		"start_datetime":       "2025-01-10T09:00:00Z",
		"end_datetime":         "2025-01-12T18:00:00Z",
		"is_registration_open": true,
	}
	svc := newCatalogTestService(t, newFakeStore(openHackathon(), ended))

	list := svc.ListHackathons(context.Background())
	require.Len(t, list, 2)

	require.Equal(t, HackathonSummary{
		ID:               "hk-0",
		Name:             "Winter Hack",
		Status:           temporal.StatusEnded,
		Mode:             "online",
		StartDatetime:    "2025-01-10T09:00:00Z",
		EndDatetime:      "2025-01-12T18:00:00Z",
		RegistrationOpen: true,
	}, list[0])

	require.Equal(t, "spring-hack", list[1].Slug)
	require.Equal(t, temporal.StatusUpcoming, list[1].Status)
	require.True(t, list[1].RegistrationOpen)
	require.Equal(t, "Acme", list[1].Organizer)
}

func TestListHackathons_Empty(t *testing.T) {
	svc := newCatalogTestService(t, newFakeStore())
	list := svc.ListHackathons(context.Background())
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestGetHackathon_ByIDThenSlug(t *testing.T) {
	doc := openHackathon()
	doc["themes"] = []any{"AI", map[string]any{"name": "Fintech"}}
	doc["total_participants"] = "250"
	doc["tags"] = []any{"ai", "", "web3"}
	svc := newCatalogTestService(t, newFakeStore(doc))

	byID, err := svc.GetHackathon(context.Background(), "hk-1")
	require.NoError(t, err)
	bySlug, err := svc.GetHackathon(context.Background(), " spring-hack ")
	require.NoError(t, err)
	require.Equal(t, byID, bySlug)

	require.Equal(t, "Spring Hack", byID.Name)
	require.Equal(t, 2, byID.ThemeCount)
	require.Equal(t, 1, byID.PhaseCount)
	require.NotNil(t, byID.MinTeamSize)
	require.Equal(t, 1, *byID.MinTeamSize)
	require.Equal(t, 4, *byID.MaxTeamSize)
	require.Equal(t, 250, *byID.TotalParticipants)
	require.Equal(t, []string{"ai", "web3"}, byID.Tags)
}

func TestGetHackathon_Errors(t *testing.T) {
	svc := newCatalogTestService(t, newFakeStore(openHackathon()))

	_, err := svc.GetHackathon(context.Background(), "nope")
	expectUsecaseError(t, err, ErrorNotFound, "hackathon_not_found")

	_, err = svc.GetHackathon(context.Background(), " ")
	expectUsecaseError(t, err, ErrorInvalidInput, "missing_identifier")
}

func TestImportHackathon_AssignsIDAndSanitizes(t *testing.T) {
	stubUUID(t, "generated-id")
	store := newFakeStore()
	svc := newCatalogTestService(t, store)

	res, err := svc.ImportHackathon(context.Background(), domain.Document{
		"name":  "Bad\x00 Name\x1f",
		"slug":  "new-hack",
		"about": "line one\nline\ttwo\x7f",
		"faq": []any{
			map[string]any{"question": "Q\x0b?", "answer": "A"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, ImportResult{ID: "generated-id", Slug: "new-hack", Name: "Bad Name"}, res)

	stored := store.docs["generated-id"]
	require.Equal(t, "generated-id", stored["_id"])
	require.Equal(t, "line one\nline\ttwo", stored["about"])
	require.Equal(t, "Q?", stored["faq"].([]any)[0].(map[string]any)["question"])
}

func TestImportHackathon_KeepsSuppliedID(t *testing.T) {
	store := newFakeStore()
	svc := newCatalogTestService(t, store)

	res, err := svc.ImportHackathon(context.Background(), domain.Document{"id": "given", "name": "Given"})
	require.NoError(t, err)
	require.Equal(t, "given", res.ID)
	require.Equal(t, "given", store.docs["given"]["_id"])
	require.NotContains(t, store.docs["given"], "id")
}

func TestImportHackathon_Conflicts(t *testing.T) {
	store := newFakeStore(openHackathon())
	svc := newCatalogTestService(t, store)

	_, err := svc.ImportHackathon(context.Background(), domain.Document{"_id": "other", "slug": "spring-hack"})
	expectUsecaseError(t, err, ErrorConflict, "duplicate_slug")

	_, err = svc.ImportHackathon(context.Background(), domain.Document{"_id": "hk-1", "slug": "fresh"})
	expectUsecaseError(t, err, ErrorConflict, "duplicate_id")
	require.Zero(t, store.insertCalls)
}

func TestImportHackathon_Errors(t *testing.T) {
	svc := newCatalogTestService(t, newFakeStore())
	_, err := svc.ImportHackathon(context.Background(), domain.Document{})
	expectUsecaseError(t, err, ErrorInvalidInput, "empty_document")

	store := newFakeStore()
	store.failInsert = true
	svc = newCatalogTestService(t, store)
	_, err = svc.ImportHackathon(context.Background(), domain.Document{"_id": "x", "name": "X"})
	expectUsecaseError(t, err, ErrorInternal, "store_write_error")
}

func TestImportHackathons_PartialFailure(t *testing.T) {
	stubUUID(t, "gen-1", "gen-2")
	svc := newCatalogTestService(t, newFakeStore(openHackathon()))

	res, err := svc.ImportHackathons(context.Background(), []domain.Document{
		{"name": "First", "slug": "first"},
		{"name": "Dup", "slug": "spring-hack"},
		{},
		{"name": "Second"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.ImportedCount)
	require.Equal(t, 2, res.FailedCount)
	require.Equal(t, []ImportResult{
		{ID: "gen-1", Slug: "first", Name: "First"},
		{ID: "gen-2", Name: "Second"},
	}, res.Imported)
	require.Equal(t, []ImportFailure{
		{Index: 1, Slug: "spring-hack", Name: "Dup", Code: "CONFLICT", Reason: "duplicate_slug"},
		{Index: 2, Code: "INVALID_INPUT", Reason: "empty_document"},
	}, res.Failed)
}

func TestImportHackathons_EmptyBatch(t *testing.T) {
	svc := newCatalogTestService(t, newFakeStore())
	_, err := svc.ImportHackathons(context.Background(), nil)
	expectUsecaseError(t, err, ErrorInvalidInput, "empty_batch")
}

func TestUpdateHackathon(t *testing.T) {
	store := newFakeStore(openHackathon())
	svc := newCatalogTestService(t, store)

	details, err := svc.UpdateHackathon(context.Background(), "hk-1", domain.Document{
		"tagline": "Build\x07 fast",
		"slug":    "spring-hack",
	})
	require.NoError(t, err)
	require.Equal(t, "Build fast", details.Tagline)
	require.Equal(t, "Spring Hack", details.Name)
	require.Equal(t, "Build fast", store.lastUpdate["tagline"])
}

func TestUpdateHackathon_Errors(t *testing.T) {
	other := domain.Document{"_id": "hk-2", "slug": "autumn-hack"}
	store := newFakeStore(openHackathon(), other)
	svc := newCatalogTestService(t, store)
	ctx := context.Background()

	_, err := svc.UpdateHackathon(ctx, " ", domain.Document{"name": "x"})
	expectUsecaseError(t, err, ErrorInvalidInput, "missing_hackathon_id")

	_, err = svc.UpdateHackathon(ctx, "hk-1", domain.Document{})
	expectUsecaseError(t, err, ErrorInvalidInput, "empty_update")

	_, err = svc.UpdateHackathon(ctx, "hk-1", domain.Document{"_id": "hk-9"})
	expectUsecaseError(t, err, ErrorInvalidInput, "immutable_id")

	_, err = svc.UpdateHackathon(ctx, "hk-1", domain.Document{"id": "hk-9"})
	expectUsecaseError(t, err, ErrorInvalidInput, "immutable_id")

	_, err = svc.UpdateHackathon(ctx, "missing", domain.Document{"name": "x"})
	expectUsecaseError(t, err, ErrorNotFound, "hackathon_not_found")

	_, err = svc.UpdateHackathon(ctx, "hk-1", domain.Document{"slug": "autumn-hack"})
	expectUsecaseError(t, err, ErrorConflict, "duplicate_slug")
	require.Zero(t, store.updateCalls)

	store.failUpdate = true
	_, err = svc.UpdateHackathon(ctx, "hk-1", domain.Document{"name": "x"})
	expectUsecaseError(t, err, ErrorInternal, "store_write_error")
}
