package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/usecase"
)

type stubAnswers struct {
	out usecase.AnswerOutput
	err error
	in  usecase.AnswerInput
}

func (s *stubAnswers) AnswerQuestion(_ context.Context, in usecase.AnswerInput) (usecase.AnswerOutput, error) {
	s.in = in
	return s.out, s.err
}

type stubCatalog struct {
	list     []usecase.HackathonSummary
	details  usecase.HackathonDetails
	imported usecase.ImportResult
	batch    usecase.BatchImportResult
	err      error

	identifier string
	updateID   string
	doc        domain.Document
	docs       []domain.Document
}

func (s *stubCatalog) ListHackathons(context.Context) []usecase.HackathonSummary {
	return s.list
}

func (s *stubCatalog) GetHackathon(_ context.Context, identifier string) (usecase.HackathonDetails, error) {
	s.identifier = identifier
	return s.details, s.err
}

func (s *stubCatalog) ImportHackathon(_ context.Context, doc domain.Document) (usecase.ImportResult, error) {
	s.doc = doc
	return s.imported, s.err
}

func (s *stubCatalog) ImportHackathons(_ context.Context, docs []domain.Document) (usecase.BatchImportResult, error) {
	s.docs = docs
	return s.batch, s.err
}

func (s *stubCatalog) UpdateHackathon(_ context.Context, id string, partial domain.Document) (usecase.HackathonDetails, error) {
	s.updateID = id
	s.doc = partial
	return s.details, s.err
}

func makeEvent(method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, answers *stubAnswers, catalog *stubCatalog) *Handler {
	t.Helper()
	h, err := NewHandler(answers, catalog, Info{Model: "llama-test"}, nil)
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestNewHandler_ValidatesDependencies(t *testing.T) {
	_, err := NewHandler(nil, &stubCatalog{}, Info{}, nil)
	require.Error(t, err)

	_, err = NewHandler(&stubAnswers{}, nil, Info{}, nil)
	require.Error(t, err)

	h, err := NewHandler(&stubAnswers{}, &stubCatalog{}, Info{}, nil)
	require.NoError(t, err)
	require.Equal(t, usecase.DefaultModel, h.info.Model)
}

func TestHandle_Chat(t *testing.T) {
	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "When does it start?"},
		{Role: domain.RoleAssistant, Content: "March 20."},
	}
	answers := &stubAnswers{out: usecase.AnswerOutput{
		Answer:     "Registration is open.",
		Confidence: usecase.ConfidenceHigh,
		Timestamp:  "2025-03-10T12:00:00Z",
		History:    history,
	}}
	h := newTestHandler(t, answers, &stubCatalog{})

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/chat",
		`{"hackathon_id":"hk-1","question":"Can I register?","conversation_history":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.AnswerInput{
		HackathonID: "hk-1",
		Question:    "Can I register?",
		History:     []domain.ChatMessage{{Role: "user", Content: "hi"}},
	}, answers.in)

	out := parseBody[chatResponse](t, resp.Body)
	require.Equal(t, "Registration is open.", out.Answer)
	require.Equal(t, usecase.ConfidenceHigh, out.Confidence)
	require.Equal(t, "2025-03-10T12:00:00Z", out.Timestamp)
	require.Equal(t, history, out.ConversationHistory)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
}

func TestHandle_ChatBase64Body(t *testing.T) {
	answers := &stubAnswers{out: usecase.AnswerOutput{Answer: "ok"}}
	h := newTestHandler(t, answers, &stubCatalog{})

	event := makeEvent(http.MethodPost, "/chat", base64.StdEncoding.EncodeToString([]byte(`{"hackathon_id":"hk-1","question":"q"}`)))
	event.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hk-1", answers.in.HackathonID)
}

func TestHandle_InvalidBody(t *testing.T) {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/chat"},
		{http.MethodPost, "/admin/import-hackathon"},
		{http.MethodPost, "/admin/import-multiple-hackathons"},
		{http.MethodPatch, "/admin/hackathons/hk-1"},
	}
	for _, p := range paths {
		t.Run(p.path, func(t *testing.T) {
			h := newTestHandler(t, &stubAnswers{}, &stubCatalog{})
			resp, err := h.Handle(context.Background(), makeEvent(p.method, p.path, `not-json`))
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
			require.Equal(t, "invalid_body", out.Message)
		})
	}
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_question"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "not found", err: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "hackathon_not_found"}, status: http.StatusNotFound, code: string(usecase.ErrorNotFound)},
		{name: "conflict", err: &usecase.Error{Code: usecase.ErrorConflict, Reason: "duplicate_slug"}, status: http.StatusConflict, code: string(usecase.ErrorConflict)},
		{name: "rate limited", err: &usecase.Error{Code: usecase.ErrorRateLimited, Reason: "completion_rate_limited"}, status: http.StatusTooManyRequests, code: string(usecase.ErrorRateLimited)},
		{name: "upstream", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "completion_error"}, status: http.StatusBadGateway, code: string(usecase.ErrorUpstream)},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "store_write_error"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &stubAnswers{err: tc.err}, &stubCatalog{})

			resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/chat", `{"hackathon_id":"hk-1","question":"q"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
		})
	}
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h := newTestHandler(t, &stubAnswers{out: usecase.AnswerOutput{Answer: "ok"}}, &stubCatalog{})

	event := makeEvent(http.MethodPost, "/chat", `{"hackathon_id":"hk-1","question":"q"}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHandle_ListHackathons(t *testing.T) {
	catalog := &stubCatalog{list: []usecase.HackathonSummary{{ID: "a"}, {ID: "b"}}}
	h := newTestHandler(t, &stubAnswers{}, catalog)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/hackathons/", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := parseBody[listResponse](t, resp.Body)
	require.Equal(t, 2, out.Total)
	require.Equal(t, "b", out.Hackathons[1].ID)
}

func TestHandle_ListHackathonsEmpty(t *testing.T) {
	h := newTestHandler(t, &stubAnswers{}, &stubCatalog{list: []usecase.HackathonSummary{}})

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/hackathons", ""))
	require.NoError(t, err)
	require.JSONEq(t, `{"total":0,"hackathons":[]}`, resp.Body)
}

func TestHandle_GetHackathon(t *testing.T) {
	catalog := &stubCatalog{details: usecase.HackathonDetails{HackathonSummary: usecase.HackathonSummary{ID: "hk-1", Name: "Spring Hack"}}}
	h := newTestHandler(t, &stubAnswers{}, catalog)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/hackathons/spring-hack", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "spring-hack", catalog.identifier)

	out := parseBody[usecase.HackathonDetails](t, resp.Body)
	require.Equal(t, "Spring Hack", out.Name)

	event := makeEvent(http.MethodGet, "/hackathons/spring%20hack", "")
	event.PathParameters = map[string]string{"identifier": "spring hack"}
	_, err = h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "spring hack", catalog.identifier)

	catalog.err = &usecase.Error{Code: usecase.ErrorNotFound, Reason: "hackathon_not_found"}
	resp, err = h.Handle(context.Background(), makeEvent(http.MethodGet, "/hackathons/nope", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "hackathon_not_found", parseBody[errorResponse](t, resp.Body).Message)
}

func TestHandle_ImportHackathon(t *testing.T) {
	catalog := &stubCatalog{imported: usecase.ImportResult{ID: "hk-1", Name: "Spring Hack"}}
	h := newTestHandler(t, &stubAnswers{}, catalog)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/admin/import-hackathon",
		`{"hackathon_data":{"name":"Spring Hack","slug":"spring-hack"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "spring-hack", catalog.doc.Slug())

	out := parseBody[importResponse](t, resp.Body)
	require.Equal(t, importResponse{
		Status:        "success",
		Message:       "Hackathon data imported successfully",
		HackathonID:   "hk-1",
		HackathonName: "Spring Hack",
	}, out)
}

func TestHandle_ImportMultipleHackathons(t *testing.T) {
	catalog := &stubCatalog{batch: usecase.BatchImportResult{
		Imported:      []usecase.ImportResult{{ID: "a"}},
		Failed:        []usecase.ImportFailure{{Index: 1, Code: string(usecase.ErrorConflict), Reason: "duplicate_slug"}},
		ImportedCount: 1,
		FailedCount:   1,
	}}
	h := newTestHandler(t, &stubAnswers{}, catalog)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "/admin/import-multiple-hackathons",
		`[{"name":"A"},{"name":"B","slug":"taken"}]`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, catalog.docs, 2)

	out := parseBody[map[string]any](t, resp.Body)
	require.Equal(t, "completed", out["status"])
	require.EqualValues(t, 1, out["imported_count"])
	require.EqualValues(t, 1, out["failed_count"])
	require.Len(t, out["failed"], 1)
}

func TestHandle_UpdateHackathon(t *testing.T) {
	catalog := &stubCatalog{details: usecase.HackathonDetails{HackathonSummary: usecase.HackathonSummary{ID: "hk-1"}, Tagline: "Ship it"}}
	h := newTestHandler(t, &stubAnswers{}, catalog)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPatch, "/admin/hackathons/hk-1", `{"tagline":"Ship it"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hk-1", catalog.updateID)
	require.Equal(t, domain.Document{"tagline": "Ship it"}, catalog.doc)
	require.Equal(t, "Ship it", parseBody[usecase.HackathonDetails](t, resp.Body).Tagline)
}

func TestHandle_HealthAndRoot(t *testing.T) {
	h := newTestHandler(t, &stubAnswers{}, &stubCatalog{})

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodGet, "/health", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, healthResponse{
		Status:    "healthy",
		Timestamp: "2025-03-10T12:00:00Z",
		Provider:  "Groq",
		Model:     "llama-test",
	}, parseBody[healthResponse](t, resp.Body))

	resp, err = h.Handle(context.Background(), makeEvent(http.MethodGet, "/", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	root := parseBody[rootResponse](t, resp.Body)
	require.Equal(t, "Hackathon Support Chatbot API", root.Name)
	require.Equal(t, "llama-test", root.Model)
}

func TestHandle_PreflightAndUnknownRoutes(t *testing.T) {
	h := newTestHandler(t, &stubAnswers{}, &stubCatalog{})

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodOptions, "/chat", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, resp.Body)
	require.Contains(t, resp.Headers["Access-Control-Allow-Methods"], "PATCH")

	for _, ev := range []events.APIGatewayProxyRequest{
		makeEvent(http.MethodGet, "/chat", ""),
		makeEvent(http.MethodDelete, "/hackathons/hk-1", ""),
		makeEvent(http.MethodPost, "/admin/unknown", "{}"),
	} {
		resp, err := h.Handle(context.Background(), ev)
		require.NoError(t, err)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, ev.Path)
	}
}
