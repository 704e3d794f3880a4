package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/usecase"
)

const (
	headerCorrelationID = "X-Correlation-Id"
	apiName             = "Hackathon Support Chatbot API"
	apiVersion          = "1.0.0"
	providerName        = "Groq"
)

type AnswerUseCase interface {
	AnswerQuestion(ctx context.Context, in usecase.AnswerInput) (usecase.AnswerOutput, error)
}

type CatalogUseCase interface {
	ListHackathons(ctx context.Context) []usecase.HackathonSummary
	GetHackathon(ctx context.Context, identifier string) (usecase.HackathonDetails, error)
	ImportHackathon(ctx context.Context, doc domain.Document) (usecase.ImportResult, error)
	ImportHackathons(ctx context.Context, docs []domain.Document) (usecase.BatchImportResult, error)
	UpdateHackathon(ctx context.Context, id string, partial domain.Document) (usecase.HackathonDetails, error)
}

// Info is reported by the health and root endpoints.
type Info struct {
	Model string
}

type Handler struct {
	answers AnswerUseCase
	catalog CatalogUseCase
	info    Info
	logger  *slog.Logger
	now     func() time.Time
}

type chatRequest struct {
	HackathonID         string               `json:"hackathon_id"`
	Question            string               `json:"question"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history,omitempty"`
}

type chatResponse struct {
	Answer              string               `json:"answer"`
	Confidence          string               `json:"confidence"`
	Timestamp           string               `json:"timestamp"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history"`
}

type listResponse struct {
	Total      int                        `json:"total"`
	Hackathons []usecase.HackathonSummary `json:"hackathons"`
}

type importRequest struct {
	HackathonData domain.Document `json:"hackathon_data"`
}

type importResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	HackathonID   string `json:"hackathon_id"`
	HackathonName string `json:"hackathon_name"`
}

type batchImportResponse struct {
	Status string `json:"status"`
	usecase.BatchImportResult
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
}

type rootResponse struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewHandler(answers AnswerUseCase, catalog CatalogUseCase, info Info, logger *slog.Logger) (*Handler, error) {
	if answers == nil {
		return nil, errors.New("handler: answer use case must not be nil")
	}
	if catalog == nil {
		return nil, errors.New("handler: catalog use case must not be nil")
	}
	if info.Model == "" {
		info.Model = usecase.DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		answers: answers,
		catalog: catalog,
		info:    info,
		logger:  logger.With(slog.String("module", "handler")),
		now:     time.Now,
	}, nil
}

// Handle routes one API Gateway proxy event. Failures are always returned as
// JSON responses, never as a Lambda error.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, headerCorrelationID)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With(
		slog.String("correlation_id", correlationID),
		slog.String("method", req.HTTPMethod),
		slog.String("path", req.Path),
	)

	status, payload := h.route(ctx, logger, req)
	return h.respond(logger, correlationID, status, payload), nil
}

func (h *Handler) route(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	method := strings.ToUpper(req.HTTPMethod)
	if method == http.MethodOptions {
		return http.StatusNoContent, nil
	}

	segments := pathSegments(req.Path)
	switch {
	case len(segments) == 0 && method == http.MethodGet:
		return http.StatusOK, rootResponse{Name: apiName, Version: apiVersion, Provider: providerName, Model: h.info.Model}

	case matches(segments, "health") && method == http.MethodGet:
		return http.StatusOK, healthResponse{
			Status:    "healthy",
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
			Provider:  providerName,
			Model:     h.info.Model,
		}

	case matches(segments, "chat") && method == http.MethodPost:
		return h.chat(ctx, logger, req)

	case matches(segments, "hackathons") && method == http.MethodGet:
		list := h.catalog.ListHackathons(ctx)
		return http.StatusOK, listResponse{Total: len(list), Hackathons: list}

	case len(segments) == 2 && segments[0] == "hackathons" && method == http.MethodGet:
		details, err := h.catalog.GetHackathon(ctx, pathParam(req, "identifier", segments[1]))
		if err != nil {
			return h.fail(logger, err)
		}
		return http.StatusOK, details

	case matches(segments, "admin", "import-hackathon") && method == http.MethodPost:
		return h.importOne(ctx, logger, req)

	case matches(segments, "admin", "import-multiple-hackathons") && method == http.MethodPost:
		return h.importMany(ctx, logger, req)

	case len(segments) == 3 && segments[0] == "admin" && segments[1] == "hackathons" && method == http.MethodPatch:
		return h.update(ctx, logger, req, pathParam(req, "id", segments[2]))
	}

	return http.StatusNotFound, errorResponse{Error: string(usecase.ErrorNotFound), Message: "route not found"}
}

func (h *Handler) chat(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	var body chatRequest
	if err := decodeBody(req, &body); err != nil {
		return invalidBody(logger, err)
	}
	out, err := h.answers.AnswerQuestion(ctx, usecase.AnswerInput{
		HackathonID: body.HackathonID,
		Question:    body.Question,
		History:     body.ConversationHistory,
	})
	if err != nil {
		return h.fail(logger, err)
	}
	return http.StatusOK, chatResponse{
		Answer:              out.Answer,
		Confidence:          out.Confidence,
		Timestamp:           out.Timestamp,
		ConversationHistory: out.History,
	}
}

func (h *Handler) importOne(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	var body importRequest
	if err := decodeBody(req, &body); err != nil {
		return invalidBody(logger, err)
	}
	res, err := h.catalog.ImportHackathon(ctx, body.HackathonData)
	if err != nil {
		return h.fail(logger, err)
	}
	return http.StatusOK, importResponse{
		Status:        "success",
		Message:       "Hackathon data imported successfully",
		HackathonID:   res.ID,
		HackathonName: res.Name,
	}
}

func (h *Handler) importMany(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) (int, any) {
	var docs []domain.Document
	if err := decodeBody(req, &docs); err != nil {
		return invalidBody(logger, err)
	}
	res, err := h.catalog.ImportHackathons(ctx, docs)
	if err != nil {
		return h.fail(logger, err)
	}
	logger.Info("batch import finished", slog.Int("imported", res.ImportedCount), slog.Int("failed", res.FailedCount))
	return http.StatusOK, batchImportResponse{Status: "completed", BatchImportResult: res}
}

func (h *Handler) update(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest, id string) (int, any) {
	var partial domain.Document
	if err := decodeBody(req, &partial); err != nil {
		return invalidBody(logger, err)
	}
	details, err := h.catalog.UpdateHackathon(ctx, id, partial)
	if err != nil {
		return h.fail(logger, err)
	}
	return http.StatusOK, details
}

func (h *Handler) fail(logger *slog.Logger, err error) (int, any) {
	var usecaseErr *usecase.Error
	if !errors.As(err, &usecaseErr) {
		logger.Error("unexpected error", slog.Any("error", err))
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal), Message: "internal error"}
	}

	status := statusFor(usecaseErr.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("code", string(usecaseErr.Code)), slog.String("reason", usecaseErr.Reason), slog.Any("error", usecaseErr.Err))
	} else {
		logger.Info("request rejected", slog.String("code", string(usecaseErr.Code)), slog.String("reason", usecaseErr.Reason))
	}
	return status, errorResponse{Error: string(usecaseErr.Code), Message: usecaseErr.Reason}
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorConflict:
		return http.StatusConflict
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func invalidBody(logger *slog.Logger, err error) (int, any) {
	logger.Info("invalid request body", slog.Any("error", err))
	return http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Message: "invalid_body"}
}

func (h *Handler) respond(logger *slog.Logger, correlationID string, status int, payload any) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Content-Type":                 "application/json",
		headerCorrelationID:            correlationID,
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET,POST,PATCH,OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type,Authorization," + headerCorrelationID,
	}
	if payload == nil {
		return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("encode response failed", slog.Any("error", err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR","message":"internal error"}`)
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(body)}
}

func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return err
		}
		raw = decoded
	}
	return json.Unmarshal(raw, v)
}

// headerValue looks a header up case-insensitively.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func pathSegments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func matches(segments []string, want ...string) bool {
	if len(segments) != len(want) {
		return false
	}
	for i := range want {
		if segments[i] != want[i] {
			return false
		}
	}
	return true
}

// pathParam prefers the API Gateway path parameter, which arrives URL-decoded.
func pathParam(req events.APIGatewayProxyRequest, name, fallback string) string {
	if v := req.PathParameters[name]; v != "" {
		return v
	}
	return fallback
}
