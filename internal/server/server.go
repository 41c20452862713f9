package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Martingim-10/retirex/internal/chat"
	"github.com/Martingim-10/retirex/internal/projection"
	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/Martingim-10/retirex/pkg/mathutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// QuoteRecorder persists successful projections. Failures are logged only.
type QuoteRecorder interface {
	RecordQuote(ctx context.Context, req projection.Request, result projection.Result) error
}

// Options wires the handler to its collaborators.
type Options struct {
	Engine         *projection.Engine
	Chat           *chat.Service // nil answers chat requests with 503
	Quotes         QuoteRecorder
	MaxBodySize    int64
	Version        string
	AllowedOrigins []string
	ExposeRates    bool
	QuoteTimeout   time.Duration // bounds each RecordQuote call
}

type handler struct {
	logger      *zap.Logger
	engine      *projection.Engine
	chat        *chat.Service
	quotes      QuoteRecorder
	maxBodySize int64
	version      string
	exposeRates  bool
	quoteTimeout time.Duration
}

// NewHandler constructs the HTTP handler that serves the projection and chat APIs.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	quoteTimeout := opts.QuoteTimeout
	if quoteTimeout <= 0 {
		quoteTimeout = time.Duration(constants.DefaultSheetsTimeoutSeconds) * time.Second
	}

	engine := opts.Engine
	if engine == nil {
		var err error
		engine, err = projection.NewEngine(projection.DefaultPolicy())
		if err != nil {
			panic(fmt.Sprintf("default projection policy is invalid: %v", err))
		}
	}

	h := &handler{
		logger:      logger,
		engine:      engine,
		chat:        opts.Chat,
		quotes:      opts.Quotes,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		exposeRates:  opts.ExposeRates,
		quoteTimeout: quoteTimeout,
	}

	mux := http.NewServeMux()

	// Readiness banner
	mux.Handle("/", instrument("/", h.handleRoot))
	mux.Handle("/healthz", instrument("/healthz", h.handleHealth))
	mux.Handle("/api/version", instrument("/api/version", h.handleVersion))

	// Projection API, legacy and versioned paths
	mux.Handle("/cotizar", instrument("/cotizar", h.handleLegacyProjection))
	mux.Handle("/api/projection", instrument("/api/projection", h.handleProjection))

	// Chat API, legacy and versioned paths
	mux.Handle("/ia", instrument("/ia", h.handleChat))
	mux.Handle("/api/chat", instrument("/api/chat", h.handleChat))

	mux.Handle("/metrics", promhttp.Handler())

	var root http.Handler = mux
	root = corsMiddleware(opts.AllowedOrigins, root)
	root = accessLogMiddleware(logger, root)
	root = requestIDMiddleware(root)
	return root
}

func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(constants.ReadyBanner))
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type scenarioPayload struct {
	Capital     int64    `json:"capital"`
	AnnualRate  *float64 `json:"annual_rate,omitempty"`
	MonthlyRate *float64 `json:"monthly_rate,omitempty"`
}

type projectionResponse struct {
	Status         string           `json:"status"`
	Method         string           `json:"method"`
	Currency       string           `json:"currency"`
	Months         int              `json:"months"`
	PurePremium    *float64         `json:"pure_premium,omitempty"`
	Gender         string           `json:"gender,omitempty"`
	Official       scenarioPayload  `json:"official"`
	RealisticLocal scenarioPayload  `json:"realistic_local_currency"`
	RealisticUSD   *scenarioPayload `json:"realistic_usd,omitempty"`

	// Keys read by the /cotizar web form.
	Oficial  *scenarioPayload `json:"oficial,omitempty"`
	Realista *scenarioPayload `json:"realista,omitempty"`
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"` // same text, under the key the web form reads
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	h.serveProjection(w, r, false)
}

// handleLegacyProjection also answers with the oficial/realista keys.
func (h *handler) handleLegacyProjection(w http.ResponseWriter, r *http.Request) {
	h.serveProjection(w, r, true)
}

func (h *handler) serveProjection(w http.ResponseWriter, r *http.Request, legacy bool) {
	const op = "server.handleProjection"

	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	req, err := decodeProjectionRequest(r.Body)
	if err != nil {
		h.respondDecodeError(w, r, err, op)
		return
	}

	result, err := h.engine.Project(req)
	if err != nil {
		method := string(h.engine.Policy().Method)
		if projection.IsValidation(err) {
			projectionsTotal.WithLabelValues(method, outcomeRejected).Inc()
			h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op, err)
			return
		}
		projectionsTotal.WithLabelValues(method, outcomeFailed).Inc()
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, "projection could not be computed", op, err)
		return
	}
	projectionsTotal.WithLabelValues(string(result.Method), outcomeSuccess).Inc()

	h.recordQuote(r.Context(), req, result, op)

	h.logger.Info("projection computed",
		zap.String("op", op),
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("method", string(result.Method)),
		zap.Int("months", result.Months),
		zap.Duration("duration", time.Since(start)),
	)

	resp := h.buildProjectionResponse(result)
	if legacy {
		resp.Oficial = &resp.Official
		resp.Realista = &resp.RealisticLocal
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) recordQuote(ctx context.Context, req projection.Request, result projection.Result, op string) {
	if h.quotes == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.quoteTimeout)
	defer cancel()

	if err := h.quotes.RecordQuote(ctx, req, result); err != nil {
		h.logger.Warn("failed to record quote",
			zap.String("op", op),
			zap.String("request_id", RequestIDFromContext(ctx)),
			zap.Error(err),
		)
	}
}

func (h *handler) buildProjectionResponse(result projection.Result) projectionResponse {
	resp := projectionResponse{
		Status:         "success",
		Method:         string(result.Method),
		Currency:       string(result.Currency),
		Months:         result.Months,
		Gender:         result.Gender,
		Official:       h.scenarioPayload(result.Official),
		RealisticLocal: h.scenarioPayload(result.RealisticLocal),
	}
	if result.Method == projection.MethodActuarial {
		premium := mathutil.Round(result.PurePremium)
		resp.PurePremium = &premium
	}
	if result.RealisticUSD != nil {
		usd := h.scenarioPayload(*result.RealisticUSD)
		resp.RealisticUSD = &usd
	}
	return resp
}

func (h *handler) scenarioPayload(sr projection.ScenarioResult) scenarioPayload {
	payload := scenarioPayload{Capital: sr.Capital}
	if h.exposeRates {
		annual, monthly := sr.AnnualRate, sr.MonthlyRate
		payload.AnnualRate = &annual
		payload.MonthlyRate = &monthly
	}
	return payload
}

func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleChat"

	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if h.chat == nil {
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, "chat is not configured", op, chat.ErrNoAnswerer)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondDecodeError(w, r, err, op)
		return
	}

	reply, err := h.chat.Reply(r.Context(), payload.Messages)
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrInvalidHistory):
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op, err)
		return
	case errors.Is(err, chat.ErrNoAnswerer):
		h.respondErrorWithOp(w, r, http.StatusServiceUnavailable, "chat is not configured", op, err)
		return
	default:
		chatRepliesTotal.WithLabelValues(outcomeFailed).Inc()
		h.respondErrorWithOp(w, r, http.StatusBadGateway, "language model request failed", op, err)
		return
	}
	chatRepliesTotal.WithLabelValues(reply.Source).Inc()

	h.writeJSON(w, http.StatusOK, chatResponse{
		Status: "success",
		Reply:  reply.Text,
		Source: reply.Source,
	})
}

func (h *handler) respondDecodeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op, err)
		return
	}
	var vErr *projection.ValidationError
	if errors.As(err, &vErr) {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, vErr.Error(), op, err)
		return
	}
	h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), op, err)
}

// respondErrorWithOp writes the error envelope. Client errors are logged at
// info, server-side failures at error with their cause.
func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string, cause error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", append(fields, zap.NamedError("cause", cause))...)
	} else {
		h.logger.Info("request rejected", fields...)
	}

	h.writeJSON(w, status, errorResponse{Status: "error", Error: msg, Message: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
