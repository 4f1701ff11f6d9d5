package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "optionrank/internal/errors"
	"optionrank/internal/exporter"
	"optionrank/internal/middleware"
	"optionrank/internal/pipeline"
	api "optionrank/pkg/contracts/api/v1"
	"optionrank/pkg/contracts/domain"
)

// MaxResponseContracts caps the limit parameter
const MaxResponseContracts = 500

type symbolCtxKey struct{}

// ChainHandler handles option chain scoring requests
type ChainHandler struct {
	scoring      ChainScoringService
	store        ChainStorage
	validation   *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChainHandler creates a new chain handler
func NewChainHandler(scoring ChainScoringService, store ChainStorage, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChainHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainHandler{
		scoring:      scoring,
		store:        store,
		validation:   validation,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "chain_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the chain routes
func (h *ChainHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListChains)
	r.Post("/score", h.ScoreChain)

	r.Route("/{symbol}", func(r chi.Router) {
		r.Use(h.SymbolCtx)
		r.Put("/", h.StoreChain)
		r.Get("/score", h.ScoreStoredChain)
		r.Get("/export", h.ExportChain)
	})

	return r
}

// SymbolCtx validates the symbol URL parameter and stores it upper-cased
func (h *ChainHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
		if !domain.IsValidSymbol(symbol) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("symbol", "symbol must be a valid ticker symbol"))
			return
		}
		ctx := context.WithValue(r.Context(), symbolCtxKey{}, symbol)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func symbolFromContext(ctx context.Context) string {
	s, _ := ctx.Value(symbolCtxKey{}).(string)
	return s
}

// ListChains handles GET /api/v1/chains
func (h *ChainHandler) ListChains(w http.ResponseWriter, r *http.Request) {
	chains, err := h.store.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	out := api.ChainListResponse{Chains: make([]api.ChainInfo, 0, len(chains)), Count: len(chains)}
	for _, c := range chains {
		out.Chains = append(out.Chains, api.ChainInfo(c))
	}
	render.JSON(w, r, out)
}

// ScoreChain handles POST /api/v1/chains/score
func (h *ChainHandler) ScoreChain(w http.ResponseWriter, r *http.Request) {
	directions, ok := h.directions(w, r)
	if !ok {
		return
	}

	var req api.ScoreChainRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if req.Chain == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("chain", "chain is required"))
		return
	}
	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	snap := req.Chain.Snapshot()
	h.logger.InfoContext(r.Context(), "scoring inline chain",
		slog.String("symbol", snap.Symbol),
		slog.Int("contracts", len(snap.Contracts)),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	filters := filterParams(h.scoring.DefaultFilters(), req.Filters)
	h.respond(w, r, snap, directions, filters, req.Limit)
}

// StoreChain handles PUT /api/v1/chains/{symbol}
func (h *ChainHandler) StoreChain(w http.ResponseWriter, r *http.Request) {
	symbol := symbolFromContext(r.Context())

	var req api.StoreChainRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !strings.EqualFold(req.Chain.Symbol, symbol) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("chain.symbol",
			fmt.Sprintf("chain.symbol %q does not match %s", req.Chain.Symbol, symbol)))
		return
	}
	snap := req.Chain.Snapshot()
	snap.Symbol = symbol

	if _, err := h.store.Save(r.Context(), snap); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.StoreChainResponse{Symbol: symbol, Contracts: len(snap.Contracts)})
}

// ScoreStoredChain handles GET /api/v1/chains/{symbol}/score
func (h *ChainHandler) ScoreStoredChain(w http.ResponseWriter, r *http.Request) {
	directions, ok := h.directions(w, r)
	if !ok {
		return
	}
	filters, ok := h.queryFilters(w, r)
	if !ok {
		return
	}
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, MaxResponseContracts, 0)
	if !ok {
		return
	}
	snap, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.respond(w, r, snap, directions, filters, limit)
}

// ExportChain handles GET /api/v1/chains/{symbol}/export
func (h *ChainHandler) ExportChain(w http.ResponseWriter, r *http.Request) {
	formatName, ok := h.query.ValidateEnum(w, r, "format", []string{string(exporter.FormatCSV), string(exporter.FormatXLSX)}, string(exporter.FormatCSV))
	if !ok {
		return
	}
	format := exporter.Format(formatName)

	directions, ok := h.directions(w, r)
	if !ok {
		return
	}
	filters, ok := h.queryFilters(w, r)
	if !ok {
		return
	}
	snap, ok := h.fetch(w, r)
	if !ok {
		return
	}

	results, err := h.score(r.Context(), snap, directions, filters)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if format == exporter.FormatXLSX {
		err = exporter.WriteRankingXLSX(&buf, results)
	} else {
		err = exporter.WriteRankingCSV(&buf, results)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(results, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed",
			slog.String("error", err.Error()))
	}
}

// respond scores snap and renders one ranking, or one per direction when
// directions is nil
func (h *ChainHandler) respond(w http.ResponseWriter, r *http.Request, snap *domain.ChainSnapshot, directions []domain.StrategyDirection, filters pipeline.FilterParams, limit int) {
	results, err := h.score(r.Context(), snap, directions, filters)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if directions != nil {
		render.JSON(w, r, toScoreChainResponse(results[0], filters, limit))
		return
	}

	out := api.ScoreAllResponse{Symbol: snap.Symbol, Results: make([]api.ScoreChainResponse, 0, len(results))}
	for _, res := range results {
		out.Results = append(out.Results, toScoreChainResponse(res, filters, limit))
	}
	render.JSON(w, r, out)
}

func (h *ChainHandler) score(ctx context.Context, snap *domain.ChainSnapshot, directions []domain.StrategyDirection, filters pipeline.FilterParams) ([]*pipeline.Result, error) {
	if directions == nil {
		return h.scoring.ScoreAll(ctx, snap, &filters)
	}
	res, err := h.scoring.ScoreChain(ctx, snap, directions[0], &filters)
	if err != nil {
		return nil, err
	}
	return []*pipeline.Result{res}, nil
}

// directions reads the direction parameter. nil means every direction.
func (h *ChainHandler) directions(w http.ResponseWriter, r *http.Request) ([]domain.StrategyDirection, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("direction"))
	if v == "" || strings.EqualFold(v, "all") {
		return nil, true
	}
	d, ok := h.query.ValidateDirection(w, r, "direction", "")
	if !ok {
		return nil, false
	}
	return []domain.StrategyDirection{d}, true
}

// queryFilters reads the filter overrides of a GET request
func (h *ChainHandler) queryFilters(w http.ResponseWriter, r *http.Request) (pipeline.FilterParams, bool) {
	var req api.FilterRequest
	q := r.URL.Query()

	floats := []struct {
		param  string
		target **float64
	}{
		{"min_return", &req.MinAnnualReturnPct},
		{"max_return", &req.MaxAnnualReturnPct},
		{"min_premium", &req.MinPremium},
		{"max_premium", &req.MaxPremium},
		{"max_spread", &req.MaxSpread},
	}
	for _, f := range floats {
		if q.Get(f.param) == "" {
			continue
		}
		v, ok := h.query.ValidateFloat(w, r, f.param, 0)
		if !ok {
			return pipeline.FilterParams{}, false
		}
		*f.target = &v
	}

	basis, ok := h.query.ValidateEnum(w, r, "premium_basis", []string{string(pipeline.PremiumPerContract), string(pipeline.PremiumPerShare)}, "")
	if !ok {
		return pipeline.FilterParams{}, false
	}
	req.PremiumBasis = basis

	return filterParams(h.scoring.DefaultFilters(), &req), true
}

// fetch loads the snapshot named by the URL, honouring the expiry parameter
func (h *ChainHandler) fetch(w http.ResponseWriter, r *http.Request) (*domain.ChainSnapshot, bool) {
	var expiry time.Time
	if v := r.URL.Query().Get("expiry"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("expiry", "expiry must be a date in YYYY-MM-DD format"))
			return nil, false
		}
		expiry = t
	}

	snap, err := h.scoring.Fetch(r.Context(), symbolFromContext(r.Context()), expiry)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return snap, true
}
