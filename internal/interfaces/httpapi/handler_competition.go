package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
)

const maxRequestBodyBytes = 64 << 10

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

type discoverFixturesRequest struct {
	Code  string `validate:"required,max=32"`
	Limit int    `validate:"min=0,max=500"`
}

type refreshCompetitionsRequest struct {
	Competitions []string `json:"competitions" validate:"omitempty,max=100,dive,required,max=32"`
}

func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitions")
	defer span.End()

	items, err := h.discoveryService.ListCompetitions(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list competitions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]competitionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, competitionToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

// DiscoverFixtures answers 200 with an empty round and the variant
// diagnostics when no source produced fixtures.
func (h *Handler) DiscoverFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DiscoverFixtures")
	defer span.End()

	req := discoverFixturesRequest{Code: strings.TrimSpace(r.PathValue("code"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		req.Limit = limit
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	discovery, err := h.discoveryService.Discover(ctx, req.Code, req.Limit)
	var discoveryErr *usecase.DiscoveryError
	switch {
	case err == nil:
	case errors.As(err, &discoveryErr):
		h.logger.WarnContext(ctx, "discovery found no fixtures",
			"competition", discoveryErr.Competition,
			"variants", len(discoveryErr.Diagnostics.Variants),
		)
	default:
		h.logger.WarnContext(ctx, "discover fixtures failed", "competition", req.Code, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, discoveryToDTO(ctx, discovery))
}

func (h *Handler) ClearCompetitionCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearCompetitionCache")
	defer span.End()

	code := strings.TrimSpace(r.PathValue("code"))
	if err := h.discoveryService.ClearCache(ctx, code); err != nil {
		h.logger.WarnContext(ctx, "clear competition cache failed", "competition", code, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cacheClearedDTO{Competition: competition.NormalizeCode(code), Cleared: true})
}

func (h *Handler) ClearAllCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearAllCache")
	defer span.End()

	if err := h.discoveryService.ClearAllCache(ctx); err != nil {
		h.logger.ErrorContext(ctx, "clear all cache failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cacheClearedDTO{Cleared: true})
}

// RefreshCompetitions accepts an optional body; no body refreshes everything.
func (h *Handler) RefreshCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshCompetitions")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	var req refreshCompetitionsRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := strictJSON.Unmarshal(body, &req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.discoveryService.RefreshAll(ctx, req.Competitions)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh competitions failed", "competitions", req.Competitions, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
