package handlers

import (
	"net/http"

	"github.com/sandpit-systems/beachline/middleware"
	"github.com/sandpit-systems/beachline/services"
)

type ScoringHandler struct {
	scoring services.ScoringService
}

func NewScoringHandler(scoring services.ScoringService) *ScoringHandler {
	return &ScoringHandler{scoring: scoring}
}

func (h *ScoringHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	config, err := h.scoring.GetConfig(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, config)
}

func (h *ScoringHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var patch services.ScoringConfigPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, err)
		return
	}

	config, err := h.scoring.UpdateConfig(r.Context(), actorID, tournamentID, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, config)
}

func (h *ScoringHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	run, err := h.scoring.Recalculate(r.Context(), actorID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (h *ScoringHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	page, pageSize := queryPagination(r)

	runs, err := h.scoring.ListRuns(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	total := len(runs)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"items":    runs[start:end],
		"page":     page,
		"pageSize": pageSize,
		"total":    total,
	})
}
