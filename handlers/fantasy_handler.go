package handlers

import (
	"net/http"

	"github.com/sandpit-systems/beachline/middleware"
	"github.com/sandpit-systems/beachline/services"
)

type FantasyHandler struct {
	fantasy services.FantasyService
}

func NewFantasyHandler(fantasy services.FantasyService) *FantasyHandler {
	return &FantasyHandler{fantasy: fantasy}
}

func (h *FantasyHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	teams, err := h.fantasy.ListTeams(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": teams})
}

func (h *FantasyHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	userID, err := urlIntParam(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	team, err := h.fantasy.GetTeam(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *FantasyHandler) ReplaceTeam(w http.ResponseWriter, r *http.Request) {
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
	userID, err := urlIntParam(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		PlayerIDs []int `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	team, err := h.fantasy.ReplaceTeam(r.Context(), actorID, tournamentID, userID, input.PlayerIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}
