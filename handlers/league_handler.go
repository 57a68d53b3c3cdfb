package handlers

import (
	"net/http"

	"github.com/sandpit-systems/beachline/middleware"
	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/services"
)

type LeagueHandler struct {
	leagues services.LeagueService
}

func NewLeagueHandler(leagues services.LeagueService) *LeagueHandler {
	return &LeagueHandler{leagues: leagues}
}

func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	var league models.League
	if err := readJSON(w, r, &league); err != nil {
		badRequestResponse(w, err)
		return
	}

	created, err := h.leagues.Create(r.Context(), actorID, &league)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *LeagueHandler) Get(w http.ResponseWriter, r *http.Request) {
	leagueID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	league, err := h.leagues.GetByID(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, league)
}

func (h *LeagueHandler) List(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.leagues.List(r.Context(), r.URL.Query().Get("seasonId"))
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": leagues})
}

func (h *LeagueHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	leagueID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var league models.League
	if err := readJSON(w, r, &league); err != nil {
		badRequestResponse(w, err)
		return
	}
	league.ID = leagueID

	updated, err := h.leagues.Update(r.Context(), actorID, &league)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *LeagueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	leagueID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.leagues.Delete(r.Context(), actorID, leagueID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeagueHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	leagueID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	rows, err := h.leagues.GetLeaderboard(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": rows})
}

func (h *LeagueHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	leagueID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	rows, err := h.leagues.RecomputeRows(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": rows})
}
