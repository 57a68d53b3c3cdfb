package handlers

import (
	"net/http"

	"github.com/sandpit-systems/beachline/middleware"
	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/services"
)

type MatchHandler struct {
	matches services.MatchService
}

func NewMatchHandler(matches services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var match models.Match
	if err := readJSON(w, r, &match); err != nil {
		badRequestResponse(w, err)
		return
	}
	match.TournamentID = tournamentID

	created, err := h.matches.Create(r.Context(), actorID, &match)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	matches, err := h.matches.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": matches})
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlIntParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matches.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	matchID, err := urlIntParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		SetScores []models.SetScore `json:"set_scores"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matches.UpdateScore(r.Context(), actorID, matchID, input.SetScores)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	matchID, err := urlIntParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	outcome, err := h.matches.Complete(r.Context(), actorID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *MatchHandler) Correct(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	matchID, err := urlIntParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		SetScores []models.SetScore `json:"set_scores"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	outcome, err := h.matches.Correct(r.Context(), actorID, matchID, input.SetScores)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	matchID, err := urlIntParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.matches.Delete(r.Context(), actorID, matchID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MatchHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	bracket, err := h.matches.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bracket)
}

// RebuildBracket recomputes the projection on demand. The bracket is derived
// state, so rebuild and read return the same thing.
func (h *MatchHandler) RebuildBracket(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	h.GetBracket(w, r)
}
