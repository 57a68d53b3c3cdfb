package handlers

import (
	"net/http"

	"github.com/sandpit-systems/beachline/middleware"
	"github.com/sandpit-systems/beachline/models"
	"github.com/sandpit-systems/beachline/services"
)

type EntryHandler struct {
	entries services.EntryService
}

func NewEntryHandler(entries services.EntryService) *EntryHandler {
	return &EntryHandler{entries: entries}
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	items, err := h.entries.List(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": items})
}

func (h *EntryHandler) Replace(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		Items []*models.EntryListItem `json:"items"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	items, err := h.entries.Replace(r.Context(), actorID, tournamentID, input.Items)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": items})
}

func (h *EntryHandler) Patch(w http.ResponseWriter, r *http.Request) {
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
	itemID, err := urlIntParam(r, "itemID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var patch services.EntryPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, err)
		return
	}

	items, err := h.entries.Patch(r.Context(), actorID, tournamentID, itemID, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": items})
}
