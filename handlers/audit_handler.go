package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sandpit-systems/beachline/repositories"
	"github.com/sandpit-systems/beachline/services"
)

type AuditHandler struct {
	audit services.AuditService
}

func NewAuditHandler(audit services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	page, err := h.audit.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseAuditFilter(r *http.Request) (repositories.AuditFilter, error) {
	q := r.URL.Query()
	filter := repositories.AuditFilter{}
	filter.Page, filter.PageSize = queryPagination(r)

	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("entityType"); v != "" {
		filter.EntityType = &v
	}
	if v := q.Get("entityId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.EntityID = &id
	}
	if v := q.Get("actor"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.ActorUserID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	return filter, nil
}
