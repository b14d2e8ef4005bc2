package handler

import (
	"context"
	"net/http"

	"flash-sale-api/pkg/response"
)

// StatsProvider reports ledger and sale counters.
type StatsProvider interface {
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// AdminHandler serves operator-only endpoints.
type AdminHandler struct {
	stats StatsProvider
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(stats StatsProvider) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, stats)
}
