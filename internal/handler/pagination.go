package handler

import (
	"net/http"
	"strconv"

	"flash-sale-api/pkg/apierror"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// parsePagination reads page/limit query parameters. Missing parameters fall
// back to defaults; malformed or out-of-range values are rejected rather than
// clamped.
func parsePagination(r *http.Request) (page, limit int, err *apierror.Error) {
	page, limit = defaultPage, defaultLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		v, parseErr := strconv.Atoi(raw)
		if parseErr != nil || v < 1 {
			return 0, 0, apierror.BadRequest("page must be a positive integer")
		}
		page = v
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, parseErr := strconv.Atoi(raw)
		if parseErr != nil || v < 1 || v > maxLimit {
			return 0, 0, apierror.BadRequest("limit must be between 1 and 100")
		}
		limit = v
	}

	return page, limit, nil
}
