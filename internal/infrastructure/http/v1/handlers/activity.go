package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/infrastructure/http/v1/dto"
	"stockbook/internal/infrastructure/storage/postgres"
)

const defaultActivityLimit = 50

// ActivityHandler serves the per-entity audit feed.
type ActivityHandler struct {
	*BaseHandler
	store *postgres.ActivityStore
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(base *BaseHandler, store *postgres.ActivityStore) *ActivityHandler {
	return &ActivityHandler{BaseHandler: base, store: store}
}

// History handles GET /activity/:type/:id: the activity feed for one
// entity, newest first.
func (h *ActivityHandler) History(c *gin.Context) {
	entityID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	limit := h.ParseIntQuery(c, "limit", defaultActivityLimit)
	if limit <= 0 || limit > 500 {
		limit = defaultActivityLimit
	}

	rows, err := h.store.EntityHistory(c.Request.Context(), c.Param("type"), entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	if rows == nil {
		rows = []postgres.ActivityRow{}
	}
	h.OK(c, rows)
}
