package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskport/taskport/log"
)

// Stats handles GET /api/stats
// Reports live import session state for the authenticated user plus
// service-wide counters.
func (h *Handlers) Stats(c *gin.Context) {
	userID := currentUser(c)

	var userKeys, totalKeys int64
	if h.kvCount != nil {
		var err error
		if userKeys, err = h.kvCount("import:" + userID + ":"); err != nil {
			log.Error().Err(err).Msg("failed to count user import keys")
			RespondInternalError(c, "Failed to read stats")
			return
		}
		if totalKeys, err = h.kvCount("import:"); err != nil {
			log.Error().Err(err).Msg("failed to count import keys")
			RespondInternalError(c, "Failed to read stats")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"userImportKeys":  userKeys,
		"totalImportKeys": totalKeys,
		"sseSubscribers":  h.notif.SubscriberCount(),
	})
}
