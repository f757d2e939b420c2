package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PortalBillingSummary serves the tenant-facing billing page: displayed plan
// and billing state, attached addons, and recent invoices on both channels.
func (s *Server) PortalBillingSummary(c *gin.Context) {
	resp, err := s.portalSvc.Summary(c.Request.Context(), c.Param("slug"), time.Now().UTC())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
