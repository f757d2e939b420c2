package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	mandatedomain "github.com/citadia/citadia/internal/mandate/domain"
)

func (s *Server) CreateMandate(c *gin.Context) {
	var req mandatedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.mandateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListMandates(c *gin.Context) {
	if _, err := parseOptionalSnowflakeID(c.Query("tenant_id")); err != nil {
		AbortWithError(c, newValidationError("tenant_id", "invalid_tenant", "invalid tenant id"))
		return
	}

	filter := mandatedomain.ListRequest{
		TenantID: strings.TrimSpace(c.Query("tenant_id")),
		Status:   strings.ToUpper(strings.TrimSpace(c.Query("status"))),
	}

	items, err := s.mandateSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetMandate(c *gin.Context) {
	resp, err := s.mandateSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) IssueMandate(c *gin.Context) {
	resp, err := s.mandateSvc.Issue(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SettleMandate(c *gin.Context) {
	resp, err := s.mandateSvc.Settle(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CancelMandate(c *gin.Context) {
	resp, err := s.mandateSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) MandatePDF(c *gin.Context) {
	invoice, err := s.mandateSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.mandateSvc.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := "mandate.pdf"
	if invoice.Number != nil {
		filename = fmt.Sprintf("%s.pdf", *invoice.Number)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
