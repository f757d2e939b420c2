package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	stripebillingdomain "github.com/citadia/citadia/internal/stripebilling/domain"
)

func (s *Server) EnsureStripeCustomer(c *gin.Context) {
	customerID, err := s.stripeSvc.EnsureCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stripe_customer_id": customerID})
}

func (s *Server) CreateStripeInvoice(c *gin.Context) {
	var req stripebillingdomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.stripeSvc.CreateInvoice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListStripeInvoices(c *gin.Context) {
	items, err := s.stripeSvc.ListInvoices(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
