package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	associationdomain "github.com/citadia/citadia/internal/association/domain"
)

func (s *Server) CreateAssociation(c *gin.Context) {
	var req associationdomain.CreateAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.associationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListAssociations(c *gin.Context) {
	if tenantID := c.Query("tenant_id"); tenantID != "" {
		items, err := s.associationSvc.ListByTenant(c.Request.Context(), tenantID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
		return
	}

	items, err := s.associationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetAssociation(c *gin.Context) {
	resp, err := s.associationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateAssociation(c *gin.Context) {
	var req associationdomain.UpdateAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.associationSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeactivateAssociation(c *gin.Context) {
	resp, err := s.associationSvc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
