package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	addondomain "github.com/citadia/citadia/internal/addon/domain"
)

func (s *Server) CreateAddon(c *gin.Context) {
	var req addondomain.CreateAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.addonSvc.CreateAddon(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListAddons(c *gin.Context) {
	includeArchived, err := parseOptionalBool(c.Query("include_archived"))
	if err != nil {
		AbortWithError(c, newValidationError("include_archived", "invalid_bool", "invalid boolean"))
		return
	}

	items, err := s.addonSvc.ListAddons(c.Request.Context(), includeArchived != nil && *includeArchived)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetAddon(c *gin.Context) {
	resp, err := s.addonSvc.GetAddon(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateAddon(c *gin.Context) {
	var req addondomain.UpdateAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.addonSvc.UpdateAddon(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ArchiveAddon(c *gin.Context) {
	if err := s.addonSvc.ArchiveAddon(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

func (s *Server) ListTenantAddons(c *gin.Context) {
	items, err := s.addonSvc.ListByTenant(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

type attachAddonRequest struct {
	Quantity int64 `json:"quantity"`
}

func (s *Server) AttachAddon(c *gin.Context) {
	var req attachAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.addonSvc.Attach(c.Request.Context(), c.Param("id"), c.Param("addonId"), req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type quantityChangeRequest struct {
	NewQuantity int64 `json:"new_quantity"`
}

func (s *Server) PreviewAddonQuantity(c *gin.Context) {
	var req quantityChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.addonSvc.PreviewQuantityChange(c.Request.Context(), c.Param("id"), c.Param("addonId"), req.NewQuantity, time.Now().UTC())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ApplyAddonQuantity(c *gin.Context) {
	var req quantityChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.addonSvc.ApplyQuantityChange(c.Request.Context(), c.Param("id"), c.Param("addonId"), req.NewQuantity, time.Now().UTC())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
