package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/citadia/citadia/internal/reqctx"
)

const (
	// HeaderSuperadminToken carries the operator token forwarded by the
	// identity gateway in front of this service.
	HeaderSuperadminToken = "X-Superadmin-Token"
	// HeaderPortalToken carries the per-tenant secret for the billing portal.
	HeaderPortalToken = "X-Portal-Token"
)

// RequestContext stamps every request with a request id and the client
// address so audit entries and logs can be correlated.
func (s *Server) RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = reqctx.WithRequestID(ctx, s.genID.Generate().String())
		ctx = reqctx.WithIPAddress(ctx, c.ClientIP())
		ctx = reqctx.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SuperadminRequired gates the operator surface on the static token. An
// unset token keeps the surface closed.
func (s *Server) SuperadminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := s.cfg.SuperadminToken
		presented := strings.TrimSpace(c.GetHeader(HeaderSuperadminToken))
		if expected == "" || presented == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := reqctx.WithActor(c.Request.Context(), reqctx.ActorTypeOperator, "superadmin")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// PortalTokenRequired authenticates the tenant billing portal with the
// per-tenant secret minted at tenant creation. All failures look the same to
// the caller.
func (s *Server) PortalTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := strings.TrimSpace(c.Param("slug"))
		presented := strings.TrimSpace(c.GetHeader(HeaderPortalToken))
		if slug == "" || presented == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		tenant, err := s.tenantRepo.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		expected := tenant.PortalToken()
		if expected == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := reqctx.WithActor(c.Request.Context(), reqctx.ActorTypeTenant, tenant.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
