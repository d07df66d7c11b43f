package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

const userIDHeader = "X-User-ID"

// requestIDMiddleware attaches a generated request id to the request
// context so every downstream log line is correlated (ports.WithRequestID).
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ports.WithRequestID(c.Request.Context(), ports.NewRequestID())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s.deps.Logger == nil {
			return
		}
		s.deps.Logger.Info(c.Request.Context(), "request handled",
			"method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status())
	}
}

// membershipMiddleware enforces that the caller is a member of the project
// being operated on, looked up fresh on every request; no
// in-process caching of user data.
func (s *Server) membershipMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			writeError(c, cperrors.NewUnauthorizedError("missing caller identity"))
			c.Abort()
			return
		}

		projectID := c.Param("project_id")
		project, err := s.deps.Store.GetProject(c.Request.Context(), projectID)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		if !project.HasMember(userID) {
			writeError(c, cperrors.NewForbiddenError("caller is not a member of this project"))
			c.Abort()
			return
		}

		c.Set("project", project)
		c.Set("user_id", userID)
		c.Next()
	}
}

// errorStatus projects a domain error code onto an HTTP status
// "Propagation").
func errorStatus(code cperrors.Code) int {
	switch code {
	case cperrors.CodeNotFound, cperrors.CodeManifestNotFound:
		return http.StatusNotFound
	case cperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case cperrors.CodeForbidden:
		return http.StatusForbidden
	case cperrors.CodeConflict:
		return http.StatusConflict
	case cperrors.CodeRepoUnreachable, cperrors.CodeUpstreamFailure:
		return http.StatusBadGateway
	case cperrors.CodeTypeMismatch, cperrors.CodeConfigKeysMismatch, cperrors.CodeCyclic,
		cperrors.CodeDisconnected, cperrors.CodeManifestInvalid, cperrors.CodeTemplateInvalid,
		cperrors.CodeTemplateCyclic, cperrors.CodeMissingConfig, cperrors.CodeEmptyProject,
		cperrors.CodeUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError projects err onto the user-visible taxonomy. MISSING_CONFIG
// carries a structured per-block payload ("User-visible failure
// behavior"); every other error returns a code plus a single-line message.
func writeError(c *gin.Context, err error) {
	code := cperrors.Coerce(err)
	status := errorStatus(code)

	if missing, ok := err.(*cperrors.MissingConfigError); ok {
		c.JSON(status, gin.H{"code": code, "blocks": missing.Blocks})
		return
	}

	c.JSON(status, gin.H{"code": code, "message": err.Error()})
}
