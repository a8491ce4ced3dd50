package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const userIDKey = "userID"

// requireAuth is the auth gate: it resolves the bearer token to a user id or
// aborts with 401.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		abortUnauthorized(c, "No token, authorization denied")
		return
	}

	userID, err := s.auth.VerifyToken(token)
	if err != nil {
		abortUnauthorized(c, "Token is not valid")
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": msg,
	})
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = log.Error()
		case status >= http.StatusBadRequest:
			evt = log.Warn()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// cors allows the listed browser origins. An entry starting with "*." matches
// any subdomain of the rest, e.g. "*.vercel.app". A bare "*" admits any origin
// but never with credentials.
func cors(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed, credentials := originAllowed(origins, origin)
		if origin != "" && allowed {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// originAllowed reports whether origin may call the API and whether it may do
// so with credentials. Named matches win over a bare "*".
func originAllowed(allowed []string, origin string) (ok, credentials bool) {
	for _, a := range allowed {
		if a == origin {
			return true, true
		}
		if suffix, found := strings.CutPrefix(a, "*."); found && strings.HasSuffix(origin, "."+suffix) {
			return true, true
		}
		if a == "*" {
			ok = true
		}
	}
	return ok, false
}
