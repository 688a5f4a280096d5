package devserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "userID"
	sessionIDKey = "sessionID"
)

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())

	auth := r.Group("/auth/v1")
	auth.GET("/health", s.health)
	auth.Use(s.requireAPIKey())
	auth.POST("/signup", s.signUp)
	auth.POST("/token", s.token)
	auth.POST("/logout", s.requireUser(), s.logout)
	auth.GET("/user", s.requireUser(), s.user)

	rest := r.Group("/rest/v1")
	rest.Use(s.requireAPIKey(), s.optionalUser())
	rest.GET("/notes", s.listNotes)
	rest.POST("/notes", s.insertNote)
	rest.PATCH("/notes", s.updateNote)
	rest.DELETE("/notes", s.deleteNote)

	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.LogAttrs(c.Request.Context(), slog.LevelDebug, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("request_id", c.GetHeader("X-Request-Id")),
			slog.Duration("duration", time.Since(start)))
	}
}

func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("apikey") != s.cfg.AnonKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid API key"})
			return
		}
		c.Next()
	}
}

// bearer returns the Authorization token, or "" when missing or malformed.
func bearer(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// authenticate resolves a user access token. The anon key is not a user.
func (s *Server) authenticate(c *gin.Context) (ok bool, present bool) {
	token := bearer(c)
	if token == "" || token == s.cfg.AnonKey {
		return false, false
	}
	cl, err := s.tokens.verify(token)
	if err != nil || !s.store.sessionActive(cl.SessionID) {
		return false, true
	}
	c.Set(userIDKey, cl.Subject)
	c.Set(sessionIDKey, cl.SessionID)
	return true, true
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, _ := s.authenticate(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized, "error_code": "bad_jwt", "msg": "invalid JWT",
			})
			return
		}
		c.Next()
	}
}

// optionalUser lets anonymous requests through; they see no rows.
func (s *Server) optionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, present := s.authenticate(c); present && !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "PGRST301", "message": "JWT expired or invalid"})
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
