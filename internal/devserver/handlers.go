package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/notekeep/pkg/core"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) health(c *gin.Context) {
	accounts, sessions, notes := s.store.stats()
	c.JSON(http.StatusOK, gin.H{
		"name":     "notekeep-dev",
		"accounts": accounts,
		"sessions": sessions,
		"notes":    notes,
	})
}

func (s *Server) signUp(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error_code": "validation_failed", "msg": "Signup requires a valid password"})
		return
	}
	if !core.ValidEmail(body.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "error_code": "email_address_invalid", "msg": "Unable to validate email address: invalid format"})
		return
	}

	a, err := s.store.createAccount(body.Email, body.Password)
	if errors.Is(err, errUserExists) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": 422, "error_code": "user_already_exists", "msg": "User already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		return
	}
	s.logger.Info("account created", "email", a.email, "id", a.id)

	if !s.cfg.AutoSignIn {
		c.JSON(http.StatusOK, userBody{ID: a.id, Email: a.email})
		return
	}
	s.grant(c, a.id, a.email)
}

func (s *Server) token(c *gin.Context) {
	switch c.Query("grant_type") {
	case "password":
		var body credentials
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Malformed request body"})
			return
		}
		a, err := s.store.authenticate(body.Email, body.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		s.grant(c, a.id, a.email)

	case "refresh_token":
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Refresh token required"})
			return
		}
		uid, sid, next, ok := s.store.rotate(body.RefreshToken)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant", "error_description": "Invalid Refresh Token: Refresh Token Not Found"})
			return
		}
		a, ok := s.store.accountByID(uid)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant", "error_description": "User not found"})
			return
		}
		s.respondSession(c, a.id, a.email, sid, next)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type", "error_description": "unsupported grant type"})
	}
}

// grant opens a new session for the user and responds with its tokens.
func (s *Server) grant(c *gin.Context, uid, email string) {
	sid, refresh := s.store.openSession(uid)
	s.respondSession(c, uid, email, sid, refresh)
}

func (s *Server) respondSession(c *gin.Context, uid, email, sid, refresh string) {
	access, expires, err := s.tokens.issue(uid, email, sid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"token_type":    "bearer",
		"expires_in":    int64(s.cfg.TokenTTL.Seconds()),
		"expires_at":    expires.Unix(),
		"refresh_token": refresh,
		"user":          userBody{ID: uid, Email: email},
	})
}

func (s *Server) logout(c *gin.Context) {
	s.store.closeSession(c.GetString(sessionIDKey))
	c.Status(http.StatusNoContent)
}

func (s *Server) user(c *gin.Context) {
	a, ok := s.store.accountByID(userID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "error_code": "user_not_found", "msg": "User from sub claim in JWT does not exist"})
		return
	}
	c.JSON(http.StatusOK, userBody{ID: a.id, Email: a.email})
}

func (s *Server) listNotes(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusOK, []core.Note{})
		return
	}
	// order=<column>.<direction>[.<nulls>]
	parts := strings.Split(c.Query("order"), ".")
	desc := len(parts) < 2 || parts[1] != "asc"
	c.JSON(http.StatusOK, s.store.listNotes(uid, desc))
}

func (s *Server) insertNote(c *gin.Context) {
	var in core.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "PGRST102", "message": "Invalid body"})
		return
	}
	uid := userID(c)
	if uid == "" || in.Owner != uid {
		c.JSON(http.StatusForbidden, gin.H{"code": "42501", "message": `new row violates row-level security policy for table "notes"`})
		return
	}
	n := s.store.insertNote(in)
	if c.GetHeader("Prefer") == "return=representation" {
		c.JSON(http.StatusCreated, []core.Note{n})
		return
	}
	c.Status(http.StatusCreated)
}

// eqFilter extracts the value of an id=eq.<value> filter.
func eqFilter(c *gin.Context) (string, bool) {
	v, ok := strings.CutPrefix(c.Query("id"), "eq.")
	return v, ok && v != ""
}

func (s *Server) updateNote(c *gin.Context) {
	id, ok := eqFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "21000", "message": "UPDATE requires a WHERE clause"})
		return
	}
	var patch map[string]*string
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "PGRST102", "message": "Invalid body"})
		return
	}
	// Rows of other users are filtered out, not rejected.
	s.store.updateNote(userID(c), id, patch)
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteNote(c *gin.Context) {
	id, ok := eqFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "21000", "message": "DELETE requires a WHERE clause"})
		return
	}
	s.store.deleteNote(userID(c), id)
	c.Status(http.StatusNoContent)
}
