package http

import (
	"errors"
	"net/http"
	"time"

	"fanatitra/internal/auth"
	"fanatitra/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			NewResponse().Status(http.StatusServiceUnavailable).JSON(map[string]string{"status": "unavailable"}).Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		plainFail(http.StatusServiceUnavailable, "not_configured", "admin login is not configured").Write(w)
		return
	}
	p, err := ParseRequestBody(w, r)
	if err != nil {
		SuccessFail(r, err).Write(w)
		return
	}
	fr := &fieldReader{p: p}
	email, password := fr.value("email"), fr.value("password")
	if fr.err != nil {
		SuccessFail(r, fr.err).Write(w)
		return
	}

	token, expires, err := s.auth.Login(r.Context(), email, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		plainFail(http.StatusUnauthorized, "", "Invalid credentials").Write(w)
	case errors.Is(err, auth.ErrNotConfigured):
		plainFail(http.StatusServiceUnavailable, "not_configured", "admin login is not configured").Write(w)
	case err != nil:
		SuccessFail(r, err).Write(w)
	default:
		NewResponse().JSON(loginResponse{Success: true, Token: token, ExpiresAt: expires}).Write(w)
	}
}
