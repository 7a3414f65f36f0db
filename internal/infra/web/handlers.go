// File: internal/infra/web/handlers.go
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hostilerust-bot/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// tokenHandler exchanges the static API key for a short-lived JWT.
func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.validAPIKey(req.APIKey) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, expires, err := s.auth.Mint()
	if err != nil {
		s.log.Error().Err(err).Msg("token minting failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUC.Collect(r.Context())
	if err != nil {
		http.Error(w, "Failed to collect stats", http.StatusInternalServerError)
		return
	}

	response := struct {
		TotalUsers     int    `json:"total_users"`
		TotalIssued    int    `json:"total_issued"`
		PoolSize       int    `json:"pool_size"`
		MostActive     string `json:"most_active,omitempty"`
		MostActiveUses int    `json:"most_active_uses,omitempty"`
	}{
		TotalUsers:  stats.TotalUsers,
		TotalIssued: stats.TotalIssued,
		PoolSize:    stats.PoolSize,
	}
	if stats.MostActive != nil {
		response.MostActive = stats.MostActive.FirstName
		response.MostActiveUses = stats.MostActiveUses
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) usersListHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.userUC.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	type userResponse struct {
		ID           string     `json:"id"`
		TelegramID   int64      `json:"telegram_id"`
		FirstName    string     `json:"first_name"`
		Username     string     `json:"username,omitempty"`
		JoinedAt     time.Time  `json:"joined_at"`
		LastIssuedAt *time.Time `json:"last_issued_at,omitempty"`
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:           u.ID,
			TelegramID:   u.TelegramID,
			FirstName:    u.FirstName,
			Username:     u.Username,
			JoinedAt:     u.JoinedAt,
			LastIssuedAt: u.LastIssuedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) codesListHandler(w http.ResponseWriter, r *http.Request) {
	codes, err := s.promoUC.ListCodes(r.Context())
	if err != nil {
		http.Error(w, "Failed to list codes", http.StatusInternalServerError)
		return
	}

	type codeResponse struct {
		Code      string    `json:"code"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]codeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, codeResponse{Code: c.Code, CreatedAt: c.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) codesCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	code, err := s.promoUC.AddCode(r.Context(), req.Code)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Code must not be empty", http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, "Code already exists", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "Failed to add code", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"code":       code.Code,
		"created_at": code.CreatedAt,
	})
}

func (s *Server) codesDeleteHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	err := s.promoUC.RemoveCode(r.Context(), code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Code not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "Failed to remove code", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// healthzHandler pings every registered dependency; any failure flips the
// overall status to 503 but all results are still reported.
func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, results)
}
