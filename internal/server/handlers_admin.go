package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/store"
)

// adminPromptSummary is the list view shown by the admin UI
type adminPromptSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Category     string `json:"category"`
	Type         string `json:"type"`
	Enabled      bool   `json:"enabled"`
	IsDefault    bool   `json:"is_default"`
	SortOrder    int    `json:"sort_order"`
	SystemPrompt string `json:"system_prompt"`
	Template     string `json:"template"`
	UserPrompt   string `json:"user_prompt"`
}

// adminPrompt is the full document view, keyed by its id
type adminPrompt struct {
	ID string `json:"id"`
	prompts.Prompt
}

func (s *Server) handleAdminListPrompts(w http.ResponseWriter, r *http.Request) {
	all, err := s.prompts.All(r.Context())
	if err != nil {
		log.Printf("[admin] prompt listing failed: %v", err)
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]adminPromptSummary, 0, len(all))
	for _, p := range all {
		items = append(items, adminPromptSummary{
			ID:           p.Slug,
			Name:         p.Name,
			Slug:         p.Slug,
			Category:     p.Category,
			Type:         p.Type,
			Enabled:      p.Enabled,
			IsDefault:    p.IsDefault,
			SortOrder:    p.SortOrder,
			SystemPrompt: p.SystemPrompt,
			Template:     p.Template,
			UserPrompt:   p.UserPrompt,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"prompts": items,
	})
}

func (s *Server) handleAdminGetPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.prompts.Get(r.Context(), r.PathValue("prompt_id"))
	if errors.Is(err, prompts.ErrNotFound) {
		s.adminError(w, http.StatusNotFound, "Prompt not found")
		return
	}
	if err != nil {
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"prompt":  adminPrompt{ID: p.Slug, Prompt: *p},
	})
}

type promptCreateRequest struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Type         string `json:"type"`
	Enabled      *bool  `json:"enabled"`
	IsDefault    bool   `json:"is_default"`
	SortOrder    *int   `json:"sort_order"`
	SystemPrompt string `json:"system_prompt"`
	Template     string `json:"template"`
	UserPrompt   string `json:"user_prompt"`
}

func (s *Server) handleAdminCreatePrompt(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.adminError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		s.adminError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	for _, field := range []string{"name", "slug", "category", "type", "system_prompt", "template", "user_prompt"} {
		if _, ok := raw[field]; !ok {
			s.adminError(w, http.StatusBadRequest, "Missing required field: "+field)
			return
		}
	}
	var req promptCreateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.adminError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	sortOrder := 100
	if req.SortOrder != nil {
		sortOrder = *req.SortOrder
	}
	p := &prompts.Prompt{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		Category:     req.Category,
		Type:         req.Type,
		SystemPrompt: req.SystemPrompt,
		Template:     req.Template,
		UserPrompt:   req.UserPrompt,
		Enabled:      enabled,
		IsDefault:    req.IsDefault,
		SortOrder:    sortOrder,
		CreatedBy:    "admin_ui",
		UpdatedBy:    "admin_ui",
	}

	if err := s.prompts.Create(r.Context(), p); err != nil {
		if errors.Is(err, prompts.ErrExists) {
			s.adminError(w, http.StatusBadRequest, "Slug already exists")
			return
		}
		log.Printf("[admin] prompt creation failed: %v", err)
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"success":   true,
		"prompt_id": p.Slug,
	})
}

type promptUpdateRequest struct {
	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Type         *string `json:"type"`
	Enabled      *bool   `json:"enabled"`
	IsDefault    *bool   `json:"is_default"`
	SortOrder    *int    `json:"sort_order"`
	SystemPrompt *string `json:"system_prompt"`
	Template     *string `json:"template"`
	UserPrompt   *string `json:"user_prompt"`
}

func (s *Server) handleAdminUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	promptID := r.PathValue("prompt_id")
	p, err := s.prompts.Get(r.Context(), promptID)
	if errors.Is(err, prompts.ErrNotFound) {
		s.adminError(w, http.StatusNotFound, "Prompt not found")
		return
	}
	if err != nil {
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req promptUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.adminError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	// The slug doubles as the document id, so it cannot drift on update.
	if req.Slug != nil && *req.Slug != p.Slug {
		log.Printf("[admin] ignoring slug change %s -> %s on update", p.Slug, *req.Slug)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Type != nil {
		p.Type = *req.Type
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}
	if req.IsDefault != nil {
		p.IsDefault = *req.IsDefault
	}
	if req.SortOrder != nil {
		p.SortOrder = *req.SortOrder
	}
	if req.SystemPrompt != nil {
		p.SystemPrompt = *req.SystemPrompt
	}
	if req.Template != nil {
		p.Template = *req.Template
	}
	if req.UserPrompt != nil {
		p.UserPrompt = *req.UserPrompt
	}
	p.UpdatedBy = "admin_ui"

	if err := s.prompts.Update(r.Context(), p); err != nil {
		log.Printf("[admin] prompt update failed: %v", err)
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAdminDeletePrompt(w http.ResponseWriter, r *http.Request) {
	promptID := r.PathValue("prompt_id")
	p, err := s.prompts.Get(r.Context(), promptID)
	if errors.Is(err, prompts.ErrNotFound) {
		s.adminError(w, http.StatusNotFound, "Prompt not found")
		return
	}
	if err != nil {
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p.IsDefault {
		s.adminError(w, http.StatusBadRequest, "Cannot delete default prompt")
		return
	}

	if err := s.prompts.Delete(r.Context(), p.Slug); err != nil {
		log.Printf("[admin] prompt deletion failed: %v", err)
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAdminSetDefaultPrompt(w http.ResponseWriter, r *http.Request) {
	err := s.prompts.SetDefault(r.Context(), r.PathValue("prompt_id"), "admin_ui")
	if errors.Is(err, prompts.ErrNotFound) {
		s.adminError(w, http.StatusNotFound, "Prompt not found")
		return
	}
	if err != nil {
		log.Printf("[admin] set default failed: %v", err)
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

// handleGetWebhookConfig returns the stored webhook pipeline configuration,
// falling back to the defaults when none has been saved yet
func (s *Server) handleGetWebhookConfig(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusInternalServerError, "Firestore is not configured on the server")
		return
	}

	config, err := s.store.GetWebhookConfig(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		s.jsonResponse(w, http.StatusOK, store.DefaultWebhookConfig())
		return
	}
	if err != nil {
		log.Printf("[admin] webhook config fetch failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, config)
}

func (s *Server) handleUpdateWebhookConfig(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusInternalServerError, "Firestore is not configured on the server")
		return
	}

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	applied, err := s.store.UpdateWebhookConfig(r.Context(), updates)
	if err != nil {
		log.Printf("[admin] webhook config update failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("[admin] webhook config updated: %v", applied)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Configuration updated",
	})
}

// handleSummaryRuns lists recent webhook pipeline runs for the admin UI
func (s *Server) handleSummaryRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.adminError(w, http.StatusInternalServerError, "Firestore is not configured on the server")
		return
	}

	limit := parseQueryInt(r, "limit", 50, 0)
	candidateFilter := r.URL.Query().Get("candidate")
	jobFilter := r.URL.Query().Get("job")

	runs, err := s.store.ListRuns(r.Context(), limit, candidateFilter, jobFilter)
	if err != nil {
		log.Printf("[admin] run listing failed: %v", err)
		s.adminError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"runs":    runs,
	})
}

func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}
