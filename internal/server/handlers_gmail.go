package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/outstaffer/candidate-summary-api/internal/gmail"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// handleCreateGmailDraft creates a Gmail draft of the summary email in the
// requesting user's mailbox, with the summary attached as a PDF when its
// HTML is supplied
func (s *Server) handleCreateGmailDraft(w http.ResponseWriter, r *http.Request) {
	if s.gmail == nil {
		s.errorResponse(w, http.StatusInternalServerError, "Gmail integration is not configured on the server")
		return
	}

	var req types.GmailDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.AccessToken == "" || req.Subject == "" || req.HTMLBody == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing access_token, subject, or html_body")
		return
	}

	result, err := s.gmail.CreateDraft(r.Context(), gmail.DraftParams{
		AccessToken:   req.AccessToken,
		RefreshToken:  req.RefreshToken,
		Subject:       req.Subject,
		HTMLBody:      req.HTMLBody,
		ToEmail:       req.ToEmail,
		SummaryHTML:   req.SummaryHTML,
		CandidateName: req.CandidateName,
		JobName:       req.JobName,
	})
	if err != nil {
		log.Printf("[gmail] draft creation failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	var newToken any
	if result.NewAccessToken != "" {
		newToken = result.NewAccessToken
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":          true,
		"draft_id":         result.DraftID,
		"draft_url":        result.DraftURL,
		"pdf_generated":    result.PDFGenerated,
		"new_access_token": newToken,
	})
}
