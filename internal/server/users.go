package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"newswire/internal/core"
	"newswire/internal/persistence"
)

var interactionKinds = map[string]bool{"like": true, "save": true, "view": true}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "id")
	if _, err := s.store.ReadCluster(r.Context(), storyID, ""); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", "no such story")
			return
		}
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}

	var body struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !interactionKinds[body.Kind] {
		writeError(w, http.StatusBadRequest, "invalid request", "kind must be like, save or view")
		return
	}

	interaction := &core.UserInteraction{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		ClusterID: storyID,
		Kind:      body.Kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.RecordInteraction(r.Context(), interaction); err != nil {
		writeError(w, http.StatusInternalServerError, "write failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": interaction.ID})
}

// profileFor returns the stored profile, or a fresh one for first contact.
func (s *Server) profileFor(r *http.Request) (*core.UserProfile, error) {
	profile, err := s.store.GetUserProfile(r.Context(), userID(r))
	if errors.Is(err, persistence.ErrNotFound) {
		return &core.UserProfile{
			ID:        userID(r),
			CreatedAt: time.Now().UTC(),
		}, nil
	}
	return profile, err
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profileFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed body")
		return
	}
	s.updatePreferences(w, r, body.Categories)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", "malformed body")
		return
	}
	s.updatePreferences(w, r, body.Categories)
}

func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request, categories []string) {
	for _, cat := range categories {
		if !core.ValidCategory(cat) {
			writeError(w, http.StatusBadRequest, "invalid request", "unknown category "+cat)
			return
		}
	}
	profile, err := s.profileFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}
	profile.Categories = categories
	if err := s.store.UpsertUserProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "write failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceToken string `json:"device_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceToken == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "device_token is required")
		return
	}

	profile, err := s.profileFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}
	for _, token := range profile.DeviceTokens {
		if token == body.DeviceToken {
			writeJSON(w, http.StatusOK, profile)
			return
		}
	}
	profile.DeviceTokens = append(profile.DeviceTokens, body.DeviceToken)
	if err := s.store.UpsertUserProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "write failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleUnregisterDevice(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	profile, err := s.profileFor(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}
	kept := profile.DeviceTokens[:0]
	for _, t := range profile.DeviceTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	profile.DeviceTokens = kept
	if err := s.store.UpsertUserProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "write failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
