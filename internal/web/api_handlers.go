package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/estate-bot/internal/auth"
	"github.com/evcraddock/estate-bot/internal/conversation"
	"github.com/evcraddock/estate-bot/internal/property"
	"github.com/evcraddock/estate-bot/internal/transcribe"
)

// maxVoiceBytes bounds uploaded voice messages.
const maxVoiceBytes = 20 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// ChatRequest is the body of POST /api/chat. Exactly one of Text and
// Action is set; Action carries button data from a previous reply.
type ChatRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text,omitempty"`
	Action string `json:"action,omitempty"`
}

// resolveUser picks the chat user a request acts for. Keys scoped to an
// owner always act for that owner; service keys must name the user.
func resolveUser(r *http.Request, requested int64) (int64, error) {
	key := auth.KeyFromContext(r.Context())
	if key == nil {
		return 0, errors.New("not authenticated")
	}
	if !key.IsService() {
		if requested != 0 && requested != key.OwnerID {
			return 0, fmt.Errorf("key is scoped to user %d", key.OwnerID)
		}
		return key.OwnerID, nil
	}
	if requested <= 0 {
		return 0, errors.New("user_id is required")
	}
	return requested, nil
}

// queryUser reads the optional user_id query parameter.
func queryUser(r *http.Request) (int64, error) {
	v := r.URL.Query().Get("user_id")
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user_id %q", v)
	}
	return id, nil
}

// handleAPIChat processes one text turn or button press.
func (s *Server) handleAPIChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(req.Text)
	action := strings.TrimSpace(req.Action)
	if (text == "") == (action == "") {
		apiError(w, "exactly one of text or action is required", http.StatusBadRequest)
		return
	}

	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		apiError(w, err.Error(), http.StatusForbidden)
		return
	}

	var reply conversation.Reply
	if action != "" {
		reply, err = s.chat.HandleAction(r.Context(), userID, action)
	} else {
		reply, err = s.chat.HandleText(r.Context(), userID, text)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "chat turn failed", "user", userID, "error", err)
		apiError(w, "chat turn failed", http.StatusServiceUnavailable)
		return
	}

	apiJSON(w, reply, http.StatusOK)
}

// handleAPIVoice accepts a voice message either as a multipart "audio"
// file or as the raw request body.
func (s *Server) handleAPIVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requested, err := queryUser(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := resolveUser(r, requested)
	if err != nil {
		apiError(w, err.Error(), http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVoiceBytes)
	audio, err := readAudio(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := s.chat.HandleVoice(r.Context(), userID, audio)
	if err != nil {
		slog.ErrorContext(r.Context(), "voice turn failed", "user", userID, "error", err)
		apiError(w, "voice turn failed", http.StatusServiceUnavailable)
		return
	}

	apiJSON(w, reply, http.StatusOK)
}

func readAudio(r *http.Request) (transcribe.Audio, error) {
	var audio transcribe.Audio

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("audio")
		if err != nil {
			return audio, fmt.Errorf("audio file is required")
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			return audio, fmt.Errorf("reading audio: %w", err)
		}
		audio.Data = data
		audio.Filename = header.Filename
		audio.MIMEType = header.Header.Get("Content-Type")
	} else {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return audio, fmt.Errorf("reading audio: %w", err)
		}
		audio.Data = data
		audio.MIMEType = r.Header.Get("Content-Type")
	}

	if len(audio.Data) == 0 {
		return audio, fmt.Errorf("audio is empty")
	}
	return audio, nil
}

// handleAPIProperties routes /api/properties requests.
func (s *Server) handleAPIProperties(w http.ResponseWriter, r *http.Request) {
	requested, err := queryUser(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	owner, err := resolveUser(r, requested)
	if err != nil {
		apiError(w, err.Error(), http.StatusForbidden)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/properties")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiListProperties(w, r, owner)
		return
	case "stats":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiPropertyStats(w, r, owner)
		return
	}

	// /api/properties/{id}: show or remove
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil || id <= 0 {
		apiError(w, "invalid property ID", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.apiGetProperty(w, r, id, owner)
	case http.MethodDelete:
		s.apiDeleteProperty(w, r, id, owner)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiListProperties returns the owner's properties in creation order.
func (s *Server) apiListProperties(w http.ResponseWriter, r *http.Request, owner int64) {
	props, err := s.propRepo.ListByOwner(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "listing properties failed", "owner", owner, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if props == nil {
		props = []*property.Property{}
	}

	apiJSON(w, props, http.StatusOK)
}

func (s *Server) apiPropertyStats(w http.ResponseWriter, r *http.Request, owner int64) {
	stats, err := s.propRepo.Stats(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "loading stats failed", "owner", owner, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, stats, http.StatusOK)
}

func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request, id, owner int64) {
	p, err := s.propRepo.Get(r.Context(), id, owner)
	if errors.Is(err, property.ErrNotFound) {
		apiError(w, "property not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "loading property failed", "owner", owner, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, p, http.StatusOK)
}

func (s *Server) apiDeleteProperty(w http.ResponseWriter, r *http.Request, id, owner int64) {
	err := s.propRepo.Delete(r.Context(), id, owner)
	if errors.Is(err, property.ErrNotFound) {
		apiError(w, "property not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "removing property failed", "owner", owner, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"status": "removed"}, http.StatusOK)
}
