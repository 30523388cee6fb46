// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pindrop/pindrop/internal/app"
	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/metrics"
	"github.com/pindrop/pindrop/internal/models"
	"github.com/pindrop/pindrop/internal/session"
	"github.com/pindrop/pindrop/internal/upload"
	"github.com/pindrop/pindrop/internal/validation"
	"github.com/pindrop/pindrop/internal/ws"
)

// Health reports liveness plus the state of the backend circuit breaker.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"backend_breaker":   s.backend.BreakerState(),
		"photos":            s.store.Len(),
		"sessions":          s.registry.Len(),
		"websocket_clients": s.hub.ClientCount(),
	})
}

// Session establishes login state. A logged-in (or dev-mode) session triggers
// the initial photo load if none has succeeded yet; a load failure is logged
// and the stale/empty view stands.
func (s *Server) Session(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessionApp(w, r); err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	returnURL := r.URL.Query().Get("return_url")
	if returnURL == "" {
		returnURL = "/"
	}

	info := s.sessions.Establish(r.Context(), returnURL)
	if info.LoggedIn && !s.store.Loaded() {
		if err := s.store.Load(r.Context()); err != nil {
			logging.Error().Err(err).Msg("initial photo load failed")
		}
	}

	data := map[string]interface{}{"session": info}
	if !info.LoggedIn {
		data["notice"] = session.LoggedOutNotice
	}
	respondSuccess(w, r, http.StatusOK, data)
}

// State returns the current render snapshot without changing anything.
func (s *Server) State(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, a.State())
}

type viewRequest struct {
	Surface string `json:"surface" validate:"required,oneof=grid map"`
}

// SetView switches between the grid and map surfaces.
func (s *Server) SetView(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	var req viewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	state, err := a.SetView(models.Surface(req.Surface))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeUnknownSurface, err.Error(), nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, state)
}

// Reset restores the default interface: grid surface, folder list, empty
// query.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, a.Reset())
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search applies the filter query to both surfaces.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, a.Search(req.Query))
}

type folderRequest struct {
	Name string `json:"name" validate:"required"`
}

// OpenFolder drills into one folder group.
func (s *Server) OpenFolder(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	respondSuccess(w, r, http.StatusOK, a.OpenFolder(req.Name))
}

type rotateRequest struct {
	Key       string `json:"key" validate:"required"`
	Direction int    `json:"direction" validate:"required,oneof=-1 1"`
}

// Rotate advances a pin's carousel pointer.
func (s *Server) Rotate(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	var req rotateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	state, ok := a.RotateCarousel(req.Key, req.Direction)
	if !ok {
		respondError(w, r, http.StatusNotFound, codeUnknownCluster, "no pin exists at that key", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, state)
}

type jumpRequest struct {
	Folder  string `json:"folder" validate:"required"`
	PhotoID string `json:"photo_id" validate:"required"`
}

// Jump is the popup-image deep link into the grid surface.
func (s *Server) Jump(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	var req jumpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	respondSuccess(w, r, http.StatusOK, a.JumpToImage(req.Folder, req.PhotoID))
}

// uploadForm validates the optional coordinates from the multipart form.
type uploadForm struct {
	Lat *float64 `validate:"omitempty,latitude"`
	Lon *float64 `validate:"omitempty,longitude"`
}

// Upload accepts the multipart photo submission. The device fix, when the
// shell acquired one, arrives as lat/lon form fields.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	start := time.Now()
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "malformed multipart form", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, upload.ErrNoFile.Error(), nil)
		return
	}
	defer file.Close()

	form, ferr := parseUploadForm(r)
	if ferr != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "coordinates must be numbers", ferr)
		return
	}
	if verr := validation.ValidateStruct(form); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	result, state, err := a.Upload(r.Context(), app.UploadParams{
		FileName: header.Filename,
		File:     file,
		Caption:  r.FormValue("caption"),
		Folder:   r.FormValue("folder"),
		Lat:      form.Lat,
		Lon:      form.Lon,
	})
	switch {
	case errors.Is(err, upload.ErrUploadInFlight):
		metrics.RecordUpload("rejected_in_flight", time.Since(start))
		respondError(w, r, http.StatusConflict, codeUploadInFlight, err.Error(), nil)
		return
	case errors.Is(err, upload.ErrNoFile):
		metrics.RecordUpload("failure", time.Since(start))
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, err.Error(), nil)
		return
	case err != nil:
		metrics.RecordUpload("failure", time.Since(start))
		respondError(w, r, http.StatusBadGateway, codeUploadFailed, err.Error(), err)
		return
	}

	metrics.RecordUpload("success", time.Since(start))
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"result": result,
		"state":  state,
	})
}

// parseUploadForm reads the optional coordinate fields.
func parseUploadForm(r *http.Request) (*uploadForm, error) {
	form := &uploadForm{}
	if v := r.FormValue("lat"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		form.Lat = &lat
	}
	if v := r.FormValue("lon"); v != "" {
		lon, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		form.Lon = &lon
	}
	return form, nil
}

type deleteRequest struct {
	ID string `json:"id" validate:"required"`
}

// Delete removes a photo. The collection reloads regardless of the delete
// outcome; on failure the refreshed snapshot rides along in the error
// envelope so the shell still redraws.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "malformed request body", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	state, deleteErr := a.Delete(r.Context(), req.ID)
	metrics.RecordDelete(deleteErr)
	if deleteErr != nil {
		writeJSON(w, http.StatusBadGateway, &models.APIResponse{
			Status:   "error",
			Data:     state,
			Error:    &models.APIError{Code: codeDeleteFailed, Message: deleteErr.Error()},
			Metadata: metadataFor(r),
		})
		return
	}
	respondSuccess(w, r, http.StatusOK, state)
}

// Refresh reloads the photo collection on demand.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessionApp(w, r)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSessionError, "could not establish session", err)
		return
	}

	state, err := a.Refresh(r.Context())
	if err != nil {
		// Stale view policy: the previous collection stands, the snapshot of
		// it still goes back.
		logging.Error().Err(err).Msg("manual refresh failed")
	}
	respondSuccess(w, r, http.StatusOK, state)
}

// WebSocket upgrades the connection and attaches it to the refresh-hint hub.
func (s *Server) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its error response.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(s.hub, conn)
	s.hub.Register <- client
	client.Start()
}
