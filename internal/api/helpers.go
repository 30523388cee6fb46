// Pindrop - Photo Diary with Map-Based Browsing
// Copyright 2026 Pindrop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pindrop/pindrop

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/pindrop/pindrop/internal/logging"
	"github.com/pindrop/pindrop/internal/middleware"
	"github.com/pindrop/pindrop/internal/models"
	"github.com/pindrop/pindrop/internal/validation"
)

// Error codes returned in the envelope.
const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeValidationError = "VALIDATION_ERROR"
	codeUploadInFlight  = "UPLOAD_IN_FLIGHT"
	codeUploadFailed    = "UPLOAD_FAILED"
	codeDeleteFailed    = "DELETE_FAILED"
	codeUnknownSurface  = "UNKNOWN_SURFACE"
	codeUnknownCluster  = "UNKNOWN_CLUSTER"
	codeSessionError    = "SESSION_ERROR"
)

// respondSuccess wraps data in the success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadataFor(r),
	})
}

// respondError sends an error envelope. err is logged, message is what the
// user sees.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Err(err).Str("code", code).Str("path", r.URL.Path).Msg("api error")
	}
	writeJSON(w, status, &models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: metadataFor(r),
	})
}

// respondValidationError maps a failed request validation to the envelope.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestError) {
	writeJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    codeValidationError,
			Message: verr.Error(),
			Details: verr.Details(),
		},
		Metadata: metadataFor(r),
	})
}

func metadataFor(r *http.Request) models.Metadata {
	return models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(r.Context()),
	}
}

func writeJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// decodeJSON decodes a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
