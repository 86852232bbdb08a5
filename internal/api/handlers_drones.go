// Skywatch - Drone Tracking and Airspace Monitoring
// Copyright 2026 Skywatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skywatch-io/skywatch

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/skywatch-io/skywatch/internal/logging"
	"github.com/skywatch-io/skywatch/internal/models"
	"github.com/skywatch-io/skywatch/internal/tracker"
)

// allowed image extensions for detection uploads
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// CreateHostileDrone handles POST /drones/hostile. Reports are upserted
// by drone id: a repeat sighting of a known drone updates its position
// instead of creating a second record.
func (h *Handler) CreateHostileDrone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req HostileDroneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid request body")
		return
	}

	h.recordHostile(rw, r, &req, req.ImagePath)
}

// UploadHostileDrone handles POST /drones/hostile/upload: a multipart
// detection report with an attached image. The image is stored under the
// upload directory and the report is upserted with its public path.
func (h *Handler) UploadHostileDrone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	maxSize := h.config.Upload.MaxSizeBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		rw.BadRequest("Invalid multipart form or file too large")
		return
	}

	req, err := parseHostileForm(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	// Validate before the image hits disk, so a rejected report leaves
	// no orphaned file behind.
	if apiErr := validateRequest(req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	imagePath, err := h.saveDetectionImage(r)
	if err != nil {
		if errors.Is(err, errNoImage) {
			rw.BadRequest("Image file is required")
		} else if errors.Is(err, errBadImageType) {
			rw.BadRequest("Unsupported image type")
		} else {
			logging.Error().Err(err).Msg("Failed to store detection image")
			rw.InternalError("Failed to store image")
		}
		return
	}

	h.recordHostile(rw, r, req, imagePath)
}

// recordHostile validates and records a hostile report, writing the
// upserted position as the response.
func (h *Handler) recordHostile(rw *ResponseWriter, r *http.Request, req *HostileDroneRequest, imagePath string) {
	if apiErr := validateRequest(req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	report := &tracker.Report{
		DroneID:    req.DroneID,
		Category:   models.CategoryHostile,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Altitude:   req.Altitude,
		Confidence: req.Confidence,
		Width:      req.Width,
		Height:     req.Height,
		Weather:    req.Weather,
		ImagePath:  imagePath,
	}

	rec, created, err := h.tracker.Record(r.Context(), report)
	if err != nil {
		if errors.Is(err, tracker.ErrInvalidReport) {
			rw.BadRequest(err.Error())
			return
		}
		rw.DatabaseError(err)
		return
	}

	if created {
		rw.Created(rec)
		return
	}
	rw.Success(rec)
}

// UpdateHostileDrone handles PUT /drones/hostile/{id}: update an existing
// record by row id, keeping its drone identity.
func (h *Handler) UpdateHostileDrone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := parseID(r)
	if err != nil {
		rw.BadRequest("Invalid id")
		return
	}

	var req HostileDroneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid request body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	report := &tracker.Report{
		DroneID:    req.DroneID,
		Category:   models.CategoryHostile,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Altitude:   req.Altitude,
		Confidence: req.Confidence,
		Width:      req.Width,
		Height:     req.Height,
		Weather:    req.Weather,
		ImagePath:  req.ImagePath,
	}

	rec, err := h.tracker.UpdateByID(r.Context(), id, report)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			rw.NotFound("Drone record not found")
			return
		}
		if errors.Is(err, tracker.ErrInvalidReport) {
			rw.BadRequest(err.Error())
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(rec)
}

// DeleteHostileDrone handles DELETE /drones/hostile/{id}.
func (h *Handler) DeleteHostileDrone(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := parseID(r)
	if err != nil {
		rw.BadRequest("Invalid id")
		return
	}

	if err := h.tracker.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			rw.NotFound("Drone record not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}

// RecentPositions handles GET /drones/{category}/recent?limit=.
func (h *Handler) RecentPositions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	limit := h.config.API.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			rw.BadRequest("limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > h.config.API.MaxRecentLimit {
		limit = h.config.API.MaxRecentLimit
	}

	positions, err := h.db.RecentPositions(r.Context(), category, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessList(positions, len(positions))
}

// LastPositions handles GET /drones/{category}/last: the last known
// position of every tracked drone in the category, served from the
// in-memory cache.
func (h *Handler) LastPositions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	positions := h.tracker.LastKnown(category)
	rw.SuccessList(positions, len(positions))
}

var (
	errNoImage      = errors.New("no image file in form")
	errBadImageType = errors.New("unsupported image type")
)

// saveDetectionImage stores the uploaded image under the configured
// upload directory with a random filename and returns its public path.
func (h *Handler) saveDetectionImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return "", errNoImage
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close uploaded file")
		}
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", errBadImageType
	}

	if err := os.MkdirAll(h.config.Upload.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(h.config.Upload.Dir, name)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return "/uploads/" + name, nil
}

// parseHostileForm extracts detection fields from a multipart form.
func parseHostileForm(r *http.Request) (*HostileDroneRequest, error) {
	req := &HostileDroneRequest{
		DroneID: r.FormValue("drone_id"),
		Weather: r.FormValue("weather"),
	}

	var err error
	if req.Latitude, err = parseFormFloat(r, "latitude"); err != nil {
		return nil, err
	}
	if req.Longitude, err = parseFormFloat(r, "longitude"); err != nil {
		return nil, err
	}
	if req.Altitude, err = parseFormFloat(r, "altitude"); err != nil {
		return nil, err
	}

	for _, field := range []struct {
		name string
		dst  **float64
	}{
		{"confidence", &req.Confidence},
		{"width", &req.Width},
		{"height", &req.Height},
	} {
		raw := r.FormValue(field.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", field.name)
		}
		*field.dst = &v
	}

	return req, nil
}

func parseFormFloat(r *http.Request, name string) (float64, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
