package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/medical-artists/pkg/medart"
	"github.com/tendant/medical-artists/pkg/medart/delivery"
)

// UploadURLRequest is the request body for issuing an upload grant
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
	Width       *int   `json:"width,omitempty"`
	Height      *int   `json:"height,omitempty"`
}

// ImageResponse is an image record with its preset delivery URLs
type ImageResponse struct {
	*medart.Image
	URLs map[string]string `json:"urls"`
}

// DeliveryURLResponse is the body returned by the delivery endpoint
type DeliveryURLResponse struct {
	URL string `json:"url"`
}

// ImageHandler handles upload grants and image lookups
type ImageHandler struct {
	service medart.Service
}

// NewImageHandler creates a new image handler
func NewImageHandler(service medart.Service) *ImageHandler {
	return &ImageHandler{service: service}
}

// Routes returns the authenticated image routes
func (h *ImageHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/upload-url", h.CreateUploadURL)
	r.Get("/{id}", h.GetImage)
	r.Post("/{id}/confirm", h.ConfirmUpload)

	return r
}

// CreateUploadURL issues a pre-signed upload URL for the caller
func (h *ImageHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.service.CreateUploadGrant(r.Context(), medart.CreateUploadGrantRequest{
		OwnerID:     ownerID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
		Width:       req.Width,
		Height:      req.Height,
	})
	if err != nil {
		switch medart.KindOf(err) {
		case medart.KindValidation, medart.KindTooLarge:
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Failed to generate upload URL",
				"request_id", middleware.GetReqID(r.Context()),
				"owner_id", ownerID,
				"kind", medart.KindOf(err).String(),
				"error", err)
			writeError(w, r, http.StatusInternalServerError, msgUploadFailed)
		}
		return
	}

	render.JSON(w, r, grant)
}

// GetImage returns the caller's image record
func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	image, err := h.service.GetImage(r.Context(), ownerID, id)
	if err != nil {
		status, msg := statusFor(err, msgLookupFailed)
		if status == http.StatusInternalServerError {
			slog.Error("Failed to get image", "image_id", id, "error", err)
		}
		writeError(w, r, status, msg)
		return
	}

	render.JSON(w, r, h.imageResponse(image))
}

// ConfirmUpload checks storage for the uploaded object and updates the record
func (h *ImageHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	image, err := h.service.ConfirmUpload(r.Context(), ownerID, id)
	if err != nil {
		status, msg := statusFor(err, msgConfirmFailed)
		if status == http.StatusInternalServerError {
			slog.Error("Failed to confirm upload", "image_id", id, "kind", medart.KindOf(err).String(), "error", err)
		}
		writeError(w, r, status, msg)
		return
	}

	render.JSON(w, r, h.imageResponse(image))
}

func (h *ImageHandler) ownerAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	ownerID, err := OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid image id")
		return "", uuid.Nil, false
	}
	return ownerID, id, true
}

func (h *ImageHandler) imageResponse(image *medart.Image) ImageResponse {
	urls := make(map[string]string)
	for _, name := range delivery.PresetNames() {
		spec, _ := delivery.PresetSpec(name)
		urls[name] = h.service.DeliveryURL(image.Key, spec)
	}
	return ImageResponse{Image: image, URLs: urls}
}

// DeliveryHandler serves delivery URLs to clients that cannot hold proxy secrets
type DeliveryHandler struct {
	service medart.Service
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(service medart.Service) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// DeliveryURL returns {url} for ?key=&w=&h=&q=&f=&preset=. Unparseable
// numbers are ignored. An absent key is an error; an empty one yields the
// placeholder.
func (h *DeliveryHandler) DeliveryURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("key") {
		writeError(w, r, http.StatusBadRequest, "key is required")
		return
	}

	var spec medart.TransformSpec
	if preset := q.Get("preset"); preset != "" {
		spec, _ = delivery.PresetSpec(preset)
	}
	if v, ok := queryInt(q.Get("w")); ok {
		spec.Width = v
	}
	if v, ok := queryInt(q.Get("h")); ok {
		spec.Height = v
	}
	if v, ok := queryInt(q.Get("q")); ok {
		spec.Quality = v
	}
	if f := q.Get("f"); f != "" {
		spec.Format = f
	}

	render.JSON(w, r, DeliveryURLResponse{URL: h.service.DeliveryURL(q.Get("key"), spec)})
}

func queryInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// NewRouter assembles the /api/v1 routes. Image routes require a valid
// bearer token; the delivery endpoint is public.
func NewRouter(service medart.Service, auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogging(slog.Default()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(RequestSizeLimit(maxRequestBody))

	images := NewImageHandler(service)
	deliveryHandler := NewDeliveryHandler(service)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Mount("/images", images.Routes())
	})
	r.Get("/imgproxy", deliveryHandler.DeliveryURL)

	return r
}
