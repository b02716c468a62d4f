package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/medical-artists/pkg/medart"
)

// Opaque messages returned for server-side failures
const (
	msgUploadFailed  = "failed to generate upload URL"
	msgConfirmFailed = "failed to confirm upload"
	msgLookupFailed  = "failed to load image"
	msgBodyTooLarge  = "request body too large"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

// statusFor maps an error kind to an HTTP status and a client-safe message.
// Anything the client cannot fix is reported with fallback only.
func statusFor(err error, fallback string) (int, string) {
	switch medart.KindOf(err) {
	case medart.KindValidation, medart.KindTooLarge:
		return http.StatusBadRequest, err.Error()
	case medart.KindNotFound:
		return http.StatusNotFound, medart.ErrImageNotFound.Error()
	case medart.KindConflict:
		return http.StatusConflict, medart.ErrObjectNotUploaded.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}
