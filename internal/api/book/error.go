package book

import (
	"BibliotecaAI/pkg/response"
	"net/http"
)

var (
	ErrNoFilesUploaded = response.NewError(http.StatusBadRequest, "No files uploaded")
	ErrDetectionFailed = response.NewError(http.StatusInternalServerError, "book detection failed")
	ErrBadRequest      = response.NewError(http.StatusBadRequest, "bad request")
)

// NewInvalidImageError names the upload that could not be decoded.
func NewInvalidImageError(filename string, err error) error {
	return response.Wrapf(http.StatusBadRequest, "Invalid uploaded image '%s': %w", filename, err)
}
