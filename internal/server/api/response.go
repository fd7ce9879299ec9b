package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sheetbase/drive-v1/internal/server/service"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Error   bool   `json:"error"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type routingError struct {
	err     error
	code    string
	status  int
	message string
}

// routingErrors is matched in order with errors.Is.
var routingErrors = []routingError{
	{service.ErrMissingInput, "file/missing", http.StatusBadRequest, "Missing inputs."},
	{service.ErrInvalidUploadResource, "file/invalid-upload", http.StatusBadRequest, "Upload must contain a name and a base64 value."},
	{service.ErrMalformedPayload, "file/malformed-payload", http.StatusBadRequest, "Invalid base64 data URI."},
	{service.ErrInvalidFileType, "file/invalid-type", http.StatusBadRequest, "File type is not allowed."},
	{service.ErrInvalidFileSize, "file/invalid-size", http.StatusBadRequest, "File is too big."},
	{service.ErrUnknownRenamePolicy, "file/invalid-rename", http.StatusBadRequest, "Unknown rename policy."},
	{service.ErrUnknownPreset, "file/unknown-preset", http.StatusBadRequest, "Unknown sharing preset."},
	{service.ErrInvalidSharing, "file/invalid-sharing", http.StatusBadRequest, "Invalid sharing access or permission."},
	{service.ErrNotTextFile, "file/not-text", http.StatusBadRequest, "Content can only be replaced on text files."},
	{errTooManyFiles, "file/too-many", http.StatusBadRequest, "Too many files in one request."},
	{errInvalidBody, "file/invalid-body", http.StatusBadRequest, "Invalid request body."},
	{service.ErrUploadFolderUnavailable, "file/not-supported", http.StatusBadRequest, "Not supported."},
	{service.ErrFileNotFound, "file/not-found", http.StatusNotFound, "File not found (no file or private)."},
	{service.ErrNoEditPermission, "file/no-edit", http.StatusForbidden, "No permission to edit."},
}

var unknownError = routingError{code: "file/unknown", status: http.StatusInternalServerError, message: "Unknown errors."}

func lookupError(err error) routingError {
	for _, re := range routingErrors {
		if errors.Is(err, re.err) {
			return re
		}
	}
	return unknownError
}

func respondSuccess(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, successEnvelope{Success: true, Status: http.StatusOK, Data: data})
}

// respondError translates service-layer errors into error envelopes.
func respondError(c echo.Context, err error) error {
	re := lookupError(err)
	if re.status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}
	return c.JSON(re.status, errorEnvelope{
		Error:   true,
		Status:  re.status,
		Code:    re.code,
		Message: re.message,
	})
}
