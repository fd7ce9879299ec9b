package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sheetbase/drive-v1/internal/server/config"
	"github.com/sheetbase/drive-v1/internal/server/service"
)

var (
	errTooManyFiles = errors.New("too many files in one request")
	errInvalidBody  = errors.New("request body could not be read")
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains the HTTP handlers for the file API.
type Handler struct {
	svc    *service.FileService
	health HealthChecker
	cfg    *config.Config
}

// NewHandler creates a new handler with the given service dependency.
func NewHandler(svc *service.FileService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{svc: svc, health: health, cfg: cfg}
}

type uploadItem struct {
	File   *service.UploadFile `json:"file"`
	Folder string              `json:"folder"`
	Rename string              `json:"rename"`
	Share  *service.Sharing    `json:"share"`
}

type uploadRequest struct {
	uploadItem
	Files []uploadItem `json:"files"`
}

type updateRequest struct {
	ID   string             `json:"id"`
	Data service.FileUpdate `json:"data"`
}

type removeRequest struct {
	ID string `json:"id" query:"id"`
}

// HandleGet handles GET /file?id=.
// Returns metadata of a file the caller can view.
func (h *Handler) HandleGet(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		id = c.QueryParam("fileId")
	}

	info, err := h.svc.GetFileInfoByID(c.Request().Context(), identityFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondSuccess(c, info)
}

// HandleUpload handles PUT /file.
// Accepts a single {file, folder, rename, share} resource or a batch under "files".
func (h *Handler) HandleUpload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errInvalidBody)
	}
	ctx := c.Request().Context()
	id := identityFrom(c)

	if len(req.Files) > 0 {
		if h.cfg.MaxBatchFiles > 0 && len(req.Files) > h.cfg.MaxBatchFiles {
			return respondError(c, errTooManyFiles)
		}

		resources := make([]service.UploadResource, 0, len(req.Files))
		for _, item := range req.Files {
			res, err := item.resource()
			if err != nil {
				return respondError(c, err)
			}
			resources = append(resources, res)
		}

		infos, err := h.svc.UploadFiles(ctx, id, resources)
		if err != nil {
			return respondError(c, err)
		}
		return respondSuccess(c, infos)
	}

	res, err := req.uploadItem.resource()
	if err != nil {
		return respondError(c, err)
	}
	info, err := h.svc.UploadFile(ctx, id, res)
	if err != nil {
		return respondError(c, err)
	}
	return respondSuccess(c, info)
}

// HandleUpdate handles POST /file.
func (h *Handler) HandleUpdate(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errInvalidBody)
	}

	if _, err := h.svc.UpdateFile(c.Request().Context(), identityFrom(c), req.ID, req.Data); err != nil {
		return respondError(c, err)
	}
	return respondSuccess(c, echo.Map{"done": true})
}

// HandleRemove handles DELETE /file. The id may come from the query or the body.
func (h *Handler) HandleRemove(c echo.Context) error {
	var req removeRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errInvalidBody)
	}

	if err := h.svc.RemoveFile(c.Request().Context(), identityFrom(c), req.ID); err != nil {
		return respondError(c, err)
	}
	return respondSuccess(c, echo.Map{"done": true})
}

// HandleDownload handles GET /d/:id.
// Serves the body inline, or as an attachment with ?download=1. The content
// checksum is the ETag; a matching If-None-Match gets 304.
func (h *Handler) HandleDownload(c echo.Context) error {
	d, err := h.svc.Download(c.Request().Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	etag := `"` + d.Checksum + `"`
	c.Response().Header().Set("ETag", etag)
	if etagMatches(c.Request().Header.Get("If-None-Match"), etag) {
		return c.NoContent(http.StatusNotModified)
	}

	disposition := "inline"
	if dl := c.QueryParam("download"); dl != "" && dl != "0" && dl != "false" {
		disposition = "attachment"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType(disposition, map[string]string{"filename": d.Name}))

	return c.Blob(http.StatusOK, d.MimeType, d.Content)
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including store connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	storeStatus := "connected"

	if err := h.health.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		storeStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": status,
		"store":  storeStatus,
	})
}

func (it uploadItem) resource() (service.UploadResource, error) {
	policy, err := service.ParseRenamePolicy(it.Rename)
	if err != nil {
		return service.UploadResource{}, err
	}
	return service.UploadResource{
		File:   it.File,
		Folder: it.Folder,
		Rename: policy,
		Share:  it.Share,
	}, nil
}

// etagMatches reports whether an If-None-Match header value names etag.
// Weak validators compare equal to their strong form.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
