package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/univault/internal/config"
	"github.com/geocoder89/univault/internal/domain/resource"
	"github.com/geocoder89/univault/internal/domain/user"
	"github.com/geocoder89/univault/internal/http/middlewares"
	"github.com/geocoder89/univault/internal/storage"
	"github.com/gin-gonic/gin"
)

type ResourceStore interface {
	Create(ctx context.Context, res resource.Resource) (resource.Resource, error)
	List(ctx context.Context, filter resource.ListFilter) ([]resource.View, error)
	GetByID(ctx context.Context, id string) (resource.View, error)
	Delete(ctx context.Context, id string) error
}

type ResourcesHandler struct {
	repo  ResourceStore
	blobs storage.BlobStore
}

func NewResourcesHandler(repo ResourceStore, blobs storage.BlobStore) *ResourcesHandler {
	return &ResourcesHandler{repo: repo, blobs: blobs}
}

func (h *ResourcesHandler) Upload(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "missing_token", "Missing identity context")
		return
	}

	file, err := ctx.FormFile("file")

	if err != nil || file == nil {
		RespondBadRequest(ctx, "missing_file", "No file uploaded", nil)
		return
	}

	var req resource.UploadRequest

	if !BindForm(ctx, &req) {
		return
	}

	// the blob is written first; a resource row must never exist
	// without its file
	fileRef, err := h.blobs.Save(file)

	if err != nil {
		RespondInternal(ctx, "Could not store file")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	res, err := h.repo.Create(cctx, resource.NewFromUploadRequest(req, fileRef, identity.UserID))

	if err != nil {
		// best effort: do not leave an orphaned blob behind
		_ = h.blobs.Remove(fileRef)
		RespondInternal(ctx, "Could not upload resource")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":    "Resource uploaded successfully",
		"resourceId": res.ID,
	})
}

func (h *ResourcesHandler) List(ctx *gin.Context) {
	filter, ok := parseListFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	views, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list resources")
		return
	}

	ctx.JSON(http.StatusOK, views)
}

func (h *ResourcesHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	v, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			RespondNotFound(ctx, "Resource not found")
			return
		}
		RespondInternal(ctx, "Could not fetch resource")
		return
	}

	ctx.JSON(http.StatusOK, v)
}

func (h *ResourcesHandler) Delete(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "missing_token", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	res, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			RespondNotFound(ctx, "Resource not found")
			return
		}
		RespondInternal(ctx, "Could not delete resource")
		return
	}

	// admin or owner only; the uploader field is re-read above at delete
	// time, never trusted from an earlier response
	if identity.Role != user.RoleAdmin && identity.UserID != res.UploadedBy {
		RespondForbidden(ctx, "Access denied")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			RespondNotFound(ctx, "Resource not found")
			return
		}
		RespondInternal(ctx, "Could not delete resource")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Resource deleted successfully"})
}

func parseListFilter(ctx *gin.Context) (resource.ListFilter, bool) {
	var filter resource.ListFilter

	if v := ctx.Query("branch"); v != "" {
		filter.Branch = &v
	}

	if v := ctx.Query("subject"); v != "" {
		filter.Subject = &v
	}

	if v := ctx.Query("search"); v != "" {
		filter.Search = &v
	}

	if v := ctx.Query("semester"); v != "" {
		n, err := strconv.Atoi(v)

		if err != nil {
			RespondBadRequest(ctx, "invalid_request", "semester must be a number", nil)
			return resource.ListFilter{}, false
		}
		filter.Semester = &n
	}

	if v := ctx.Query("year"); v != "" {
		n, err := strconv.Atoi(v)

		if err != nil {
			RespondBadRequest(ctx, "invalid_request", "year must be a number", nil)
			return resource.ListFilter{}, false
		}
		filter.Year = &n
	}

	return filter, true
}
