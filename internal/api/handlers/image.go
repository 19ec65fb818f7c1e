package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/internal/service"
	"cropr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageHandler handles image management HTTP requests
type ImageHandler struct {
	imageService service.ImageService
	config       *config.Config
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageService service.ImageService, config *config.Config) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		config:       config,
	}
}

// Upload handles image upload requests
// POST /api/v1/images
func (h *ImageHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	logger.InfoWithContext(ctx, "Processing image upload",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()))

	if err := c.Request.ParseMultipartForm(h.config.Image.MaxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid form data",
			Message: "Failed to parse multipart form",
			Code:    http.StatusBadRequest,
		})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing image file",
			Message: "Request must contain an 'image' file field",
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer file.Close()

	if header.Size > h.config.Image.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "File too large",
			Message: fmt.Sprintf("File size %d bytes exceeds limit of %d bytes", header.Size, h.config.Image.MaxFileSize),
			Code:    http.StatusRequestEntityTooLarge,
		})
		return
	}

	fileData, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to read file data",
			zap.Error(err),
			zap.String("request_id", requestID))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "File read error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	meta, err := h.imageService.ProcessUpload(ctx, service.UploadInput{
		Filename: header.Filename,
		Data:     fileData,
		Size:     header.Size,
	})
	if err != nil {
		h.handleServiceError(c, err, requestID, "upload failed")
		return
	}

	logger.InfoWithContext(ctx, "Image upload completed",
		zap.Int64("image_id", meta.ID),
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
		zap.String("request_id", requestID))

	c.JSON(http.StatusCreated, models.UploadResponse{
		ID:      meta.ID,
		Path:    meta.IDPath(),
		Width:   meta.Width,
		Height:  meta.Height,
		Message: "Image uploaded successfully",
	})
}

// Detail handles image metadata requests
// GET /api/v1/images/:id
func (h *ImageHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	meta, err := h.imageService.GetMetadata(ctx, id)
	if err != nil {
		h.handleServiceError(c, err, requestID, "get metadata failed")
		return
	}

	c.JSON(http.StatusOK, meta.ToDetailResponse())
}

// Update handles image detail patches
// PATCH /api/v1/images/:id
func (h *ImageHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: "Body must be a JSON object with optional name/credit fields",
			Code:    http.StatusBadRequest,
		})
		return
	}

	meta, err := h.imageService.UpdateDetails(ctx, id, req)
	if err != nil {
		h.handleServiceError(c, err, requestID, "update details failed")
		return
	}

	c.JSON(http.StatusOK, meta.ToDetailResponse())
}

// Search handles image search requests
// GET /api/v1/images?q=<substring>
func (h *ImageHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")
	query := c.Query("q")

	results, err := h.imageService.Search(ctx, query)
	if err != nil {
		h.handleServiceError(c, err, requestID, "search failed")
		return
	}

	response := models.SearchResponse{Results: make([]models.DetailResponse, 0, len(results))}
	for _, meta := range results {
		response.Results = append(response.Results, meta.ToDetailResponse())
	}

	c.JSON(http.StatusOK, response)
}

// UpdateSelection handles crop selection updates
// POST /api/v1/images/:id/selections/:ratio
func (h *ImageHandler) UpdateSelection(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")
	ratioToken := c.Param("ratio")

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: "Body must contain integer x0, y0, x1, y1",
			Code:    http.StatusBadRequest,
		})
		return
	}

	sel := models.Selection{X0: *req.X0, Y0: *req.Y0, X1: *req.X1, Y1: *req.Y1}

	if err := h.imageService.UpdateSelection(ctx, id, ratioToken, sel); err != nil {
		h.handleServiceError(c, err, requestID, "update selection failed")
		return
	}

	logger.InfoWithContext(ctx, "Selection update accepted",
		zap.Int64("image_id", id),
		zap.String("ratio", ratioToken),
		zap.String("request_id", requestID))

	c.Status(http.StatusNoContent)
}

// Delete handles image deletion
// DELETE /api/v1/images/:id
func (h *ImageHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.imageService.DeleteImage(ctx, id); err != nil {
		h.handleServiceError(c, err, requestID, "delete failed")
		return
	}

	c.Status(http.StatusNoContent)
}

// parseID reads the :id route parameter, writing the error response on failure
func (h *ImageHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid image ID",
			Message: "Image ID must be a positive integer",
			Code:    http.StatusBadRequest,
		})
		return 0, false
	}
	return id, true
}

// handleServiceError maps service errors for the management API. Unlike
// crop serving, client mistakes here are reported as 400s.
func (h *ImageHandler) handleServiceError(c *gin.Context, err error, requestID, operation string) {
	ctx := c.Request.Context()

	switch e := err.(type) {
	case models.ValidationError:
		logger.WarnWithContext(ctx, "Validation error",
			zap.String("field", e.Field),
			zap.String("message", e.Message),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Validation failed",
			Message: e.Error(),
			Code:    http.StatusBadRequest,
		})

	case models.InvalidRatioError:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid ratio",
			Message: e.Error(),
			Code:    http.StatusBadRequest,
		})

	case models.GeometryError:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid selection",
			Message: e.Error(),
			Code:    http.StatusBadRequest,
		})

	case models.DecodeError:
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "Undecodable image",
			Message: e.Error(),
			Code:    http.StatusUnprocessableEntity,
		})

	case models.NotFoundError:
		logger.WarnWithContext(ctx, "Resource not found",
			zap.String("resource", e.Resource),
			zap.String("id", e.ID),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: e.Error(),
			Code:    http.StatusNotFound,
		})

	case models.StorageError:
		logger.ErrorWithContext(ctx, "Storage error",
			zap.String("storage_operation", e.Operation),
			zap.String("backend", e.Backend),
			zap.String("reason", e.Reason),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Storage unavailable",
			Message: "Temporary service unavailability",
			Code:    http.StatusServiceUnavailable,
		})

	default:
		logger.ErrorWithContext(ctx, "Unknown error",
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.String("operation", operation))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal server error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
