package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"cropr/internal/models"
	"cropr/internal/service"
	"cropr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CropHandler serves rendered crops.
// GET /<id-path>/<ratio>/<width>.<ext>
//
// The id path has variable depth (one segment per 4 id characters), so
// these requests cannot be bound to a fixed route pattern; the router
// dispatches them from its NoRoute handler.
type CropHandler struct {
	cropService service.CropService
}

// NewCropHandler creates a new crop handler
func NewCropHandler(cropService service.CropService) *CropHandler {
	return &CropHandler{cropService: cropService}
}

// Serve parses a crop URL and renders the response.
func (h *CropHandler) Serve(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")
	path := strings.Trim(c.Request.URL.Path, "/")

	segments := strings.Split(path, "/")
	if len(segments) < 3 {
		h.notFound(c, "not a crop path")
		return
	}

	file := segments[len(segments)-1]
	ratioToken := segments[len(segments)-2]
	idPath := strings.Join(segments[:len(segments)-2], "/")

	dot := strings.LastIndex(file, ".")
	if dot <= 0 || dot == len(file)-1 {
		h.notFound(c, "missing output extension")
		return
	}
	widthStr, ext := file[:dot], file[dot+1:]

	width, err := strconv.Atoi(widthStr)
	if err != nil || width < 1 {
		h.notFound(c, "invalid width segment")
		return
	}

	id, err := models.ParseImageID(idPath)
	if err != nil {
		h.handleCropError(c, err, requestID)
		return
	}

	// A flat id longer than one shard group gets one redirect to its
	// canonical sharded form, which then resolves without redirecting.
	if models.NeedsShardRedirect(idPath) {
		target := "/" + models.ShardIDPath(idPath) + "/" + ratioToken + "/" + file
		logger.DebugWithContext(ctx, "Redirecting flat id to sharded path",
			zap.String("from", c.Request.URL.Path),
			zap.String("to", target),
			zap.String("request_id", requestID))
		c.Redirect(http.StatusFound, target)
		return
	}

	result, err := h.cropService.Render(ctx, service.CropRequest{
		ID:         id,
		RatioToken: ratioToken,
		Width:      width,
		Extension:  ext,
	})
	if err != nil {
		h.handleCropError(c, err, requestID)
		return
	}

	if result.Placeholder {
		// Placeholders change color per request and must never stick in
		// any downstream cache.
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
	} else {
		c.Header("Cache-Control", "public, max-age=3600")
	}

	logger.InfoWithContext(ctx, "Crop served",
		zap.Int64("image_id", id),
		zap.String("ratio", ratioToken),
		zap.Int("width", width),
		zap.String("extension", ext),
		zap.Bool("cache_hit", result.CacheHit),
		zap.Bool("placeholder", result.Placeholder),
		zap.String("request_id", requestID))

	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// notFound writes the crop 404 with its short negative-cache window
func (h *CropHandler) notFound(c *gin.Context, message string) {
	c.Header("Cache-Control", "max-age=60")
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "Not found",
		Message: message,
		Code:    http.StatusNotFound,
	})
}

// handleCropError maps pipeline errors onto the crop status contract:
// anything wrong with the request or the source's existence is a 404,
// anything wrong with the server's ability to render is a 500.
func (h *CropHandler) handleCropError(c *gin.Context, err error, requestID string) {
	ctx := c.Request.Context()

	switch e := err.(type) {
	case models.InvalidRatioError, models.InvalidIdentifierError, models.UnsupportedFormatError:
		logger.DebugWithContext(ctx, "Rejected crop request",
			zap.Error(err),
			zap.String("request_id", requestID))
		h.notFound(c, err.Error())

	case models.SourceUnavailableError:
		logger.WarnWithContext(ctx, "Crop requested for unavailable source",
			zap.Int64("image_id", e.ID),
			zap.String("request_id", requestID))
		h.notFound(c, err.Error())

	case models.NotFoundError:
		h.notFound(c, err.Error())

	case models.ValidationError:
		h.notFound(c, err.Error())

	case models.WidthTooLargeError:
		logger.WarnWithContext(ctx, "Requested width exceeds cap",
			zap.Int("width", e.Width),
			zap.Int("max", e.Max),
			zap.String("request_id", requestID))
		h.internalError(c, "Requested width is too large")

	case models.GeometryError:
		logger.ErrorWithContext(ctx, "Selection geometry unrecoverable",
			zap.Error(err),
			zap.String("request_id", requestID))
		h.internalError(c, "Crop geometry could not be resolved")

	case models.DecodeError:
		logger.ErrorWithContext(ctx, "Source image undecodable",
			zap.Error(err),
			zap.String("request_id", requestID))
		h.internalError(c, "Source image could not be decoded")

	case models.CacheWriteError:
		logger.ErrorWithContext(ctx, "Render cache unwritable",
			zap.Error(err),
			zap.String("request_id", requestID))
		h.internalError(c, "Render cache is unavailable")

	default:
		logger.ErrorWithContext(ctx, "Crop pipeline error",
			zap.Error(err),
			zap.String("request_id", requestID))
		h.internalError(c, "An unexpected error occurred")
	}
}

func (h *CropHandler) internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "Internal server error",
		Message: message,
		Code:    http.StatusInternalServerError,
	})
}
