package models

import "fmt"

// Custom error types for better error handling
type (
	// InvalidRatioError indicates an unparseable or non-positive ratio token.
	InvalidRatioError struct {
		Token string `json:"token"`
	}

	// InvalidIdentifierError indicates an id path segment that does not
	// decode to a positive integer.
	InvalidIdentifierError struct {
		Segment string `json:"segment"`
	}

	// UnsupportedFormatError indicates an output extension outside jpg/png.
	UnsupportedFormatError struct {
		Extension string `json:"extension"`
	}

	// WidthTooLargeError indicates a requested width above the configured cap.
	WidthTooLargeError struct {
		Width int `json:"width"`
		Max   int `json:"max"`
	}

	// DecodeError indicates source bytes that are not a decodable image.
	DecodeError struct {
		Reason string `json:"reason"`
	}

	// GeometryError indicates a selection that is invalid against the true
	// source dimensions, even after one stored-dimension correction.
	GeometryError struct {
		Selection Selection `json:"selection"`
		Width     int       `json:"width"`
		Height    int       `json:"height"`
		Reason    string    `json:"reason"`
	}

	// SourceUnavailableError indicates a missing image record or source file.
	SourceUnavailableError struct {
		ID int64 `json:"id"`
	}

	// CacheWriteError indicates a render-cache directory that could not be
	// created for a reason other than pre-existence.
	CacheWriteError struct {
		Path   string `json:"path"`
		Reason string `json:"reason"`
	}

	// ValidationError represents an invalid request payload field.
	ValidationError struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}

	// NotFoundError represents a missing resource.
	NotFoundError struct {
		Resource string `json:"resource"`
		ID       string `json:"id"`
	}

	// StorageError represents a source-storage operation failure.
	StorageError struct {
		Operation string `json:"operation"`
		Backend   string `json:"backend"`
		Reason    string `json:"reason"`
	}
)

func (e InvalidRatioError) Error() string {
	return fmt.Sprintf("invalid ratio token %q", e.Token)
}

func (e InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid image identifier %q", e.Segment)
}

func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q", e.Extension)
}

func (e WidthTooLargeError) Error() string {
	return fmt.Sprintf("requested width %d exceeds maximum of %d", e.Width, e.Max)
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("source image could not be decoded: %s", e.Reason)
}

func (e GeometryError) Error() string {
	return fmt.Sprintf("selection [%d,%d)x[%d,%d) invalid for %dx%d source: %s",
		e.Selection.X0, e.Selection.X1, e.Selection.Y0, e.Selection.Y1,
		e.Width, e.Height, e.Reason)
}

func (e SourceUnavailableError) Error() string {
	return fmt.Sprintf("source for image %d is unavailable", e.ID)
}

func (e CacheWriteError) Error() string {
	return fmt.Sprintf("render cache directory %q could not be created: %s", e.Path, e.Reason)
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage error during %s on %s: %s", e.Operation, e.Backend, e.Reason)
}
