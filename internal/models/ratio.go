package models

import (
	"fmt"
	"regexp"
	"strconv"
)

// RatioOriginal is the sentinel token for "match the source dimensions".
const RatioOriginal = "original"

var ratioRegex = regexp.MustCompile(`^(\d+)x(\d+)$`)

// Ratio represents a target aspect ratio for a crop.
// The zero Width/Height with Original set means the ratio follows the
// source image's current dimensions.
type Ratio struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	Original bool `json:"original"`
}

// ParseRatio parses a ratio token ("original" or "<w>x<h>", both positive).
func ParseRatio(token string) (Ratio, error) {
	if token == RatioOriginal {
		return Ratio{Original: true}, nil
	}

	matches := ratioRegex.FindStringSubmatch(token)
	if len(matches) != 3 {
		return Ratio{}, InvalidRatioError{Token: token}
	}

	width, err := strconv.Atoi(matches[1])
	if err != nil {
		return Ratio{}, InvalidRatioError{Token: token}
	}
	height, err := strconv.Atoi(matches[2])
	if err != nil {
		return Ratio{}, InvalidRatioError{Token: token}
	}

	if width <= 0 || height <= 0 {
		return Ratio{}, InvalidRatioError{Token: token}
	}

	return Ratio{Width: width, Height: height}, nil
}

// Slug returns the ratio token used in URLs and cache paths.
func (r Ratio) Slug() string {
	if r.Original {
		return RatioOriginal
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// WithDimensions returns a copy of an Original ratio bound to concrete
// source dimensions. Non-original ratios are returned unchanged.
func (r Ratio) WithDimensions(width, height int) Ratio {
	if !r.Original {
		return r
	}
	return Ratio{Width: width, Height: height, Original: true}
}

// Equal reports whether two ratios denote the same crop target.
func (r Ratio) Equal(other Ratio) bool {
	if r.Original || other.Original {
		return r.Original == other.Original
	}
	return r.Width == other.Width && r.Height == other.Height
}
