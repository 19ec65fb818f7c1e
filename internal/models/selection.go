package models

// Selection represents a crop rectangle in source-pixel coordinates.
// The region is [X0,X1) x [Y0,Y1).
type Selection struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Width returns the horizontal extent of the selection.
func (s Selection) Width() int {
	return s.X1 - s.X0
}

// Height returns the vertical extent of the selection.
func (s Selection) Height() int {
	return s.Y1 - s.Y0
}

// WellFormed reports whether the rectangle has positive area and
// non-negative origin, independent of any source image.
func (s Selection) WellFormed() bool {
	return s.X0 >= 0 && s.Y0 >= 0 && s.X0 < s.X1 && s.Y0 < s.Y1
}

// Validate checks the rectangle against concrete source dimensions.
// A selection computed from stale metadata can fail this even though it
// is well formed; callers treat that as a recoverable inconsistency.
func (s Selection) Validate(sourceWidth, sourceHeight int) error {
	if !s.WellFormed() {
		return GeometryError{
			Selection: s,
			Width:     sourceWidth,
			Height:    sourceHeight,
			Reason:    "selection is not a well-formed rectangle",
		}
	}
	if s.X1 > sourceWidth || s.Y1 > sourceHeight {
		return GeometryError{
			Selection: s,
			Width:     sourceWidth,
			Height:    sourceHeight,
			Reason:    "selection exceeds source bounds",
		}
	}
	return nil
}

// DefaultSelection computes the largest rectangle centered on the frame
// whose aspect matches ratio, clipped to the given source dimensions.
func DefaultSelection(ratio Ratio, sourceWidth, sourceHeight int) Selection {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Selection{}
	}

	width, height := sourceWidth, sourceHeight
	if ratio.Width > 0 && ratio.Height > 0 {
		if sourceWidth*ratio.Height > sourceHeight*ratio.Width {
			// Height-bound: full height, proportional width.
			height = sourceHeight
			width = sourceHeight * ratio.Width / ratio.Height
		} else {
			width = sourceWidth
			height = sourceWidth * ratio.Height / ratio.Width
		}
	}

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	x0 := (sourceWidth - width) / 2
	y0 := (sourceHeight - height) / 2

	return Selection{
		X0: x0,
		Y0: y0,
		X1: x0 + width,
		Y1: y0 + height,
	}
}
