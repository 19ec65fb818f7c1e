package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageMetadata(t *testing.T) {
	meta := NewImageMetadata(123456789, "skyline", 1920, 1080)

	assert.Equal(t, int64(123456789), meta.ID)
	assert.Equal(t, "skyline", meta.Name)
	assert.Equal(t, 1920, meta.Width)
	assert.Equal(t, 1080, meta.Height)
	assert.Equal(t, "1234/5678/9", meta.IDPath())
	assert.Empty(t, meta.Selections)
	assert.True(t, time.Since(meta.CreatedAt) < time.Second)
}

func TestImageMetadata_Selections(t *testing.T) {
	meta := NewImageMetadata(7, "portrait", 800, 600)

	_, ok := meta.SelectionFor("1x1")
	assert.False(t, ok)

	sel := Selection{X0: 100, Y0: 0, X1: 700, Y1: 600}
	meta.SetSelection("1x1", sel)

	stored, ok := meta.SelectionFor("1x1")
	require.True(t, ok)
	assert.Equal(t, sel, stored)
}

func TestImageMetadata_SetDimensions(t *testing.T) {
	meta := NewImageMetadata(7, "portrait", 800, 600)
	meta.UpdatedAt = time.Now().Add(-time.Hour)
	before := meta.UpdatedAt

	meta.SetDimensions(1024, 768)

	assert.Equal(t, 1024, meta.Width)
	assert.Equal(t, 768, meta.Height)
	assert.True(t, meta.UpdatedAt.After(before))
}

func TestImageMetadata_Validate(t *testing.T) {
	valid := NewImageMetadata(1, "ok", 10, 10)
	assert.NoError(t, valid.Validate())

	noID := NewImageMetadata(0, "ok", 10, 10)
	assert.Error(t, noID.Validate())

	noName := NewImageMetadata(1, "", 10, 10)
	assert.Error(t, noName.Validate())

	badDims := NewImageMetadata(1, "ok", 0, 10)
	assert.Error(t, badDims.Validate())

	badRatio := NewImageMetadata(1, "ok", 10, 10)
	badRatio.Selections["not-a-ratio"] = Selection{X0: 0, Y0: 0, X1: 5, Y1: 5}
	assert.Error(t, badRatio.Validate())

	badSel := NewImageMetadata(1, "ok", 10, 10)
	badSel.Selections["1x1"] = Selection{X0: 5, Y0: 0, X1: 5, Y1: 5}
	assert.Error(t, badSel.Validate())
}

func TestContentTypeForExtension(t *testing.T) {
	ct, err := ContentTypeForExtension("jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	ct, err = ContentTypeForExtension("png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	for _, bad := range []string{"gif", "webp", "jpeg", "JPG", ""} {
		_, err := ContentTypeForExtension(bad)
		assert.Error(t, err, "extension %q", bad)
		assert.IsType(t, UnsupportedFormatError{}, err)
	}
}
