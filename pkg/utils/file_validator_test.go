package utils

import (
	"bytes"
	"testing"

	apperrors "inspection-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestValidateFile_DetectsRealType(t *testing.T) {
	r := bytes.NewReader(pngHeader)
	mimeType, err := ValidateFile(int64(len(pngHeader)), r, "inspection_photo")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	pos, _ := r.Seek(0, 1)
	assert.Equal(t, int64(0), pos, "указатель должен вернуться в начало")
}

func TestValidateFile_RejectsWrongType(t *testing.T) {
	data := []byte("%PDF-1.4\n%...")
	_, err := ValidateFile(int64(len(data)), bytes.NewReader(data), "inspection_photo")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestValidateFile_RejectsOversize(t *testing.T) {
	_, err := ValidateFile(11*1024*1024, bytes.NewReader(pngHeader), "inspection_photo")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestValidateFile_UnknownContext(t *testing.T) {
	_, err := ValidateFile(10, bytes.NewReader(pngHeader), "avatar")
	assert.Error(t, err)
}

func TestIsEmbeddableImage(t *testing.T) {
	format, ok := IsEmbeddableImage(pngHeader)
	assert.True(t, ok)
	assert.Equal(t, "PNG", format)

	format, ok = IsEmbeddableImage([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0})
	assert.True(t, ok)
	assert.Equal(t, "JPG", format)

	_, ok = IsEmbeddableImage([]byte("not an image at all"))
	assert.False(t, ok)
}
