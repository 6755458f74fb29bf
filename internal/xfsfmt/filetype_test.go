package xfsfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeModeHighNibble(t *testing.T) {
	assert.Equal(t, uint8(0x04), TypeModeHighNibble(0x41ed)) // S_IFDIR | 0755
	assert.Equal(t, uint8(0x08), TypeModeHighNibble(0x81a4)) // S_IFREG | 0644
	assert.Equal(t, uint8(0x0a), TypeModeHighNibble(0xa1ff)) // S_IFLNK
}

func TestFileTypeFromTypeMode(t *testing.T) {
	assert.Equal(t, FileTypeDir, FileTypeFromTypeMode(TypeModeHighNibble(0x41ed)))
	assert.Equal(t, FileTypeFile, FileTypeFromTypeMode(TypeModeHighNibble(0x81a4)))
	assert.Equal(t, FileTypeInvalid, FileTypeFromTypeMode(0x0f))
}

func TestFileTypeFromDirent(t *testing.T) {
	assert.Equal(t, FileTypeFile, FileTypeFromDirent(1))
	assert.Equal(t, FileTypeDir, FileTypeFromDirent(2))
	assert.Equal(t, FileTypeSymlink, FileTypeFromDirent(7))
	assert.Equal(t, FileTypeInvalid, FileTypeFromDirent(99))
}
