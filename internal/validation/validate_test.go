package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-media-platform/internal/faults"
)

func TestCheckMimeTypeAndSizeUnsupportedType(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
	}{
		{"unknown application type", "application/x-unknown"},
		{"empty mime type", ""},
		{"case differs from policy table", "Image/JPEG"},
		{"mime parameters not stripped", "image/jpeg; charset=binary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMimeTypeAndSize(tt.mimeType, 1024)
			require.Error(t, err)

			var verr *faults.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Empty(t, verr.Category)
			assert.Zero(t, verr.Limit)
		})
	}
}

func TestCheckMimeTypeAndSizeLimits(t *testing.T) {
	const (
		tenMiB = 10 * 1024 * 1024
		twoGiB = 2 * 1024 * 1024 * 1024
	)

	tests := []struct {
		name     string
		mimeType string
		size     int64
		wantErr  bool
		category string
		limit    int64
	}{
		{"image exactly at limit passes", "image/png", tenMiB, false, "", 0},
		{"image one byte over fails", "image/png", tenMiB + 1, true, "images", tenMiB},
		{"document over limit fails", "application/pdf", tenMiB + 1, true, "documents", tenMiB},
		{"video under 2GiB passes", "video/mp4", twoGiB, false, "", 0},
		{"video over 2GiB fails", "video/mp4", twoGiB + 1, true, "videos", twoGiB},
		{"audio has no ceiling", "audio/mpeg", twoGiB * 4, false, "", 0},
		{"archives have no ceiling", "application/zip", twoGiB * 4, false, "", 0},
		{"small audio passes", "audio/mpeg", 512 * 1024, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMimeTypeAndSize(tt.mimeType, tt.size)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var verr *faults.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.category, verr.Category)
			assert.Equal(t, tt.limit, verr.Limit)
		})
	}
}
