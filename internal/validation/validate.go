// Package validation is the gate every uploaded file passes before any
// durable write happens. It checks the declared mime type and size against
// a per-category policy table; it performs no content sniffing and trusts
// the declared type.
package validation

import (
	"fmt"

	"go-media-platform/internal/faults"
)

// allowedMimeTypes maps a file category to the exact mime types admitted
// for it. Lookup is a case-sensitive exact match.
var allowedMimeTypes = map[string][]string{
	"documents": {
		"application/pdf", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/rtf", "application/vnd.oasis.opendocument.text",
		"application/vnd.oasis.opendocument.spreadsheet", "application/x-abiword",
		"application/vnd.ms-excel", "application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/epub+zip", "application/x-freearc", "text/plain",
		"text/csv", "application/json", "application/xml",
	},
	"images": {
		"image/jpeg", "image/png", "image/gif", "image/bmp", "image/svg+xml",
		"image/tiff", "image/webp", "image/ico", "image/heic", "image/heif",
	},
	"videos": {
		"video/mp4", "video/quicktime", "video/webm", "video/avi",
		"video/mpeg", "video/x-matroska", "video/ogg", "video/x-flv",
	},
	"audio": {
		"audio/mpeg", "audio/wav", "audio/ogg", "audio/webm", "audio/x-flac",
	},
	"archives": {
		"application/zip", "application/x-7z-compressed", "application/x-rar-compressed",
		"application/x-tar", "application/gzip", "application/x-bzip", "application/x-bzip2",
	},
	"others": {
		"application/javascript", "application/x-sh", "application/vnd.android.package-archive",
		"application/x-msdownload", "application/octet-stream",
	},
}

// maxFileSize maps a category to its byte ceiling. Categories without an
// entry (audio, archives, others) are admitted at any size.
var maxFileSize = map[string]int64{
	"documents": 10 * 1024 * 1024,
	"images":    10 * 1024 * 1024,
	"videos":    2 * 1024 * 1024 * 1024,
}

// CheckMimeTypeAndSize admits or rejects a file by its declared mime type
// and size. An unmatched mime type fails regardless of size; a matched but
// oversized file fails with the category's limit. Size exactly at the limit
// passes.
func CheckMimeTypeAndSize(mimeType string, size int64) error {
	category := fileCategory(mimeType)
	if category == "" {
		return &faults.ValidationError{
			Reason: fmt.Sprintf("unsupported file type: %s", mimeType),
		}
	}

	limit, ok := maxFileSize[category]
	if ok && size > limit {
		return &faults.ValidationError{
			Category: category,
			Limit:    limit,
			Reason:   fmt.Sprintf("file size exceeds the maximum allowed size of %d bytes for %s files", limit, category),
		}
	}

	return nil
}

func fileCategory(mimeType string) string {
	for category, mimeTypes := range allowedMimeTypes {
		for _, m := range mimeTypes {
			if m == mimeType {
				return category
			}
		}
	}
	return ""
}
