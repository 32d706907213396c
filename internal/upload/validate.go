// internal/upload/validate.go
package upload

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "medalert-client/internal/common/errors"
)

// FileInput describes the file chosen for upload. ContentType may be left
// empty, in which case it is sniffed from the file header rather than trusted
// from the file name.
type FileInput struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// validateFile applies the pre-network checks in order: media class, size,
// then the allowed-type set. The returned input carries a reader with any
// sniffed bytes stitched back in front.
func validateFile(in *FileInput, cfg *Config) (*FileInput, error) {
	contentType := in.ContentType
	if contentType == "" {
		sniffed, reader, err := sniffContentType(in.Reader)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.ErrCodeNoFileSelected, "file could not be read")
		}
		contentType = sniffed
		in = &FileInput{Name: in.Name, Size: in.Size, ContentType: contentType, Reader: reader}
	}

	// Strip parameters like "; charset=".
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeNotAnImage, "selected file is not an image")
	}

	if in.Size > cfg.MaxFileSize {
		return nil, apperrors.NewValidationError(
			apperrors.ErrCodeFileTooLarge,
			fmt.Sprintf("file size %d exceeds the %d byte limit", in.Size, cfg.MaxFileSize),
		)
	}

	allowed := false
	for _, t := range cfg.AllowedTypes {
		if contentType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperrors.NewValidationError(
			apperrors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("file type %q is not supported", contentType),
		)
	}

	return in, nil
}

// sniffContentType detects the media type from the first bytes of r and
// returns a reader that replays them.
func sniffContentType(r io.Reader) (string, io.Reader, error) {
	header := make([]byte, 512)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	header = header[:n]
	return http.DetectContentType(header), io.MultiReader(bytes.NewReader(header), r), nil
}
