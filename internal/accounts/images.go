package accounts

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joao-fontenele/mercado-api/internal/domain"
)

// imageRule limits an uploaded image by size and by subtype, which must
// match both the declared content type and the file extension.
type imageRule struct {
	maxBytes int64
	subtypes []string
}

var (
	photoRule = imageRule{maxBytes: 2 << 20, subtypes: []string{"jpeg", "jpg", "png", "gif"}}
	brandRule = imageRule{maxBytes: 3 << 20, subtypes: []string{"jpeg", "png", "webp"}}
)

// readImage returns the bytes of the named upload, or nil when the field
// was not sent.
func readImage(r *http.Request, field string, rule imageRule) ([]byte, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrValidation, field, err)
	}
	defer func() { _ = file.Close() }()

	if header.Size > rule.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrValidation, field, rule.maxBytes)
	}

	if !rule.allows(header.Header.Get("Content-Type"), header.Filename) {
		return nil, fmt.Errorf("%w: %s has a file type that is not allowed", domain.ErrValidation, field)
	}

	data, err := io.ReadAll(io.LimitReader(file, rule.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if int64(len(data)) > rule.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrValidation, field, rule.maxBytes)
	}

	return data, nil
}

func (rule imageRule) allows(contentType, filename string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	kind, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || kind != "image" || !slices.Contains(rule.subtypes, subtype) {
		return false
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return slices.Contains(rule.subtypes, ext)
}

// dataURL renders stored image bytes for JSON responses.
func dataURL(data []byte) *string {
	if len(data) == 0 {
		return nil
	}
	s := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	return &s
}
