package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// maxUploadSize is the maximum allowed file upload size (10 MB).
	maxUploadSize = 10 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	maxImagePixels = 50_000_000

	// maxKeyNameLen caps the sanitised file name inside the object key.
	maxKeyNameLen = 80
)

// allowedUploadTypes defines MIME types accepted for upload.
var allowedUploadTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// thumbableTypes are image types that get a thumbnail.
// GIF is excluded to preserve animation; SVG is vector.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Uploader stores a public object and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Upload handles image uploads for the post editor.
type Upload struct {
	storage Uploader
	now     func() time.Time
}

// NewUpload creates the upload handler. storage may be nil when object
// storage is not configured; uploads then answer 503.
func NewUpload(storage Uploader) *Upload {
	return &Upload{storage: storage, now: time.Now}
}

// Create accepts a multipart "file" field, stores it publicly and returns
// its URL, plus a thumbnail URL for raster images wider than the
// thumbnail size.
func (h *Upload) Create(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	// Limit request body to maxUploadSize + some overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large, maximum size is 10 MB")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large, maximum size is 10 MB")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		serverError(w, r, "read upload", err)
		return
	}

	contentType := sniffType(data, header.Filename)
	if !allowedUploadTypes[contentType] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file type %q is not allowed", contentType))
		return
	}

	key := h.objectKey(header.Filename, contentType)
	url, err := h.storage.Upload(r.Context(), key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		serverError(w, r, "upload file", err)
		return
	}

	resp := map[string]string{"url": url}
	if thumbableTypes[contentType] {
		thumb, err := generateThumbnail(bytes.NewReader(data), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", key)
		} else if thumb != nil {
			thumbKey := thumbnailKey(key)
			thumbURL, err := h.storage.Upload(r.Context(), thumbKey, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb)))
			if err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", thumbKey)
			} else {
				resp["thumbUrl"] = thumbURL
			}
		}
	}

	slog.Info("file uploaded", "key", key, "type", contentType, "size", len(data))
	writeJSON(w, http.StatusOK, resp)
}

// sniffType detects the content type from the first 512 bytes.
func sniffType(data []byte, filename string) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)

	// SVG detection: DetectContentType returns text/xml or text/plain for SVGs.
	if strings.HasSuffix(strings.ToLower(filename), ".svg") &&
		(strings.Contains(contentType, "xml") || strings.Contains(contentType, "text/plain")) {
		return "image/svg+xml"
	}
	return contentType
}

// objectKey builds uploads/<unix-ms>-<random>-<sanitised name>.
func (h *Upload) objectKey(filename, contentType string) string {
	name := sanitizeFilename(filename)
	if filepath.Ext(name) == "" {
		name += extensionFromType(contentType)
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("uploads/%d-%s-%s", h.now().UnixMilli(), random, name)
}

// thumbnailKey places the thumbnail next to the original.
// uploads/a.png -> uploads/a_thumb.jpg
func thumbnailKey(key string) string {
	return strings.TrimSuffix(key, filepath.Ext(key)) + "_thumb.jpg"
}

// sanitizeFilename keeps ASCII letters, digits, dots, dashes and
// underscores of the base name and replaces everything else with a dash.
// A name with nothing usable left becomes "file".
func sanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.Map(keyRune, filepath.Ext(base))
	if len(ext) < 2 {
		ext = ""
	}

	stem := strings.Map(keyRune, strings.TrimSuffix(base, filepath.Ext(base)))
	stem = strings.Trim(stem, ".-")
	if len(stem) > maxKeyNameLen {
		stem = stem[:maxKeyNameLen]
	}
	if stem == "" {
		stem = "file"
	}
	return stem + ext
}

func keyRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '.', r == '-', r == '_':
		return r
	default:
		return '-'
	}
}

// generateThumbnail creates a JPEG thumbnail from an image, constrained
// to maxWidth while preserving aspect ratio. Returns nil if the image is
// already no wider than maxWidth.
func generateThumbnail(src io.ReadSeeker, maxWidth int) ([]byte, error) {
	// Decode config first to check dimensions without full decode.
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}
	if cfg.Width <= maxWidth {
		return nil, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	height := int(float64(bounds.Dy()) * float64(maxWidth) / float64(bounds.Dx()))
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// extensionFromType returns a file extension for known MIME types.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ""
	}
}
