package proofstore

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
)

// MaxProofSize is the upload limit for a single proof document.
const MaxProofSize = 10 << 20

var allowedExt = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

var allowedMime = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

// ValidateProofBySniff checks the file name and the first bytes of the file
// against the allowed proof formats. It returns the detected mime type and
// the extension the object is stored under.
func ValidateProofBySniff(filename string, head []byte) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExt[ext]; !ok {
		return "", "", apperror.Validation("Only PDF, PNG and JPEG proofs are supported", nil)
	}

	detected := http.DetectContentType(head)
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	storedExt, ok := allowedMime[detected]
	if !ok {
		return "", "", apperror.Validation("File content does not match a supported proof type", nil)
	}
	return detected, storedExt, nil
}
