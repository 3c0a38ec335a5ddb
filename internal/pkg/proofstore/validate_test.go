package proofstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
)

var (
	pdfHead  = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	pngHead  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHead = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestValidateProofBySniff(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		head     []byte
		wantMime string
		wantExt  string
	}{
		{name: "pdf", filename: "receipt.PDF", head: pdfHead, wantMime: "application/pdf", wantExt: ".pdf"},
		{name: "png", filename: "transfer.png", head: pngHead, wantMime: "image/png", wantExt: ".png"},
		{name: "jpeg", filename: "scan.jpeg", head: jpegHead, wantMime: "image/jpeg", wantExt: ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, ext, err := ValidateProofBySniff(tt.filename, tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMime, mime)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestValidateProofBySniffRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		head     []byte
	}{
		{name: "extension", filename: "proof.gif", head: []byte("GIF89a")},
		{name: "html disguised as pdf", filename: "proof.pdf", head: []byte("<html><script>alert(1)</script>")},
		{name: "no extension", filename: "proof", head: pdfHead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidateProofBySniff(tt.filename, tt.head)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		})
	}
}
