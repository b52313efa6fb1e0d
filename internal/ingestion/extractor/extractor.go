package extractor

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"

	"github.com/fbkorg/chatbot-backend/internal/platform/fault"
)

const MimePDF = "application/pdf"

// ExtractText converts raw uploaded bytes plus a declared MIME type into
// plain text. PDFs go through the pdf text layer; everything else (plain
// text, markdown) is decoded as UTF-8 directly, with no markdown rendering.
func ExtractText(data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fault.Extraction("empty file", nil)
	}

	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if mt == MimePDF {
		if !isPDF(data) {
			return "", fault.Extraction(
				fmt.Sprintf("file claims pdf but missing %%PDF header (head=%x)", head(data, 8)), nil)
		}
		return extractPDF(data)
	}

	if !utf8.Valid(data) {
		return "", fault.Extraction(fmt.Sprintf("file is not valid UTF-8 text (mime=%s)", mt), nil)
	}
	return string(data), nil
}

// PDF files start with "%PDF-".
func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func head(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fault.Extraction("pdf reader", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fault.Extraction("pdf plaintext", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fault.Extraction("pdf read", err)
	}
	return string(b), nil
}

// MimeFromName maps an uploaded filename to the MIME classification the
// pipeline understands. Anything that is not pdf or markdown is treated as
// plain text.
func MimeFromName(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "text/plain"
	}
	switch strings.ToLower(filename[i+1:]) {
	case "pdf":
		return MimePDF
	case "md", "markdown":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
