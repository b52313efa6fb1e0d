package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/fbkorg/chatbot-backend/internal/platform/fault"
)

func TestExtractText_EmptyInput(t *testing.T) {
	_, err := ExtractText(nil, "text/plain")
	if err == nil {
		t.Fatalf("expected error for empty input")
	}
	var fe *fault.Error
	if !errors.As(err, &fe) || fe.Kind != fault.KindExtraction {
		t.Fatalf("expected extraction fault, got %v", err)
	}
}

func TestExtractText_PlainTextPassthrough(t *testing.T) {
	in := "FBK hosts community events every month.\nAll are welcome."
	out, err := ExtractText([]byte(in), "text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Fatalf("plain text should pass through unchanged, got %q", out)
	}
}

func TestExtractText_MarkdownKeptVerbatim(t *testing.T) {
	in := "# Programs\n\n- Tutoring\n- Mentorship"
	out, err := ExtractText([]byte(in), "text/markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Fatalf("markdown should not be rendered, got %q", out)
	}
}

func TestExtractText_RejectsInvalidUTF8(t *testing.T) {
	_, err := ExtractText([]byte{0xff, 0xfe, 0x00, 0x41}, "text/plain")
	if err == nil {
		t.Fatalf("expected error for non-UTF-8 bytes")
	}
}

func TestExtractText_RejectsFakePDF(t *testing.T) {
	_, err := ExtractText([]byte("this is not a pdf at all"), MimePDF)
	if err == nil {
		t.Fatalf("expected error when pdf header is missing")
	}
	if !strings.Contains(err.Error(), "PDF") {
		t.Fatalf("error should mention the missing header, got %v", err)
	}
}

func TestIsPDF(t *testing.T) {
	if !isPDF([]byte("%PDF-1.7 rest of file")) {
		t.Fatalf("valid header not recognized")
	}
	if isPDF([]byte("%PD")) {
		t.Fatalf("truncated header should not match")
	}
	if isPDF([]byte("PDF-1.7")) {
		t.Fatalf("missing percent should not match")
	}
}

func TestMimeFromName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"annual-report.pdf", MimePDF},
		{"Annual-Report.PDF", MimePDF},
		{"notes.md", "text/markdown"},
		{"notes.markdown", "text/markdown"},
		{"readme.txt", "text/plain"},
		{"no_extension", "text/plain"},
		{"weird.docx", "text/plain"},
	}
	for _, tc := range cases {
		if got := MimeFromName(tc.name); got != tc.want {
			t.Fatalf("MimeFromName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
