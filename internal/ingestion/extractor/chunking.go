package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the sliding window width in characters.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is how many characters consecutive chunks share,
	// so local context survives a chunk boundary at retrieval time.
	DefaultChunkOverlap = 150
	// MinChunkChars filters whitespace-only and noise fragments.
	MinChunkChars = 40
)

// sentenceBreak matches the last sentence terminator in a window that still
// has at least 50 non-terminator characters after it. Cutting there avoids
// splitting mid-sentence; the trailing-run requirement keeps the cut from
// landing on an abbreviation or a terminator near the window's end.
var sentenceBreak = regexp.MustCompile(`[.!?\n]\s+\S[^.!?\n]{50,}$`)

// collapseBlank rewrites runs of three or more newlines down to a paragraph
// break.
var collapseBlank = regexp.MustCompile(`\n{3,}`)

// ChunkText splits text into overlapping, sentence-boundary-aware chunks
// using the default window and overlap. Output is deterministic: the same
// input always yields the same chunk sequence.
func ChunkText(text string) []string {
	return SplitIntoChunks(text, DefaultChunkSize, DefaultChunkOverlap)
}

// SplitIntoChunks walks text with a fixed window, snapping each window back
// to the last sentence boundary when one exists past 60% of the window
// width. Windows advance by (chunk length - overlap). Work happens in runes
// so a UTF-8 sequence is never cut in half.
func SplitIntoChunks(text string, chunkSize int, overlap int) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = collapseBlank.ReplaceAllString(normalized, "\n\n")

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}

	r := []rune(normalized)
	n := len(r)

	var chunks []string
	for start := 0; start < n; {
		end := start + chunkSize
		if end > n {
			end = n
		}
		window := r[start:end]

		// Only interior windows get snapped; the final window keeps the tail.
		if end < n {
			win := string(window)
			if loc := sentenceBreak.FindStringIndex(win); loc != nil {
				breakAt := utf8.RuneCountInString(win[:loc[0]])
				if float64(breakAt) > float64(chunkSize)*0.6 {
					window = window[:breakAt+1]
				}
			}
		}

		trimmed := strings.TrimSpace(string(window))
		if utf8.RuneCountInString(trimmed) >= MinChunkChars {
			chunks = append(chunks, trimmed)
		}

		step := len(window) - overlap
		if step < 1 {
			// The remaining tail is shorter than the overlap and therefore
			// already contained in the chunk just emitted.
			break
		}
		start += step
	}

	return chunks
}
