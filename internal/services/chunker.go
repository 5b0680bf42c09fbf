package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the maximum characters per chunk
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of overlapping characters between chunks
	DefaultChunkOverlap = 200

	// boundaryLookahead is how far past the naive chunk boundary the
	// sentence-ending search may look
	boundaryLookahead = 100
)

// sentenceEnding matches a sentence-ending punctuation mark followed by
// whitespace. Chunk boundaries snap to the last such match in the search
// window; when none is found the fixed-size boundary is used and the chunk
// may split mid-sentence. Tunable heuristic, not a contract.
var sentenceEnding = regexp.MustCompile(`[.!?]\s+`)

// Chunker splits document text into overlapping, sentence-boundary-aware
// chunks and formats them for storage.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Requires chunkSize > overlap >= 0.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap cannot be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into overlapping chunks, trimmed of surrounding
// whitespace. Empty input yields no chunks; the chunks cover every character
// of the input at least once modulo per-chunk trimming.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return []string{}
	}

	var chunks []string
	start := 0
	textLength := len(text)

	for start < textLength {
		end := alignRuneStart(text, start+c.chunkSize)

		// If not at the end, try to break at a sentence boundary within the
		// last 20% of the chunk, looking slightly past the boundary
		if end < textLength {
			searchStart := alignRuneStart(text, end-c.chunkSize/5)
			searchEnd := end + boundaryLookahead
			if searchEnd > textLength {
				searchEnd = textLength
			} else {
				searchEnd = alignRuneStart(text, searchEnd)
			}

			matches := sentenceEnding.FindAllStringIndex(text[searchStart:searchEnd], -1)
			if len(matches) > 0 {
				end = searchStart + matches[len(matches)-1][1]
			}
		} else {
			end = textLength
		}

		if end <= start {
			// A multi-byte rune wider than the chunk size; take it whole
			_, width := utf8.DecodeRuneInString(text[start:])
			end = start + width
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end < textLength {
			next := alignRuneStart(text, end-c.overlap)
			if next <= start {
				// Boundary snapping can land inside the overlap for large
				// overlaps; force forward progress
				next = end
			}
			start = next
		} else {
			start = textLength
		}
	}

	if chunks == nil {
		return []string{}
	}
	return chunks
}

// alignRuneStart backs a byte index off to the start of the UTF-8 rune it
// falls inside, so chunk boundaries never split a multi-byte character.
func alignRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// FormatMarkdown wraps each chunk with a document-identifying header and a
// "chunk i of N" footer. Pure function.
func FormatMarkdown(chunks []string, documentName string) []string {
	formatted := make([]string, len(chunks))
	for i, chunk := range chunks {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s - Chunk %d\n\n", documentName, i+1)
		b.WriteString("---\n\n")
		b.WriteString(chunk)
		b.WriteString("\n\n---\n")
		fmt.Fprintf(&b, "*Chunk %d of %d*", i+1, len(chunks))
		formatted[i] = b.String()
	}
	return formatted
}

// SaveChunks writes one markdown file per chunk under
// {baseDir}/{sessionID}/{documentID}/chunk_{n}.md and returns the paths.
func SaveChunks(chunks []string, documentID, sessionID, baseDir string) ([]string, error) {
	chunkDir := filepath.Join(baseDir, sessionID, documentID)
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}

	paths := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		path := filepath.Join(chunkDir, fmt.Sprintf("chunk_%d.md", i+1))
		if err := os.WriteFile(path, []byte(chunk), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write chunk %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
