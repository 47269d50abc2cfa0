package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/lexrag/core"
)

const (
	// DefaultMaxSources is how many top candidates are considered for citation.
	DefaultMaxSources = 5

	// PreviewLength is the rune length of a citation preview.
	PreviewLength = 150

	noPageNumber = "N/A"
)

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// Sources cites the first limit candidates, keeping only the first
// candidate per file name. Fewer than limit citations come back when
// several top candidates share a file. Never returns nil.
func Sources(candidates []core.Candidate, limit int) []core.SourceRef {
	if limit < len(candidates) {
		candidates = candidates[:max(limit, 0)]
	}

	sources := []core.SourceRef{}
	files := map[string]struct{}{}
	for _, c := range candidates {
		file := metadataOr(c.Metadata, core.MetaFileName, unknownMetadata)
		if _, ok := files[file]; ok {
			continue
		}
		files[file] = struct{}{}

		sources = append(sources, core.SourceRef{
			FileName:       file,
			DocumentType:   HumanizeDocumentType(metadataOr(c.Metadata, core.MetaDocumentType, unknownMetadata)),
			PageNumber:     metadataOr(c.Metadata, core.MetaPageNumber, noPageNumber),
			ContentPreview: Preview(c.Content, PreviewLength),
		})
	}
	return sources
}

// Preview returns the first n runes of content on one line, with "..."
// appended when content was longer than n.
func Preview(content string, n int) string {
	preview := strings.TrimSpace(lineBreaks.Replace(core.TruncateRunes(content, n)))
	if utf8.RuneCountInString(content) > n {
		preview += "..."
	}
	return preview
}

// HumanizeDocumentType turns "nyaya_sanhita" into "Nyaya Sanhita".
// Every letter that follows a non-letter is upper-cased, the rest lower-cased.
func HumanizeDocumentType(docType string) string {
	docType = strings.ReplaceAll(docType, "_", " ")

	var sb strings.Builder
	sb.Grow(len(docType))
	prevLetter := false
	for _, r := range docType {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && !prevLetter:
			sb.WriteRune(unicode.ToUpper(r))
		case isLetter:
			sb.WriteRune(unicode.ToLower(r))
		default:
			sb.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return sb.String()
}
