package answer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/lexrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(content, file, docType, page string) core.Candidate {
	md := map[string]string{}
	if file != "" {
		md[core.MetaFileName] = file
	}
	if docType != "" {
		md[core.MetaDocumentType] = docType
	}
	if page != "" {
		md[core.MetaPageNumber] = page
	}
	return core.Candidate{Content: content, Metadata: md}
}

func TestSources_DedupByFile(t *testing.T) {
	candidates := []core.Candidate{
		candidate("first", "bns.pdf", "nyaya_sanhita", "10"),
		candidate("second", "bns.pdf", "nyaya_sanhita", "11"),
		candidate("third", "constitution.pdf", "constitution", ""),
		candidate("fourth", "", "", ""),
		candidate("fifth", "income_tax.pdf", "income_tax_act", "200"),
		candidate("sixth", "finance_act.pdf", "finance_act", "3"),
	}

	got := Sources(candidates, DefaultMaxSources)
	require.Len(t, got, 4, "only the top five are considered, one per file")

	assert.Equal(t, core.SourceRef{FileName: "bns.pdf", DocumentType: "Nyaya Sanhita", PageNumber: "10", ContentPreview: "first"}, got[0])
	assert.Equal(t, "constitution.pdf", got[1].FileName)
	assert.Equal(t, "N/A", got[1].PageNumber)
	assert.Equal(t, core.SourceRef{FileName: "Unknown", DocumentType: "Unknown", PageNumber: "N/A", ContentPreview: "fourth"}, got[2])
	assert.Equal(t, "Income Tax Act", got[3].DocumentType)
}

func TestSources_Empty(t *testing.T) {
	got := Sources(nil, DefaultMaxSources)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = Sources([]core.Candidate{candidate("x", "a.pdf", "", "")}, 0)
	assert.Empty(t, got)
}

func TestPreview(t *testing.T) {
	exact := strings.Repeat("a", PreviewLength)
	long := strings.Repeat("b", PreviewLength+20)

	tests := []struct {
		name, in, want string
	}{
		{"short", "Section 63 defines rape.", "Section 63 defines rape."},
		{"newlines flattened", "line one\nline two\r\nline three", "line one line two  line three"},
		{"trimmed", "\n  padded  \n", "padded"},
		{"exactly the limit", exact, exact},
		{"truncated", long, strings.Repeat("b", PreviewLength) + "..."},
		{"multibyte", strings.Repeat("धारा ", 40), strings.TrimSpace(strings.Repeat("धारा ", 30)) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.in, PreviewLength))
		})
	}
}

func TestHumanizeDocumentType(t *testing.T) {
	tests := map[string]string{
		"nyaya_sanhita":   "Nyaya Sanhita",
		"constitution":    "Constitution",
		"INCOME_TAX_ACT":  "Income Tax Act",
		"finance act":     "Finance Act",
		"section_80c":     "Section 80C",
		"":                "",
		"rules-1962_part": "Rules-1962 Part",
	}
	for in, want := range tests {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			assert.Equal(t, want, HumanizeDocumentType(in))
		})
	}
}
