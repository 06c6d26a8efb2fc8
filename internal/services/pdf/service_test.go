package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func testChartPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderReport(t *testing.T) {
	logger := arbor.NewLogger()
	service := NewService(logger)
	chart := testChartPNG(t)

	tests := []struct {
		name     string
		markdown string
		chart    []byte
		title    string
	}{
		{
			name:     "Basic Report",
			markdown: "# Daily Report: ASX:GNP\n\nSome analysis text.\n\n- Point 1\n- Point 2",
			chart:    chart,
			title:    "ASX:GNP 2026-08-31",
		},
		{
			name: "Report With Metrics Table",
			markdown: `# Daily Report: ASX:GNP

## Key Metrics

| Metric | Value |
|--------|-------|
| Close | 10.7000 |
| Day change | +0.25 (+2.39%) |

## Analysis

The stock advanced **steadily** over the period.`,
			chart: chart,
			title: "ASX:GNP 2026-08-31",
		},
		{
			name:     "No Chart",
			markdown: "# Daily Report\n\nText only.",
			chart:    nil,
			title:    "text only",
		},
		{
			name:     "Bold and Italic",
			markdown: "Normal **Bold** *Italic* ***BoldItalic***",
			chart:    chart,
			title:    "Styling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.RenderReport(tt.markdown, tt.chart, tt.title)
			assert.NoError(t, err)
			assert.NotEmpty(t, pdfBytes)
			assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))

			// Rendered artifacts must survive independent validation
			assert.NoError(t, ValidatePDF(pdfBytes))
		})
	}
}

func TestValidatePDFRejectsGarbage(t *testing.T) {
	assert.Error(t, ValidatePDF(nil))
	assert.Error(t, ValidatePDF([]byte("not a pdf document")))
}

func TestTableRowsIncludeHeader(t *testing.T) {
	source := []byte("| Metric | Value |\n| --- | --- |\n| Close | 1.18 |\n| Volume | 120000 |\n")

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	var table *extast.Table
	require.NoError(t, ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if tbl, ok := n.(*extast.Table); ok && entering {
			table = tbl
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	}))
	require.NotNil(t, table)

	r := &reportRenderer{source: source}
	rows := r.tableRows(table)

	// Header row first, then the data rows
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Metric", "Value"}, rows[0])
	require.Equal(t, []string{"Close", "1.18"}, rows[1])
	require.Equal(t, []string{"Volume", "120000"}, rows[2])
}
