// Package htmltomarkdown condenses rendered inventory pages into
// Markdown. The output is prompt context for the vision tier, so the
// emphasis is on compact text, not faithful document structure.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/lotscan/lotscan"
)

// Ensure Converter implements lotscan.Converter at compile time.
var _ lotscan.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown. The table plugin stays enabled
// because dealership spec sheets are usually tables, and those carry
// the year, mileage and price the model is asked to cross-reference.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into compact Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", lotscan.Errorf(lotscan.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return collapseBlankLines(result), nil
}

// collapseBlankLines squeezes runs of blank lines down to one. Listing
// grids convert with a lot of vertical whitespace that would only burn
// prompt budget.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
