package mock

import "github.com/lotscan/lotscan"

var _ lotscan.Converter = (*Converter)(nil)

// Converter is a mock implementation of lotscan.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
