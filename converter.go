package lotscan

// Converter converts HTML to Markdown. Used to give the vision model a
// condensed text rendition of the page alongside the screenshot.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	Convert(html string) (string, error)
}
