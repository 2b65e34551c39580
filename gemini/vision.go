// Package gemini implements the vision fallback tier and selector
// learning using Google Gemini. It is the tier of last resort: a
// screenshot of the rendered page plus a condensed text version is sent
// to a multimodal model, and the reply is parsed back into records.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/lotscan/lotscan"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// MaxScreenshotBytes is the largest screenshot sent to the model.
// Oversized captures are skipped rather than failing the scrape.
const MaxScreenshotBytes = 5 << 20

// maxPageContextChars bounds the condensed page text appended to the
// vision prompt.
const maxPageContextChars = 4000

// Ensure VisionExtractor implements the interface at compile time.
var _ lotscan.VisionExtractor = (*VisionExtractor)(nil)

// VisionExtractor implements lotscan.VisionExtractor using Gemini.
type VisionExtractor struct {
	client    *genai.Client
	converter lotscan.Converter
}

// NewVisionExtractor creates a new VisionExtractor. The converter is
// optional; when present the page HTML is condensed to markdown and
// sent alongside the screenshot.
func NewVisionExtractor(client *genai.Client, converter lotscan.Converter) *VisionExtractor {
	return &VisionExtractor{client: client, converter: converter}
}

// Extract sends the screenshot to the vision model and parses the reply
// into records. A missing or oversized screenshot yields nothing rather
// than an error so the orchestrator can report a clean failure.
func (e *VisionExtractor) Extract(ctx context.Context, snapshot *lotscan.Snapshot, screenshot []byte) (*lotscan.ExtractionResult, error) {
	if len(screenshot) == 0 || len(screenshot) > MaxScreenshotBytes {
		return nil, nil
	}

	prompt := BuildVisionPrompt(e.pageContext(snapshot))
	result, err := e.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: screenshot}},
				{Text: prompt},
			},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, lotscan.Errorf(lotscan.EUNAVAILABLE, "vision model: %v", err)
	}
	if result == nil {
		return nil, lotscan.Errorf(lotscan.EINTERNAL, "vision model returned nil result")
	}

	records := lotscan.FilterUsable(ParseVehicleReply(result.Text()), snapshot.URL)
	if len(records) == 0 {
		return nil, nil
	}

	return &lotscan.ExtractionResult{
		Records:    records,
		Tier:       lotscan.TierVision,
		Confidence: lotscan.ConfidenceMedium,
	}, nil
}

// pageContext condenses the snapshot HTML for the prompt. Conversion
// failures degrade to no context rather than failing the tier.
func (e *VisionExtractor) pageContext(snapshot *lotscan.Snapshot) string {
	if e.converter == nil || snapshot.HTML == "" {
		return ""
	}
	text, err := e.converter.Convert(snapshot.HTML)
	if err != nil {
		return ""
	}
	return Truncate(text, maxPageContextChars)
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You extract used-vehicle listings from dealership web pages. Reply with JSON only, no commentary.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildVisionPrompt builds the user prompt for screenshot extraction.
// The page context section is omitted when empty.
func BuildVisionPrompt(pageContext string) string {
	var sb strings.Builder
	sb.WriteString("The image is a screenshot of a vehicle dealership inventory page.\n")
	sb.WriteString("List every vehicle visible as a JSON array. Each element:\n")
	sb.WriteString(`{"year": 2020, "make": "Toyota", "model": "Camry", "trim": "", "price": 24999, "mileage": 45000, "vin": "", "stock_number": ""}`)
	sb.WriteString("\n\nRules:\n")
	fmt.Fprintf(&sb, "- year must be between %d and %d\n", lotscan.MinListingYear, lotscan.MaxListingYear)
	sb.WriteString("- price is the asking price in dollars, as a number without symbols\n")
	fmt.Fprintf(&sb, "- mileage must be between %d and %d; omit it when not shown\n", lotscan.MinPlausibleMileage, lotscan.MaxPlausibleMileage)
	sb.WriteString("- use empty strings for unknown text fields and 0 for unknown numbers\n")
	sb.WriteString("- do not invent vehicles; an empty page is an empty array\n")
	if pageContext != "" {
		sb.WriteString("\nText content of the same page, for cross-reference:\n\n")
		sb.WriteString(pageContext)
	}
	return sb.String()
}

// Truncate cuts s to at most n bytes, backing up to the last space so
// a word is never split mid-token.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
