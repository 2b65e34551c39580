package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/lotscan/lotscan"
	"google.golang.org/genai"
)

// maxLearnHTMLChars bounds the HTML excerpt sent for selector learning.
const maxLearnHTMLChars = 8000

// LearnSelectors asks the model to propose a CSS selector pattern for
// the page's listing containers, so future visits can skip the vision
// tier. recordCount tells the model how many listings extraction found,
// anchoring the proposal against hallucinated containers.
func (e *VisionExtractor) LearnSelectors(ctx context.Context, snapshot *lotscan.Snapshot, recordCount int) (*lotscan.SelectorPattern, error) {
	if snapshot.HTML == "" {
		return nil, lotscan.Errorf(lotscan.EINVALID, "snapshot has no HTML")
	}

	prompt := BuildLearnPrompt(Truncate(snapshot.HTML, maxLearnHTMLChars), recordCount)
	result, err := e.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, lotscan.Errorf(lotscan.EUNAVAILABLE, "selector learning: %v", err)
	}
	if result == nil {
		return nil, lotscan.Errorf(lotscan.EINTERNAL, "selector learning returned nil result")
	}

	return ParseSelectorReply(result.Text())
}

// BuildLearnPrompt builds the user prompt for selector learning.
func BuildLearnPrompt(htmlExcerpt string, recordCount int) string {
	var sb strings.Builder
	sb.WriteString("Below is HTML from a vehicle dealership inventory page.\n")
	if recordCount > 0 {
		fmt.Fprintf(&sb, "The page shows %d vehicle listings.\n", recordCount)
	}
	sb.WriteString("Identify the repeating container element that wraps each listing,\n")
	sb.WriteString("and CSS selectors within one container for any fields present.\n\n")
	sb.WriteString("Reply with a single JSON object:\n")
	sb.WriteString(`{"container": ".vehicle-card", "fields": {"price": ".price", "mileage": ".mileage", "vin": ".vin"}}`)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- container must match every listing, not just one\n")
	sb.WriteString("- field selectors are relative to the container\n")
	sb.WriteString("- omit fields you cannot locate; never guess selectors\n\n")
	sb.WriteString("HTML:\n\n")
	sb.WriteString(htmlExcerpt)
	return sb.String()
}
