// Package analyzer sends page HTML to a language model and turns the
// free-form response into an AnalysisResult.
//
// The model's output is semi-trusted text: the analyzer strips one known
// code-fence wrapper, attempts a strict JSON parse, and on any failure
// returns a tagged error result instead of aborting, so the surrounding run
// can continue with a degraded entry.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/sitescan/pkg/llm"
	"github.com/entrhq/sitescan/pkg/logging"
)

// DefaultHTMLWindow is the fallback prompt window when none is configured.
const DefaultHTMLWindow = 8000

// analysisPrompt is the fixed instruction block prepended to the page HTML.
const analysisPrompt = `You are analyzing a website page. Identify:

1. Page type (homepage, product page, cart, search results, etc.).
2. All user actions (buttons, forms, links), with their purpose.
3. If there is a search function, give the form action URL and parameter names. Look for search inputs by type="search" or common parameter names such as q, query, s, or search.

IMPORTANT: Return ONLY valid JSON with no markdown formatting, no code blocks, no explanations, and no additional text.

Return JSON with keys: page_type, actions[] (each with type, purpose, details), search_form{action, params[]}.

Example response format:
{"page_type": "homepage", "actions": [], "search_form": null}`

// Analyzer classifies pages through an LLM provider.
type Analyzer struct {
	provider llm.Provider
	log      *logging.Logger
	window   int
	encoder  *tiktoken.Tiktoken
}

// New creates an Analyzer. window is the maximum number of characters of
// cleaned page HTML embedded in the prompt; content past the window is
// never sent, which is a known and accepted limitation.
func New(provider llm.Provider, log *logging.Logger, window int) *Analyzer {
	if window <= 0 {
		window = DefaultHTMLWindow
	}

	// Token estimates are debug-only; run without them if the encoding
	// cannot be loaded (e.g. offline).
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoder = nil
	}

	return &Analyzer{
		provider: provider,
		log:      log,
		window:   window,
		encoder:  encoder,
	}
}

// Analyze classifies one page. pageID is the URL, possibly annotated (e.g.
// "https://example.com (search results)"); rawHTML is the rendered source.
//
// A non-nil error signals that the result is a degraded error entry the
// caller should record as a run fault. The AnalysisResult is always usable
// and is stored in the report either way.
func (a *Analyzer) Analyze(ctx context.Context, pageID, rawHTML string) (AnalysisResult, error) {
	a.log.Infof("Analyzing page: %s", pageID)

	cleaned, title := cleanHTML(rawHTML)
	if title != "" {
		a.log.Debugf("Page title: %s", title)
	}

	prompt := analysisPrompt + "\n\nHTML:\n" + truncate(cleaned, a.window)
	if a.encoder != nil {
		a.log.Debugf("Prompt size: ~%d tokens", len(a.encoder.Encode(prompt, nil, nil)))
	}

	resp, err := a.provider.Complete(ctx, []*llm.Message{llm.NewUserMessage(prompt)})
	if err != nil {
		a.log.Errorf("Error analyzing page %s: %v", pageID, err)
		return ErrorResult(fmt.Sprintf("Failed to analyze page: %s", err)),
			fmt.Errorf("analyze %s: %w", pageID, err)
	}

	text := stripCodeFence(strings.TrimSpace(resp.Content))
	a.log.Debugf("LLM response: %s", text)

	var result AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		a.log.Errorf("Failed to parse JSON from LLM response: %v", err)
		a.log.Errorf("Raw LLM response: %s", resp.Content)
		return ErrorResult("Failed to parse LLM output"),
			fmt.Errorf("parse LLM output for %s: %w", pageID, err)
	}

	return result, nil
}

// stripCodeFence extracts the payload from a ```json code fence when the
// model ignores the no-markdown instruction. Anything else passes through
// unchanged.
func stripCodeFence(text string) string {
	const marker = "```json"

	start := strings.Index(text, marker)
	if start == -1 {
		return text
	}

	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return text
	}

	return strings.TrimSpace(rest[:end])
}
