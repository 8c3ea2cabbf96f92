package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/sitescan/pkg/analyzer"
	"github.com/entrhq/sitescan/pkg/config"
	"github.com/entrhq/sitescan/pkg/logging"
)

type contentResult struct {
	html string
	err  error
}

// fakePage scripts the browser surface and records every interaction.
type fakePage struct {
	navigateErr error
	contents    []contentResult
	contentIdx  int
	counts      map[string]int
	countErr    error
	fillErr     error
	pressErr    error
	waitErr     error

	navigated []string
	filled    map[string]string
	pressed   int
	waited    int
	sleeps    []time.Duration
}

func newFakePage() *fakePage {
	return &fakePage{
		counts: make(map[string]int),
		filled: make(map[string]string),
	}
}

func (p *fakePage) Navigate(url string) error {
	p.navigated = append(p.navigated, url)
	return p.navigateErr
}

func (p *fakePage) Content() (string, error) {
	if p.contentIdx >= len(p.contents) {
		return "", fmt.Errorf("unexpected Content() call %d", p.contentIdx)
	}
	c := p.contents[p.contentIdx]
	p.contentIdx++
	return c.html, c.err
}

func (p *fakePage) Count(selector string) (int, error) {
	if p.countErr != nil {
		return 0, p.countErr
	}
	return p.counts[selector], nil
}

func (p *fakePage) Fill(selector, value string) error {
	if p.fillErr != nil {
		return p.fillErr
	}
	p.filled[selector] = value
	return nil
}

func (p *fakePage) PressEnter() error {
	if p.pressErr != nil {
		return p.pressErr
	}
	p.pressed++
	return nil
}

func (p *fakePage) WaitForLoad() error {
	if p.waitErr != nil {
		return p.waitErr
	}
	p.waited++
	return nil
}

func (p *fakePage) Sleep(d time.Duration) {
	p.sleeps = append(p.sleeps, d)
}

func (p *fakePage) URL() string { return "https://example.com" }

type analysis struct {
	result analyzer.AnalysisResult
	err    error
}

// fakeAnalyzer pops scripted analyses and records the page IDs it saw.
type fakeAnalyzer struct {
	analyses []analysis
	idx      int
	pageIDs  []string
	htmls    []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, pageID, html string) (analyzer.AnalysisResult, error) {
	a.pageIDs = append(a.pageIDs, pageID)
	a.htmls = append(a.htmls, html)
	if a.idx >= len(a.analyses) {
		return analyzer.ErrorResult("unexpected Analyze call"), fmt.Errorf("unexpected Analyze call %d", a.idx)
	}
	next := a.analyses[a.idx]
	a.idx++
	return next.result, next.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.TargetURL = "https://example.com"
	cfg.SettleDelay = config.Duration(10 * time.Millisecond)
	cfg.RetryDelay = config.Duration(20 * time.Millisecond)
	return cfg
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, _ := logging.NewLogger("runner-test")
	return log
}

func searchFormResult(params ...string) analyzer.AnalysisResult {
	list := make([]any, 0, len(params))
	for _, p := range params {
		list = append(list, p)
	}
	return analyzer.AnalysisResult{
		"page_type": "homepage",
		"actions":   []any{},
		"search_form": map[string]any{
			"action": "/search",
			"params": list,
		},
	}
}

func TestRunWithoutSearchForm(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{{html: "<html></html>"}}

	fa := &fakeAnalyzer{analyses: []analysis{
		{result: analyzer.AnalysisResult{"page_type": "homepage", "actions": []any{}, "search_form": nil}},
	}}

	rep, faults := New(page, fa, testConfig(), testLogger(t)).Run(context.Background())

	assert.False(t, faults.HasAny())
	assert.False(t, rep.SearchDetected)
	assert.Nil(t, rep.SearchDetails)
	assert.Nil(t, rep.SearchTestResults)
	assert.Equal(t, "homepage", rep.Pages["https://example.com"]["page_type"])

	// No interaction was attempted.
	assert.Empty(t, page.filled)
	assert.Zero(t, page.pressed)
	assert.Len(t, fa.pageIDs, 1)
}

func TestRunSearchFlowSuccess(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{
		{html: "<html>base</html>"},
		{html: "<html>results</html>"},
	}
	page.counts[`input[name="q"]`] = 1

	fa := &fakeAnalyzer{analyses: []analysis{
		{result: searchFormResult("q", "lang")},
		{result: analyzer.AnalysisResult{"page_type": "search results", "actions": []any{}, "search_form": nil}},
	}}

	cfg := testConfig()
	rep, faults := New(page, fa, cfg, testLogger(t)).Run(context.Background())

	assert.False(t, faults.HasAny())
	assert.True(t, rep.SearchDetected)
	require.NotNil(t, rep.SearchDetails)
	assert.Equal(t, "/search", rep.SearchDetails.Action)
	assert.Equal(t, []string{"q", "lang"}, rep.SearchDetails.Params)
	assert.Equal(t, "search results", rep.SearchTestResults["page_type"])

	// Only the first declared parameter drives the interaction.
	assert.Equal(t, "test", page.filled[`input[name="q"]`])
	assert.NotContains(t, page.filled, `input[name="lang"]`)
	assert.Equal(t, 1, page.pressed)
	assert.Equal(t, 1, page.waited)
	assert.Contains(t, page.sleeps, cfg.SettleDelay.Std())

	require.Len(t, fa.pageIDs, 2)
	assert.Equal(t, "https://example.com (search results)", fa.pageIDs[1])
	assert.Equal(t, "<html>results</html>", fa.htmls[1])
}

func TestRunSoftSkipWhenInputMissing(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{{html: "<html>base</html>"}}
	// counts defaults to zero matches for every selector

	fa := &fakeAnalyzer{analyses: []analysis{
		{result: searchFormResult("q")},
	}}

	rep, faults := New(page, fa, testConfig(), testLogger(t)).Run(context.Background())

	assert.False(t, faults.HasAny(), "missing input is a soft skip, not a fault")
	assert.True(t, rep.SearchDetected)
	assert.Nil(t, rep.SearchTestResults)
	assert.Empty(t, page.filled)
	assert.Len(t, fa.pageIDs, 1)
}

func TestRunContentRetrySucceeds(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{
		{html: "<html>base</html>"},
		{err: errors.New("page mid-transition")},
		{html: "<html>results</html>"},
	}
	page.counts[`input[name="q"]`] = 1

	fa := &fakeAnalyzer{analyses: []analysis{
		{result: searchFormResult("q")},
		{result: analyzer.AnalysisResult{"page_type": "search results", "search_form": nil}},
	}}

	cfg := testConfig()
	rep, faults := New(page, fa, cfg, testLogger(t)).Run(context.Background())

	assert.False(t, faults.HasAny(), "a recovered retry must not flag the run")
	assert.Equal(t, "search results", rep.SearchTestResults["page_type"])
	assert.Equal(t, 3, page.contentIdx)
	assert.Contains(t, page.sleeps, cfg.RetryDelay.Std())
	assert.Equal(t, "<html>results</html>", fa.htmls[1])
}

func TestRunContentRetryExhausted(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{
		{html: "<html>base</html>"},
		{err: errors.New("read failed")},
		{err: errors.New("read failed again")},
	}
	page.counts[`input[name="q"]`] = 1

	fa := &fakeAnalyzer{analyses: []analysis{
		{result: searchFormResult("q")},
	}}

	rep, faults := New(page, fa, testConfig(), testLogger(t)).Run(context.Background())

	assert.True(t, faults.HasAny())
	require.NotNil(t, rep.SearchTestResults)
	assert.Contains(t, rep.SearchTestResults["error"], "Failed to capture search results:")

	// Exactly one retry: base read plus two attempts, never a third.
	assert.Equal(t, 3, page.contentIdx)
	assert.Len(t, fa.pageIDs, 1, "no analysis of a page we could not read")
}

func TestRunInteractionFailure(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{{html: "<html>base</html>"}}
	page.counts[`input[name="q"]`] = 1
	page.fillErr = errors.New("element detached")

	fa := &fakeAnalyzer{analyses: []analysis{
		{result: searchFormResult("q")},
	}}

	rep, faults := New(page, fa, testConfig(), testLogger(t)).Run(context.Background())

	assert.True(t, faults.HasAny())
	require.NotNil(t, rep.SearchTestResults)
	assert.Equal(t, "element detached", rep.SearchTestResults["error"])
	assert.Zero(t, page.pressed)
}

func TestRunSearchFormWithoutParams(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{{html: "<html>base</html>"}}

	fa := &fakeAnalyzer{analyses: []analysis{
		{result: searchFormResult()},
	}}

	rep, faults := New(page, fa, testConfig(), testLogger(t)).Run(context.Background())

	assert.True(t, faults.HasAny())
	require.NotNil(t, rep.SearchTestResults)
	assert.Contains(t, rep.SearchTestResults["error"], "no parameters")
}

func TestRunAnalyzerFaultPropagates(t *testing.T) {
	page := newFakePage()
	page.contents = []contentResult{{html: "<html>base</html>"}}

	fa := &fakeAnalyzer{analyses: []analysis{
		{
			result: analyzer.ErrorResult("Failed to parse LLM output"),
			err:    errors.New("parse LLM output: invalid character"),
		},
	}}

	rep, faults := New(page, fa, testConfig(), testLogger(t)).Run(context.Background())

	assert.True(t, faults.HasAny())
	assert.Equal(t, "Failed to parse LLM output", rep.Pages["https://example.com"]["error"])
	assert.False(t, rep.SearchDetected)
}

func TestRunNavigateFailure(t *testing.T) {
	page := newFakePage()
	page.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	fa := &fakeAnalyzer{}

	rep, faults := New(page, fa, testConfig(), testLogger(t)).Run(context.Background())

	assert.True(t, faults.HasAny())
	assert.Contains(t, rep.Pages["https://example.com"]["error"], "Failed to load page:")
	assert.Empty(t, fa.pageIDs)
}
