// Package runner sequences one sitescan run: analyze the target page, and
// when a search form is detected, drive one end-to-end test of the search
// flow and analyze the results page.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/sitescan/pkg/analyzer"
	"github.com/entrhq/sitescan/pkg/browser"
	"github.com/entrhq/sitescan/pkg/config"
	"github.com/entrhq/sitescan/pkg/logging"
	"github.com/entrhq/sitescan/pkg/report"
)

// Page is the browser surface the runner drives. browser.Session implements
// it; tests substitute fakes.
type Page interface {
	// Navigate loads the given URL and waits for the page to load.
	Navigate(url string) error

	// Content returns the rendered HTML of the current page.
	Content() (string, error)

	// Count returns the number of elements matching the selector.
	Count(selector string) (int, error)

	// Fill sets the value of the input matching the selector.
	Fill(selector, value string) error

	// PressEnter dispatches an Enter key press to the page.
	PressEnter() error

	// WaitForLoad waits until the page reaches load completion after a
	// navigation, bounded by the session's configured timeout.
	WaitForLoad() error

	// Sleep pauses for the given fixed duration.
	Sleep(d time.Duration)

	// URL returns the current page URL.
	URL() string
}

// Analyzer classifies a page's HTML. A non-nil error marks the returned
// result as a degraded error entry to be recorded as a fault.
type Analyzer interface {
	Analyze(ctx context.Context, pageID, html string) (analyzer.AnalysisResult, error)
}

// Runner owns the report for one run and sequences the pipeline steps.
type Runner struct {
	page     Page
	analyzer Analyzer
	cfg      *config.Config
	log      *logging.Logger
}

// New creates a Runner.
func New(page Page, a Analyzer, cfg *config.Config, log *logging.Logger) *Runner {
	return &Runner{
		page:     page,
		analyzer: a,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes the pipeline against the configured target URL. It always
// returns a report, possibly containing degraded error entries; the Faults
// value determines the process exit status.
func (r *Runner) Run(ctx context.Context) (*report.RunReport, *Faults) {
	rep := report.New()
	faults := &Faults{}
	url := r.cfg.TargetURL

	r.log.Infof("Navigating to %s", url)
	if err := r.page.Navigate(url); err != nil {
		r.log.Errorf("Failed to load %s: %v", url, err)
		faults.Record(fmt.Errorf("navigate %s: %w", url, err))
		rep.Pages[url] = analyzer.ErrorResult(fmt.Sprintf("Failed to load page: %s", err))
		return rep, faults
	}

	html, err := r.page.Content()
	if err != nil {
		r.log.Errorf("Failed to read content of %s: %v", url, err)
		faults.Record(fmt.Errorf("read content of %s: %w", url, err))
		rep.Pages[url] = analyzer.ErrorResult(fmt.Sprintf("Failed to read page content: %s", err))
		return rep, faults
	}

	result, err := r.analyzer.Analyze(ctx, url, html)
	faults.Record(err)
	rep.Pages[url] = result

	if form, detected := result.SearchForm(); detected {
		rep.SearchDetected = true
		rep.SearchDetails = form
		r.testSearchForm(ctx, form, rep, faults)
	}

	return rep, faults
}

// testSearchForm runs one realistic search interaction: fill the input named
// by the form's first parameter, submit with Enter, and analyze the page the
// search lands on. A missing input is a soft skip; everything else that goes
// wrong is recorded as both a fault and an error entry in the report.
func (r *Runner) testSearchForm(ctx context.Context, form *analyzer.SearchForm, rep *report.RunReport, faults *Faults) {
	if len(form.Params) == 0 {
		err := fmt.Errorf("search form has no parameters")
		r.log.Errorf("Error during search form interaction: %v", err)
		r.log.Errorf("Search form details: %+v", form)
		faults.Record(err)
		rep.SearchTestResults = analyzer.ErrorResult(err.Error())
		return
	}

	selector := browser.SearchInputSelector(form.Params[0])
	r.log.Infof("Looking for search input with selector: %s", selector)

	count, err := r.page.Count(selector)
	if err != nil {
		r.recordInteractionFailure(err, form, rep, faults)
		return
	}
	if count == 0 {
		// Soft skip: logged, not a fault, no search test results.
		r.log.Warnf("No search input found with selector: %s", selector)
		return
	}

	r.log.Infof("Found search input, filling with: %s", r.cfg.SearchQuery)
	if err := r.page.Fill(selector, r.cfg.SearchQuery); err != nil {
		r.recordInteractionFailure(err, form, rep, faults)
		return
	}
	if err := r.page.PressEnter(); err != nil {
		r.recordInteractionFailure(err, form, rep, faults)
		return
	}
	if err := r.page.WaitForLoad(); err != nil {
		r.recordInteractionFailure(err, form, rep, faults)
		return
	}

	// Late-loading results can keep rendering after the load state fires.
	r.page.Sleep(r.cfg.SettleDelay.Std())

	html, err := r.readContentWithRetry()
	if err != nil {
		msg := fmt.Sprintf("Failed to capture search results: %s", err)
		r.log.Errorf("%s", msg)
		faults.Record(fmt.Errorf("capture search results: %w", err))
		rep.SearchTestResults = analyzer.ErrorResult(msg)
		return
	}

	result, err := r.analyzer.Analyze(ctx, r.cfg.TargetURL+" (search results)", html)
	faults.Record(err)
	rep.SearchTestResults = result
}

// readContentWithRetry reads the current page's HTML, retrying exactly once
// after a fixed delay if the first read fails mid-transition.
func (r *Runner) readContentWithRetry() (string, error) {
	html, err := r.page.Content()
	if err == nil {
		return html, nil
	}

	r.log.Warnf("Failed to read search results page, retrying once: %v", err)
	r.page.Sleep(r.cfg.RetryDelay.Std())

	return r.page.Content()
}

// recordInteractionFailure handles errors from the locate/fill/submit/wait
// sequence: logged with the offending form, recorded as a fault, and stored
// as the search test's error entry. The run continues.
func (r *Runner) recordInteractionFailure(err error, form *analyzer.SearchForm, rep *report.RunReport, faults *Faults) {
	r.log.Errorf("Error during search form interaction: %v", err)
	r.log.Errorf("Search form details: %+v", form)
	faults.Record(fmt.Errorf("search form interaction: %w", err))
	rep.SearchTestResults = analyzer.ErrorResult(err.Error())
}
