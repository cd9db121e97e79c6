package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"fbexport/pkg/errors"
)

// EndpointStatus is the outcome of one crawled endpoint
type EndpointStatus struct {
	Endpoint string
	Merged   int
	Code     errors.Code
	Elapsed  time.Duration
}

// CrawlProgress prints one line per Graph endpoint as an export walks them.
// It satisfies exporter.Progress.
type CrawlProgress struct {
	mu       sync.Mutex
	out      io.Writer
	planned  int
	started  time.Time
	current  string
	began    time.Time
	finished []EndpointStatus
	now      func() time.Time
}

// NewCrawlProgress reports to out. planned is the number of endpoints the
// export will visit, used for the [n/m] prefix.
func NewCrawlProgress(out io.Writer, planned int) *CrawlProgress {
	p := &CrawlProgress{out: out, planned: planned, now: time.Now}
	p.started = p.now()
	return p
}

func (p *CrawlProgress) EndpointStarted(endpoint string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = endpoint
	p.began = p.now()
	fmt.Fprintf(p.out, "%s %s %s\n", Magenta("→"), p.counter(len(p.finished)+1), endpoint)
}

func (p *CrawlProgress) EndpointFinished(endpoint string, merged int, code errors.Code) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := EndpointStatus{Endpoint: endpoint, Merged: merged, Code: code}
	if endpoint == p.current {
		status.Elapsed = p.now().Sub(p.began)
	}
	p.finished = append(p.finished, status)
	p.current = ""

	mark := Green("✓")
	if !code.Terminal() {
		mark = Red("✗")
	}
	line := fmt.Sprintf("%s %s %s • %d posts • %s", mark, p.counter(len(p.finished)), endpoint, merged, FormatDuration(status.Elapsed))
	if !code.Terminal() {
		line += " • " + Red(code.String())
	}
	fmt.Fprintln(p.out, line)
}

// Finished returns a copy of every endpoint reported so far
func (p *CrawlProgress) Finished() []EndpointStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]EndpointStatus, len(p.finished))
	copy(out, p.finished)
	return out
}

// Summary prints the closing totals for an export
func (p *CrawlProgress) Summary(count int, code errors.Code) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.started)
	if code.Terminal() {
		fmt.Fprintf(p.out, "\n%s Exported %d posts in %s\n", Green("✓"), count, FormatDuration(elapsed))
	} else {
		fmt.Fprintf(p.out, "\n%s Export stopped with %s after %d posts\n", Red("✗"), code, count)
	}
	fmt.Fprintf(p.out, "  %s %s\n", Dim("•"), p.bar())
}

func (p *CrawlProgress) counter(n int) string {
	if p.planned <= 0 {
		return fmt.Sprintf("[%d]", n)
	}
	return fmt.Sprintf("[%d/%d]", n, p.planned)
}

func (p *CrawlProgress) bar() string {
	const width = 20
	if p.planned <= 0 {
		return strings.Repeat("━", width)
	}
	filled := len(p.finished) * width / p.planned
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %d/%d endpoints", strings.Repeat("━", filled), strings.Repeat("─", width-filled), len(p.finished), p.planned)
}

// FormatDuration renders d as 12s, 3m4s or 1h2m
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
