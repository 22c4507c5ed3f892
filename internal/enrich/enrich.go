package enrich

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/timmm229/linkedin-job-tracker/internal/domain"
)

// LinkedIn serves a different page to obvious bots; a browser-like UA keeps
// the public posting markup coming back.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type Status int

const (
	StatusOK Status = iota
	// StatusSkipped means this posting produced no usable data. It is a
	// terminal per-item outcome, not an error: the batch keeps going.
	StatusSkipped
)

// Result is the explicit per-item outcome of one enrichment attempt.
type Result struct {
	Posting domain.Posting
	Status  Status
	Reason  string
}

func skip(url, reason string) Result {
	return Result{Posting: domain.Posting{URL: url}, Status: StatusSkipped, Reason: reason}
}

// A probe is one extraction strategy for one field. Probes run in order and
// the first non-empty answer wins; an exhausted chain records "Not found".
type probe func(doc *goquery.Document) string

func sel(query string) probe {
	return func(doc *goquery.Document) string {
		return cleanText(doc.Find(query).First().Text())
	}
}

var (
	titleProbes = []probe{
		sel(`h1[class*="top-card-layout__title"]`),
		sel("h1"),
		sel("title"),
	}
	companyProbes = []probe{
		sel(`a[class*="topcard__org-name-link"]`),
		sel(`span[class*="topcard__flavor"]`),
		sel(`a[href*="/company/"]`),
	}
	locationProbes = []probe{
		sel(`span[class*="topcard__flavor--bullet"]`),
		cityStateFromBody,
	}
)

var reCityState = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+)*,\s*[A-Z]{2}\b`)

// cityStateFromBody is the last-resort location probe: grab the first
// "City, ST" looking run anywhere in the page text.
func cityStateFromBody(doc *goquery.Document) string {
	return cleanText(reCityState.FindString(doc.Find("body").Text()))
}

// Trailing site-name junk that LinkedIn appends to <title> and sometimes h1.
var reTitleSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`\s*-\s*LinkedIn.*$`),
	regexp.MustCompile(`\s*\|\s*LinkedIn.*$`),
}

// Enricher turns a canonical posting URL into a populated Posting by fetching
// and parsing the public posting page. Priority is left unset; the classifier
// owns that. Pacing between calls is the caller's concern.
type Enricher struct {
	hc        *http.Client
	userAgent string
}

func New() *Enricher {
	return &Enricher{
		hc:        &http.Client{Timeout: 10 * time.Second},
		userAgent: browserUserAgent,
	}
}

// Fetch issues one GET and extracts title/company/location. Every failure
// mode (transport, non-2xx, unparseable HTML) degrades to a skip result.
func (e *Enricher) Fetch(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return skip(url, err.Error())
	}
	req.Header.Set("User-Agent", e.userAgent)

	res, err := e.hc.Do(req)
	if err != nil {
		return skip(url, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return skip(url, fmt.Sprintf("status %d", res.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return skip(url, fmt.Sprintf("parse html: %v", err))
	}

	p := domain.Posting{
		URL:      url,
		Title:    truncate(stripTitleSuffixes(firstHit(doc, titleProbes)), domain.MaxTitleLen),
		Company:  truncate(firstHit(doc, companyProbes), domain.MaxCompanyLen),
		Location: truncate(firstHit(doc, locationProbes), domain.MaxLocationLen),
	}
	return Result{Posting: p, Status: StatusOK}
}

func firstHit(doc *goquery.Document, probes []probe) string {
	for _, p := range probes {
		if t := p(doc); t != "" {
			return t
		}
	}
	return domain.NotFound
}

func stripTitleSuffixes(title string) string {
	for _, re := range reTitleSuffixes {
		title = re.ReplaceAllString(title, "")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NotFound
	}
	return title
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// truncate caps s at max runes. Applied after cleanup so the limit always
// lands on the cleaned value.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
