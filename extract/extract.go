// Package extract turns a fetched search-results page into raw candidates.
//
// Four strategies run strictly in order, stopping at the first that yields
// at least one candidate: structured markup (goquery), a strict URL-shape
// regex, a loose regex, and finally the adapter's static known-title table.
// The chain exists because the upstream HTML is unstable across page
// revisions; each step trades precision for resilience.
package extract

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookharvest/models"
	"bookharvest/relevance"
	"bookharvest/sites"
)

// Strategy labels, reported by Extract for logging and metrics.
const (
	StrategyStructured = "structured"
	StrategyStrict     = "strict_pattern"
	StrategyLoose      = "loose_pattern"
	StrategyKnownTitle = "known_title"
)

// Extract parses the page with the adapter's strategies and returns the
// candidates of the first non-empty strategy along with its label. It never
// fails; a total miss returns (nil, "").
//
// Candidates carry zero relevance except known-title records, which are
// pinned to relevance.KnownTitleScore.
func Extract(page string, a *sites.Adapter, task models.SearchTask) ([]models.Candidate, string) {
	if out := structured(page, a); len(out) > 0 {
		return out, StrategyStructured
	}
	if out := byPattern(page, a, a.StrictPattern); len(out) > 0 {
		return out, StrategyStrict
	}
	if out := byPattern(page, a, a.LoosePattern); len(out) > 0 {
		return out, StrategyLoose
	}
	if out := knownTitles(a, task); len(out) > 0 {
		return out, StrategyKnownTitle
	}
	return nil, ""
}

func structured(page string, a *sites.Adapter) []models.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var out []models.Candidate
	doc.Find(a.Selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if a.HrefFilter != nil && !a.HrefFilter.MatchString(href) {
			return
		}
		if c, ok := newCandidate(a, sel.Text(), href); ok {
			out = append(out, c)
		}
	})
	return out
}

func byPattern(page string, a *sites.Adapter, pattern *regexp.Regexp) []models.Candidate {
	if pattern == nil {
		return nil
	}

	var out []models.Candidate
	for _, m := range pattern.FindAllStringSubmatch(page, -1) {
		if len(m) < 3 {
			continue
		}
		if c, ok := newCandidate(a, m[2], m[1]); ok {
			out = append(out, c)
		}
	}
	return out
}

func knownTitles(a *sites.Adapter, task models.SearchTask) []models.Candidate {
	query := strings.ToLower(strings.TrimSpace(task.Query))
	author := strings.ToLower(strings.TrimSpace(task.Author))

	// Sorted keys keep the emitted order stable when several entries match.
	phrases := make([]string, 0, len(a.KnownTitles))
	for phrase := range a.KnownTitles {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)

	var out []models.Candidate
	for _, phrase := range phrases {
		key := strings.ToLower(phrase)
		if !phraseMatches(key, query) && !phraseMatches(key, author) {
			continue
		}
		record := a.KnownTitles[phrase]
		out = append(out, models.Candidate{
			Site:        a.Name,
			Title:       record.Title,
			DetailURL:   record.DetailURL,
			DownloadURL: record.DownloadURL,
			Relevance:   relevance.KnownTitleScore,
		})
	}
	return out
}

func phraseMatches(phrase, input string) bool {
	if input == "" {
		return false
	}
	return strings.Contains(input, phrase) || strings.Contains(phrase, input)
}

// newCandidate cleans the raw anchor text, rejects chrome, and resolves the
// href to an absolute URL. Garbage is dropped here rather than in scoring
// because it would otherwise pollute deduplication.
func newCandidate(a *sites.Adapter, rawTitle, href string) (models.Candidate, bool) {
	title := CleanTitle(rawTitle)
	if title == "" || relevance.NonSpaceRunes(title) < relevance.MinTitleRunes {
		return models.Candidate{}, false
	}
	if strings.EqualFold(title, a.Name) {
		return models.Candidate{}, false
	}

	detailURL := a.ResolveURL(href)
	if detailURL == "" {
		return models.Candidate{}, false
	}

	c := models.Candidate{
		Site:      a.Name,
		Title:     title,
		DetailURL: detailURL,
	}
	if a.DeriveDownload != nil {
		c.DownloadURL = a.DeriveDownload(detailURL)
	}
	return c, true
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// CleanTitle strips markup and entities from anchor content and collapses
// internal whitespace.
func CleanTitle(raw string) string {
	clean := tagPattern.ReplaceAllString(raw, "")
	clean = html.UnescapeString(clean)
	return strings.Join(strings.Fields(clean), " ")
}
