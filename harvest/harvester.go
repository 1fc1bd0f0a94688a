// Package harvest drives one search task end to end: fetch the search page,
// extract candidates, score them, and return a ranked, deduplicated short
// list. Upstream failures of any kind collapse into an empty result; only
// caller defects (unknown site, empty query) surface as errors.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"bookharvest/config"
	"bookharvest/extract"
	"bookharvest/fetch"
	"bookharvest/models"
	"bookharvest/relevance"
	"bookharvest/sites"
)

// ErrEmptyQuery is returned when a task carries no usable query text.
var ErrEmptyQuery = errors.New("harvest: query must not be empty")

// Harvester runs search tasks. Safe for concurrent use: per-task state is
// local and the adapter registry is read-only.
type Harvester struct {
	cfg     *config.Config
	client  *fetch.Client
	cache   *expirable.LRU[string, []models.Candidate]
	Metrics *Metrics
}

// New builds a harvester from cfg.
func New(cfg *config.Config) (*Harvester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("harvest config: %w", err)
	}

	metrics := NewMetrics()
	client := fetch.New(cfg)
	client.OnRetry(metrics.IncRetry)

	h := &Harvester{
		cfg:     cfg,
		client:  client,
		Metrics: metrics,
	}
	if cfg.CacheSize > 0 {
		h.cache = expirable.NewLRU[string, []models.Candidate](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return h, nil
}

// WithTransport replaces the fetch transport. Used by tests.
func (h *Harvester) WithTransport(rt http.RoundTripper) {
	h.client.WithTransport(rt)
}

// Harvest executes one task and returns the ranked candidates. The slice is
// never nil on success; "no results" and "site unreachable" both yield an
// empty list.
func (h *Harvester) Harvest(ctx context.Context, task models.SearchTask) ([]models.Candidate, error) {
	if strings.TrimSpace(task.Query) == "" {
		return nil, ErrEmptyQuery
	}
	adapter, err := sites.Lookup(task.Site)
	if err != nil {
		return nil, err
	}

	key := task.Key()
	if h.cache != nil {
		if cached, ok := h.cache.Get(key); ok {
			h.Metrics.IncCacheHit()
			return cached, nil
		}
	}

	start := time.Now()
	h.Metrics.IncHarvest(adapter.ID)
	defer func() {
		h.Metrics.ObserveDuration(time.Since(start))
	}()

	searchURL := adapter.SearchURL(searchKeyword(task, adapter))
	page, err := h.client.Get(ctx, searchURL, adapter.Headers, h.cfg.MaxRetries)
	if err != nil {
		h.Metrics.IncError(fetch.Label(err))
		slog.Warn("search fetch failed",
			slog.String("site", adapter.ID),
			slog.String("url", searchURL),
			slog.Any("error", err),
		)
		return []models.Candidate{}, nil
	}

	candidates, strategy := extract.Extract(page, adapter, task)
	if len(candidates) == 0 {
		slog.Info("no candidates extracted",
			slog.String("site", adapter.ID),
			slog.String("query", task.Query),
		)
		return []models.Candidate{}, nil
	}
	h.Metrics.IncStrategy(strategy)

	if strategy != extract.StrategyKnownTitle {
		scored := make([]models.Candidate, 0, len(candidates))
		for _, c := range candidates {
			c.Relevance = relevance.Score(c.Title, task.Query, task.Author)
			if c.Relevance < h.cfg.MinRelevance {
				continue
			}
			scored = append(scored, c)
		}
		candidates = scored
	}

	ranked := relevance.Rank(candidates, h.cfg.ResultLimit)
	h.discoverDownloads(ctx, adapter, ranked)
	if ranked == nil {
		ranked = []models.Candidate{}
	}

	h.Metrics.AddCandidates(len(ranked))
	if h.cache != nil {
		h.cache.Add(key, ranked)
	}

	slog.Info("harvest complete",
		slog.String("site", adapter.ID),
		slog.String("strategy", strategy),
		slog.Int("candidates", len(ranked)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return ranked, nil
}

// searchKeyword picks the text sent to the site: a well-formed ISBN wins
// over free text, and some adapters search better with the author appended.
func searchKeyword(task models.SearchTask, adapter *sites.Adapter) string {
	if isbn := NormalizeISBN(task.ISBN); isbn != "" {
		return isbn
	}
	keyword := strings.TrimSpace(task.Query)
	if author := strings.TrimSpace(task.Author); author != "" && adapter.QueryWithAuthor {
		keyword += " " + author
	}
	return keyword
}

// NormalizeISBN strips separators and returns the bare ISBN-10/13, or ""
// when the input is absent or malformed.
func NormalizeISBN(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	switch len(cleaned) {
	case 10:
		for i, r := range cleaned {
			if r >= '0' && r <= '9' {
				continue
			}
			// ISBN-10 allows X as the final check digit.
			if i == 9 && (r == 'X' || r == 'x') {
				continue
			}
			return ""
		}
		return strings.ToUpper(cleaned)
	case 13:
		for _, r := range cleaned {
			if r < '0' || r > '9' {
				return ""
			}
		}
		return cleaned
	default:
		return ""
	}
}

// discoverDownloads fills DownloadURL for adapters without a derivation rule
// by fetching each detail page once, without retry: a miss here is cheap.
func (h *Harvester) discoverDownloads(ctx context.Context, adapter *sites.Adapter, ranked []models.Candidate) {
	if adapter.DownloadPattern == nil {
		return
	}
	for i := range ranked {
		if ranked[i].DownloadURL != "" {
			continue
		}
		page, err := h.client.Get(ctx, ranked[i].DetailURL, adapter.Headers, 0)
		if err != nil {
			h.Metrics.IncError(fetch.Label(err))
			slog.Debug("detail fetch failed",
				slog.String("url", ranked[i].DetailURL),
				slog.Any("error", err),
			)
			continue
		}
		m := adapter.DownloadPattern.FindStringSubmatch(page)
		if m == nil {
			continue
		}
		ranked[i].DownloadURL = adapter.ResolveURL(m[1])
	}
}
