// Package sites holds the static adapter descriptors for the supported
// catalog sources. Adapters are loaded at process start and never mutated;
// adding a source is a data change, not new control flow.
package sites

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrUnknownSite is returned when a task names a site outside the registry.
// It indicates a caller defect, not an upstream condition.
var ErrUnknownSite = errors.New("sites: unknown target site")

// KnownTitle is a pre-vetted candidate record used as the last-resort
// extraction strategy when live parsing finds nothing.
type KnownTitle struct {
	Title       string
	DetailURL   string
	DownloadURL string
}

// Adapter describes how to query and parse one external catalog.
type Adapter struct {
	// ID is the registry key used in SearchTask.Site.
	ID string
	// Name is the display name attached to candidates.
	Name string
	// BaseURL is the origin relative hrefs resolve against.
	BaseURL string

	searchTemplate string

	// Selector matches listing anchors in well-formed result markup.
	Selector string
	// HrefFilter, when set, further restricts which selected anchors count
	// as listings (35ppt anchors must end in /<digits>.html).
	HrefFilter *regexp.Regexp

	// StrictPattern and LoosePattern are the regex fallbacks applied to raw
	// HTML when the structured pass yields nothing. Both capture
	// (href, inner HTML).
	StrictPattern *regexp.Regexp
	LoosePattern  *regexp.Regexp

	// DeriveDownload maps a detail URL to a download URL without a second
	// fetch. Nil when the site has no predictable download location.
	DeriveDownload func(detailURL string) string
	// DownloadPattern, when set, is scanned over the detail page to discover
	// a download link for adapters without a derivation rule.
	DownloadPattern *regexp.Regexp

	// Headers emulate a standard browser for this origin.
	Headers map[string]string

	// QueryWithAuthor appends the author to the search keyword when present.
	QueryWithAuthor bool

	// KnownTitles maps canonical query phrases to vetted records.
	KnownTitles map[string]KnownTitle
}

// SearchURL builds the search page URL for a keyword.
func (a *Adapter) SearchURL(keyword string) string {
	return fmt.Sprintf(a.searchTemplate, url.QueryEscape(keyword))
}

// ResolveURL resolves an href against the adapter origin.
func (a *Adapter) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(a.BaseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func browserHeaders(referer string) map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Referer":                   referer,
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
	}
}

var ppt35ID = regexp.MustCompile(`/(\d+)\.html$`)

var registry = map[string]*Adapter{
	"xiaolipan": {
		ID:             "xiaolipan",
		Name:           "小立盘",
		BaseURL:        "https://www.xiaolipan.com",
		searchTemplate: "https://www.xiaolipan.com/search.html?keyword=%s",
		Selector:       `div.book-item a[href*="/p/"]`,
		StrictPattern:  regexp.MustCompile(`<a[^>]*href="(/p/\d+\.html)"[^>]*>(.*?)</a>`),
		LoosePattern:   regexp.MustCompile(`<a[^>]*href="(/p/[^"]*)"[^>]*>(.*?)</a>`),
		DeriveDownload: func(detailURL string) string {
			if !strings.Contains(detailURL, "/p/") {
				return ""
			}
			return strings.Replace(detailURL, "/p/", "/download/", 1)
		},
		Headers: browserHeaders("https://www.xiaolipan.com/"),
		KnownTitles: map[string]KnownTitle{
			"曾国藩传": {
				Title:       "曾国藩传（张宏杰）",
				DetailURL:   "https://www.xiaolipan.com/p/1496858.html",
				DownloadURL: "https://www.xiaolipan.com/download/1496858.html",
			},
			"红楼梦": {
				Title:       "红楼梦（脂砚斋评本）",
				DetailURL:   "https://www.xiaolipan.com/p/1287345.html",
				DownloadURL: "https://www.xiaolipan.com/download/1287345.html",
			},
		},
	},
	"book5678": {
		ID:              "book5678",
		Name:            "Book5678",
		BaseURL:         "https://book5678.com",
		searchTemplate:  "https://book5678.com/search.php?q=%s",
		Selector:        `div.list-item h3 a[href*="/post/"]`,
		StrictPattern:   regexp.MustCompile(`<a[^>]*href="(/post/\d+\.html)"[^>]*>(.*?)</a>`),
		LoosePattern:    regexp.MustCompile(`<a[^>]*href="(/post/[^"]*)"[^>]*>(.*?)</a>`),
		DownloadPattern: regexp.MustCompile(`<a[^>]*href="((?:https?://[^"]+)?/download/[^"]+)"`),
		Headers:         browserHeaders("https://book5678.com/"),
		KnownTitles: map[string]KnownTitle{
			"三体": {
				Title:     "三体（全集）刘慈欣",
				DetailURL: "https://book5678.com/post/8821.html",
			},
		},
	},
	"35ppt": {
		ID:             "35ppt",
		Name:           "35PPT",
		BaseURL:        "https://www.35ppt.com",
		searchTemplate: "https://www.35ppt.com/?s=%s",
		Selector:       `article h2 a`,
		HrefFilter:     ppt35ID,
		StrictPattern:  regexp.MustCompile(`<a[^>]*href="((?:https?://www\.35ppt\.com)?/\d+\.html)"[^>]*>(.*?)</a>`),
		LoosePattern:   regexp.MustCompile(`<a[^>]*href="(/\d+\.html)"[^>]*>(.*?)</a>`),
		DeriveDownload: func(detailURL string) string {
			m := ppt35ID.FindStringSubmatch(detailURL)
			if m == nil {
				return ""
			}
			return "https://www.35ppt.com/wp-content/plugins/ordown/down.php?id=" + m[1]
		},
		Headers:         browserHeaders("https://www.35ppt.com/"),
		QueryWithAuthor: true,
		KnownTitles: map[string]KnownTitle{
			"非暴力沟通": {
				Title:       "非暴力沟通（马歇尔·卢森堡）",
				DetailURL:   "https://www.35ppt.com/42517.html",
				DownloadURL: "https://www.35ppt.com/wp-content/plugins/ordown/down.php?id=42517",
			},
		},
	},
}

// Lookup returns the adapter for a site identifier.
func Lookup(id string) (*Adapter, error) {
	a, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, id)
	}
	return a, nil
}

// Names returns the display names of every registered adapter. Used by the
// relevance scorer to penalize titles that are just the site's own brand.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, a := range registry {
		out = append(out, a.Name)
	}
	return out
}

// IDs returns the registry keys, for help output.
func IDs() []string {
	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	return out
}
