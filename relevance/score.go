// Package relevance scores candidate titles against a search query and
// ranks the resulting list. The scorer is the single point of truth for
// ordering: every extraction strategy feeds through it unchanged.
package relevance

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"bookharvest/sites"
)

const (
	containBonus    = 50
	exactBonus      = 100
	tokenBonus      = 10
	authorBonus     = 30
	genreMajorBonus = 20
	genreMinorBonus = 15

	shortTitlePenalty = 40
	navPenalty        = 1000

	// MinTitleRunes is the shortest non-space title that can be a real
	// book listing rather than navigation chrome.
	MinTitleRunes = 5
)

// KnownTitleScore is assigned to pre-vetted known-title candidates. It equals
// the exact-match plus containment bonuses, the strongest organic signal, so
// vetted records always rank at the top without a magic sentinel.
const KnownTitleScore = exactBonus + containBonus

// navTerms are titles (or title fragments) that identify site chrome rather
// than book listings. Brand names of the registered adapters are included.
var navTerms = buildNavTerms()

func buildNavTerms() []string {
	terms := []string{
		"home", "login", "register", "about", "about us", "contact",
		"search", "sign in", "sign up",
		"首页", "登录", "注册", "关于我们", "联系我们", "免责声明", "会员中心",
	}
	for _, name := range sites.Names() {
		terms = append(terms, strings.ToLower(name))
	}
	for _, id := range sites.IDs() {
		terms = append(terms, strings.ToLower(id))
	}
	return terms
}

var genreMinorSuffixes = []string{"全书", "教程", "指南", "概论", "原理", "研究", "史", "论"}

// Score computes a non-negative relevance score for a title against the
// query and optional author. Pure and deterministic.
func Score(title, query, author string) int {
	t := strings.ToLower(strings.TrimSpace(title))
	q := strings.ToLower(strings.TrimSpace(query))
	a := strings.ToLower(strings.TrimSpace(author))
	if t == "" || q == "" {
		return 0
	}

	score := 0
	if strings.Contains(t, q) {
		score += containBonus
	}
	for _, token := range strings.Fields(q) {
		if utf8.RuneCountInString(token) > 1 && strings.Contains(t, token) {
			score += tokenBonus
		}
	}
	if a != "" && strings.Contains(t, a) {
		score += authorBonus
	}
	if t == q {
		score += exactBonus
	}
	score += genreBonus(t)

	if NonSpaceRunes(t) < MinTitleRunes {
		score -= shortTitlePenalty
	}
	if isNavTitle(t) {
		score -= navPenalty
	}

	if score < 0 {
		return 0
	}
	return score
}

// genreBonus rewards common Chinese book-title suffixes; only the first
// matching pattern counts.
func genreBonus(title string) int {
	if strings.HasSuffix(title, "传") {
		return genreMajorBonus
	}
	for _, suffix := range genreMinorSuffixes {
		if strings.HasSuffix(title, suffix) {
			return genreMinorBonus
		}
	}
	return 0
}

func isNavTitle(title string) bool {
	for _, term := range navTerms {
		if title == term {
			return true
		}
		if hasCJK(term) {
			if strings.Contains(title, term) {
				return true
			}
			continue
		}
		// ASCII terms (and brand names) match as standalone words so that
		// e.g. "homeric hymns" is not penalized for containing "home".
		if strings.Contains(" "+title+" ", " "+term+" ") {
			return true
		}
	}
	return false
}

func hasCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// NonSpaceRunes counts the runes of s that are not whitespace.
func NonSpaceRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
