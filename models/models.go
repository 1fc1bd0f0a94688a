// Package models defines data structures shared across the harvester.
package models

import "strings"

// SearchTask describes one harvest request. It is built once from
// caller-supplied parameters and never mutated afterwards.
type SearchTask struct {
	Site   string `json:"target"`
	Query  string `json:"query"`
	ISBN   string `json:"isbn,omitempty"`
	Author string `json:"author,omitempty"`
}

// Key returns a normalized cache key for the task.
func (t SearchTask) Key() string {
	parts := []string{t.Site, t.Query, t.ISBN, t.Author}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}

// Candidate is one book listing surfaced from a single adapter run.
// DetailURL is always absolute; Relevance is always >= 0.
type Candidate struct {
	Site        string `json:"site"`
	Title       string `json:"title"`
	DetailURL   string `json:"detailUrl"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Relevance   int    `json:"relevance"`
}
