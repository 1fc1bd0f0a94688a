package sites

import (
	"errors"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	for _, id := range []string{"xiaolipan", "book5678", "35ppt"} {
		a, err := Lookup(id)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", id, err)
		}
		if a.ID != id {
			t.Fatalf("adapter ID = %q, want %q", a.ID, id)
		}
		if a.Name == "" || a.BaseURL == "" {
			t.Fatalf("adapter %q missing name or base URL", id)
		}
	}
}

func TestLookupCaseAndWhitespace(t *testing.T) {
	a, err := Lookup("  Xiaolipan ")
	if err != nil {
		t.Fatalf("lookup should normalize case and spacing: %v", err)
	}
	if a.ID != "xiaolipan" {
		t.Fatalf("adapter ID = %q", a.ID)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("unknown_site")
	if !errors.Is(err, ErrUnknownSite) {
		t.Fatalf("expected ErrUnknownSite, got %v", err)
	}
}

func TestSearchURLEscapesKeyword(t *testing.T) {
	a, _ := Lookup("xiaolipan")
	got := a.SearchURL("曾国藩传 全集")
	if strings.ContainsAny(got, " 曾") {
		t.Fatalf("keyword not escaped: %q", got)
	}
	if !strings.HasPrefix(got, "https://www.xiaolipan.com/search.html?keyword=") {
		t.Fatalf("unexpected search URL: %q", got)
	}
}

func TestResolveURL(t *testing.T) {
	a, _ := Lookup("book5678")

	if got := a.ResolveURL("/post/8821.html"); got != "https://book5678.com/post/8821.html" {
		t.Fatalf("relative resolve = %q", got)
	}
	if got := a.ResolveURL("https://other.example/x.html"); got != "https://other.example/x.html" {
		t.Fatalf("absolute hrefs must pass through, got %q", got)
	}
	if got := a.ResolveURL("   "); got != "" {
		t.Fatalf("blank href should resolve to empty, got %q", got)
	}
}

func TestDeriveDownload(t *testing.T) {
	xiaolipan, _ := Lookup("xiaolipan")
	got := xiaolipan.DeriveDownload("https://www.xiaolipan.com/p/1496858.html")
	if got != "https://www.xiaolipan.com/download/1496858.html" {
		t.Fatalf("xiaolipan derive = %q", got)
	}
	if got := xiaolipan.DeriveDownload("https://www.xiaolipan.com/other.html"); got != "" {
		t.Fatalf("non-detail URL should derive empty, got %q", got)
	}

	ppt, _ := Lookup("35ppt")
	got = ppt.DeriveDownload("https://www.35ppt.com/42517.html")
	if got != "https://www.35ppt.com/wp-content/plugins/ordown/down.php?id=42517" {
		t.Fatalf("35ppt derive = %q", got)
	}

	book5678, _ := Lookup("book5678")
	if book5678.DeriveDownload != nil {
		t.Fatalf("book5678 has no predictable download URL")
	}
	if book5678.DownloadPattern == nil {
		t.Fatalf("book5678 should discover downloads from detail pages")
	}
}

func TestHeadersEmulateBrowser(t *testing.T) {
	for _, id := range []string{"xiaolipan", "book5678", "35ppt"} {
		a, _ := Lookup(id)
		if a.Headers["Referer"] == "" {
			t.Fatalf("%s missing Referer header", id)
		}
		if !strings.Contains(a.Headers["Accept-Language"], "zh-CN") {
			t.Fatalf("%s missing zh-CN Accept-Language", id)
		}
	}
}

func TestNamesAndIDs(t *testing.T) {
	if len(Names()) != len(IDs()) {
		t.Fatalf("Names and IDs should have equal length")
	}
	found := false
	for _, name := range Names() {
		if name == "小立盘" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 小立盘 in adapter names")
	}
}
