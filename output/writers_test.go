package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookharvest/models"
)

var sample = []models.Candidate{
	{
		Site:        "小立盘",
		Title:       "曾国藩传 - 张宏杰",
		DetailURL:   "https://www.xiaolipan.com/p/1496858.html",
		DownloadURL: "https://www.xiaolipan.com/download/1496858.html",
		Relevance:   60,
	},
	{
		Site:      "Book5678",
		Title:     "三体全集 刘慈欣",
		DetailURL: "https://book5678.com/post/8821.html",
		Relevance: 50,
	},
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}
	if err := writer.Write(sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if records[0][0] != "site" {
		t.Fatalf("missing header row: %v", records[0])
	}
	if records[1][1] != "曾国藩传 - 张宏杰" || records[1][4] != "60" {
		t.Fatalf("unexpected first record: %v", records[1])
	}
	if records[2][3] != "" {
		t.Fatalf("missing download URL should stay empty, got %q", records[2][3])
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	if err := writer.Write(sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var first models.Candidate
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.DetailURL != sample[0].DetailURL {
		t.Fatalf("detail URL = %q", first.DetailURL)
	}
}

func TestNewWriterUnknownFormat(t *testing.T) {
	if _, err := NewWriter("xml", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatalf("unsupported format must error")
	}
}
