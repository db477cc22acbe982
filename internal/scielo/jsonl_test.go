package scielo

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeCorpus(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scielo.jsonl")

	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test corpus: %v", err)
	}
	return path
}

func TestLoadDocuments_Basic(t *testing.T) {
	path := writeCorpus(t, []string{
		`{"collection":"scl","pid_v2":"S1","doi":"10.1590/1","titles":["atitle"],"journal_title":"J","journal_issns":["1234-5678"],"publication_year":2020}`,
		`{"collection":"arg","pid_v2":"S2","doi":"","doi_with_lang":{"es":"10.1590/2"},"titles":["btitle"],"publication_year":2021}`,
	})

	docs, skips, err := LoadDocuments(path, 2018, 2024)
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if skips.Total() != 0 {
		t.Errorf("skips = %+v, want none", skips)
	}
	if len(docs) != 2 {
		t.Fatalf("loaded %d docs, want 2", len(docs))
	}
	if docs[0].PIDv2 != "S1" || docs[1].PIDv2 != "S2" {
		t.Errorf("document order not preserved: %s, %s", docs[0].PIDv2, docs[1].PIDv2)
	}
	if got := docs[1].DOIs(); !reflect.DeepEqual(got, []string{"10.1590/2"}) {
		t.Errorf("DOIs() = %v, want [10.1590/2]", got)
	}
}

func TestLoadDocuments_SkipClassification(t *testing.T) {
	path := writeCorpus(t, []string{
		`{"collection":"scl","pid_v2":"ok","doi":"10.1590/1","titles":["t"],"publication_year":2020}`,
		`not json at all`,
		`{"collection":"scl","pid_v2":"nodoi","titles":["t"],"publication_year":2020}`,
		`{"collection":"scl","pid_v2":"old","doi":"10.1590/2","titles":["t"],"publication_year":2010}`,
		`{"collection":"scl","pid_v2":"future","doi":"10.1590/3","titles":["t"],"publication_year":2030}`,
		``,
	})

	docs, skips, err := LoadDocuments(path, 2018, 2024)
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].PIDv2 != "ok" {
		t.Fatalf("loaded %d docs, want just the valid one", len(docs))
	}
	if skips.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", skips.Malformed)
	}
	if skips.MissingDOI != 1 {
		t.Errorf("MissingDOI = %d, want 1", skips.MissingDOI)
	}
	if skips.OutOfRange != 2 {
		t.Errorf("OutOfRange = %d, want 2", skips.OutOfRange)
	}
	if skips.Total() != 4 {
		t.Errorf("Total() = %d, want 4", skips.Total())
	}
}

func TestLoadDocuments_NormalizesOnLoad(t *testing.T) {
	path := writeCorpus(t, []string{
		`{"collection":"scl","pid_v2":"S1","doi":"https://doi.org/10.1590/ABC","doi_with_lang":{"pt":"DOI:10.1590/DEF"},"titles":["A Título Com Acentos"],"publication_year":2020}`,
	})

	docs, _, err := LoadDocuments(path, 2018, 2024)
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if docs[0].DOI != "10.1590/abc" {
		t.Errorf("DOI = %q, want 10.1590/abc", docs[0].DOI)
	}
	if docs[0].DOIWithLang["pt"] != "10.1590/def" {
		t.Errorf("DOIWithLang[pt] = %q, want 10.1590/def", docs[0].DOIWithLang["pt"])
	}
	if !reflect.DeepEqual(docs[0].Titles, []string{"atitulocomacentos"}) {
		t.Errorf("Titles = %v, want [atitulocomacentos]", docs[0].Titles)
	}
}

func TestLoadDocuments_MissingFileIsFatal(t *testing.T) {
	_, _, err := LoadDocuments(filepath.Join(t.TempDir(), "nope.jsonl"), 2018, 2024)
	if err == nil {
		t.Fatal("LoadDocuments() on missing file should fail")
	}
}

func TestArticles_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.jsonl")
	in := []Article{
		{
			Collections:      []string{"arg", "scl"},
			PIDs:             []string{"S1", "S2"},
			PublicationYear:  2020,
			PublicationYears: []int{2020, 2021},
			DOI:              "10.1590/1",
			DOIWithLang:      map[string]string{"en": "10.1590/1", "pt": "10.1590/1-pt"},
			Titles:           []string{"atitle", "btitle"},
			DocumentType:     "research-article",
			JournalTitle:     "Memórias",
			JournalISSNs:     []string{"1234-5678"},
		},
		{
			Collections:     []string{"chl"},
			PIDs:            []string{"S3"},
			PublicationYear: 2019,
			DOI:             "10.1590/2",
			Titles:          []string{"ctitle"},
		},
	}

	if err := WriteArticles(path, in); err != nil {
		t.Fatalf("WriteArticles() error = %v", err)
	}
	out, err := ReadArticles(path)
	if err != nil {
		t.Fatalf("ReadArticles() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestArticle_FirstPID(t *testing.T) {
	a := Article{PIDs: []string{"S1", "S2"}}
	if got := a.FirstPID(); got != "S1" {
		t.Errorf("FirstPID() = %q, want S1", got)
	}
	empty := Article{}
	if got := empty.FirstPID(); got != "" {
		t.Errorf("FirstPID() on empty = %q, want \"\"", got)
	}
}
