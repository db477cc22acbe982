// Package extract builds global-index shards from the raw snapshot dumps
// of the global scholarly-works index. Snapshot files are gzip JSONL laid
// out as updated_date=YYYY-MM-DD/part_*.gz; each kept work becomes one
// row of a per-date SQLite shard.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/ocametrics/ocm/internal/normalize"
	"github.com/ocametrics/ocm/internal/oaindex"
)

// snapshotWork is the subset of a raw snapshot record the extractor reads.
type snapshotWork struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	IsXPAC          bool           `json:"is_xpac"`
	PublicationYear any            `json:"publication_year"`
	Language        string         `json:"language"`
	DOI             string         `json:"doi"`
	CitedByCount    int64          `json:"cited_by_count"`
	PrimaryLocation *location      `json:"primary_location"`
	Locations       []*location    `json:"locations"`
	PrimaryTopic    *topic         `json:"primary_topic"`
	CountsByYear    []countsByYear `json:"counts_by_year"`
}

type location struct {
	Source *source `json:"source"`
}

type source struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	ISSNL string `json:"issn_l"`
}

type topic struct {
	DisplayName string      `json:"display_name"`
	Score       float64     `json:"score"`
	Domain      *namedField `json:"domain"`
	Field       *namedField `json:"field"`
	Subfield    *namedField `json:"subfield"`
}

type namedField struct {
	DisplayName string `json:"display_name"`
}

type countsByYear struct {
	Year         int   `json:"year"`
	CitedByCount int64 `json:"cited_by_count"`
}

// parseLine turns one snapshot line into a shard row, or nil when the
// record is filtered out (wrong type, no journal source, year out of
// range) or malformed.
func parseLine(line []byte, startYear, endYear int) oaindex.Record {
	var src snapshotWork
	if err := json.Unmarshal(line, &src); err != nil {
		return nil
	}

	if src.Type != "article" || src.IsXPAC {
		return nil
	}

	pubYear := normalize.Year(src.PublicationYear)
	if pubYear == 0 || pubYear < startYear || pubYear > endYear {
		return nil
	}

	journal := journalSource(&src)
	if journal == nil {
		return nil
	}

	row := oaindex.Record{
		"work_id":          src.ID,
		"publication_year": int64(pubYear),
		"language":         src.Language,
		"doi":              src.DOI,
		"source_id":        journal.ID,
		"source_issn_l":    journal.ISSNL,
		"citations_total":  src.CitedByCount,
	}

	if pt := src.PrimaryTopic; pt != nil {
		row["topic"] = pt.DisplayName
		row["topic_score"] = pt.Score
		if pt.Domain != nil {
			row["domain"] = pt.Domain.DisplayName
		}
		if pt.Field != nil {
			row["field"] = pt.Field.DisplayName
		}
		if pt.Subfield != nil {
			row["subfield"] = pt.Subfield.DisplayName
		}
	}

	// Per-year counts plus fixed post-publication citation windows.
	var w2, w3, w5 int64
	for _, cy := range src.CountsByYear {
		if cy.Year == 0 {
			continue
		}
		row[fmt.Sprintf("citations_%d", cy.Year)] = cy.CitedByCount

		if cy.Year > pubYear {
			if cy.Year <= pubYear+2 {
				w2 += cy.CitedByCount
			}
			if cy.Year <= pubYear+3 {
				w3 += cy.CitedByCount
			}
			if cy.Year <= pubYear+5 {
				w5 += cy.CitedByCount
			}
		}
	}

	row["citations_window_2y"] = w2
	row["citations_window_3y"] = w3
	row["citations_window_5y"] = w5
	row["has_citation_window_2y"] = boolFlag(w2 > 0)
	row["has_citation_window_3y"] = boolFlag(w3 > 0)
	row["has_citation_window_5y"] = boolFlag(w5 > 0)

	return row
}

// journalSource finds the work's journal source: the primary location if
// it is a journal, otherwise the first journal among the other locations.
func journalSource(src *snapshotWork) *source {
	if src.PrimaryLocation != nil && src.PrimaryLocation.Source != nil &&
		src.PrimaryLocation.Source.Type == "journal" {
		return src.PrimaryLocation.Source
	}
	for _, loc := range src.Locations {
		if loc != nil && loc.Source != nil && loc.Source.Type == "journal" {
			return loc.Source
		}
	}
	return nil
}

func boolFlag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
