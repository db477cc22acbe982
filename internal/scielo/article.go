package scielo

// Article is the consolidated, deduplicated form of one component of
// duplicate documents. Scalar fields from the raw documents become
// list-valued; the earliest observed publication year is the primary one.
type Article struct {
	Collections      []string          `json:"collection"`
	PIDs             []string          `json:"pid_v2"`
	PublicationYear  int               `json:"publication_year"`
	PublicationYears []int             `json:"publication_years,omitempty"`
	DOI              string            `json:"doi"`
	DOIWithLang      map[string]string `json:"doi_with_lang"`
	Titles           []string          `json:"titles"`
	DocumentType     string            `json:"document_type"`
	JournalTitle     string            `json:"journal_title"`
	JournalISSNs     []string          `json:"journal_issns"`
}

// DOIs returns the article's primary DOI plus every language-variant DOI,
// normalized, deduplicated, and sorted.
func (a *Article) DOIs() []string {
	return collectDOIs(a.DOI, a.DOIWithLang)
}

// FirstPID returns the article's first publisher identifier, or "" if the
// article somehow has none.
func (a *Article) FirstPID() string {
	if len(a.PIDs) == 0 {
		return ""
	}
	return a.PIDs[0]
}
