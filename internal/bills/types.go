// Package bills defines core types shared across the ingestion subsystems.
package bills

import "fmt"

// ID identifies a single bill in one congress.
type ID struct {
	Congress int    `json:"congress"`
	Type     string `json:"bill_type"`
	Number   string `json:"bill_number"`
}

// String renders the ID in the short form used in logs and displays,
// e.g. "118-hr-3076".
func (id ID) String() string {
	return fmt.Sprintf("%d-%s-%s", id.Congress, id.Type, id.Number)
}

// IsZero reports whether the ID carries no bill.
func (id ID) IsZero() bool {
	return id.Congress == 0 && id.Type == "" && id.Number == ""
}

// TextRendition is one available document format for a text version.
type TextRendition struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// TextVersion is one publication stage of a bill's text. The upstream API
// orders versions chronologically; the last element is the latest.
type TextVersion struct {
	Type       string          `json:"type"`
	Date       string          `json:"date"`
	Renditions []TextRendition `json:"formats"`
}

// TextSource records where a bill's text ultimately came from.
type TextSource string

// Text sources persisted alongside ingested bills.
const (
	SourceAPI  TextSource = "api"
	SourceNone TextSource = ""
)

// FetchOutcome is the result of one ingestion attempt for one bill. It is
// constructed once and never mutated.
type FetchOutcome struct {
	Text          string
	Source        TextSource
	RenditionType string
}

// HasText reports whether the outcome carries retrievable text.
func (o FetchOutcome) HasText() bool {
	return o.Source != SourceNone && o.Text != ""
}

// TextRecord is the row shape persisted for each ingested bill.
type TextRecord struct {
	Bill        ID
	FullText    string
	HasFullText bool
	TextSource  TextSource
}
