// Package paper defines the core domain types for papers in a citation graph.
package paper

import "strconv"

// ScopusID is the stable numeric identifier Scopus assigns to a document.
// It is the node key of the citation graph.
type ScopusID uint64

// String renders the ID as its decimal form, as used in API paths and exports.
func (id ScopusID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDType selects the identifier scheme used for a Scopus lookup.
type IDType string

const (
	IDTypeDOI    IDType = "doi"
	IDTypeEID    IDType = "eid"
	IDTypeScopus IDType = "scopus_id"
)

// Paper holds the metadata retrieved for a single document.
//
// The struct is comparable on purpose: frontier sets deduplicate by full
// value (two Papers with identical fields are the same discovery), while the
// graph itself deduplicates by ScopusID alone. Reference lists are kept out
// of this type so that comparability holds; they travel as []Ref alongside.
type Paper struct {
	// IterDepth is the traversal depth at which the paper was retrieved.
	IterDepth int    `json:"iter_depth"`
	Title     string `json:"title"`
	// Authors is the joined indexed-name form: "Surname, G.; Surname, H.".
	Authors   string   `json:"authors"`
	Year      int      `json:"year"`
	ScopusID  ScopusID `json:"scopus_id"`
	DOI       string   `json:"doi"`
	EID       string   `json:"eid"`
	ScopusURL string   `json:"scopus_url"`
	PubName   string   `json:"pub_name"`
}

// Ref is an outgoing reference of a paper as reported by a FULL-view
// retrieval: enough to resolve the cited document, nothing more.
type Ref struct {
	ScopusID ScopusID `json:"scopus_id"`
	DOI      string   `json:"doi,omitempty"`
}
