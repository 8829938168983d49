// Package scopus provides a client for the Scopus Abstract Retrieval API.
package scopus

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matsen/citgraph/internal/paper"
)

// retrievalResponse is the envelope of an Abstract Retrieval response.
type retrievalResponse struct {
	Response retrievalBody `json:"abstracts-retrieval-response"`
}

type retrievalBody struct {
	Coredata coredata      `json:"coredata"`
	Authors  *authorsBlock `json:"authors"`
	Item     *itemBlock    `json:"item"`
}

// coredata carries the document-level metadata fields consumed here.
type coredata struct {
	Identifier      string     `json:"dc:identifier"` // "SCOPUS_ID:85049622001"
	EID             string     `json:"eid"`
	Title           string     `json:"dc:title"`
	DOI             string     `json:"prism:doi"`
	CoverDate       string     `json:"prism:coverDate"` // "YYYY-MM-DD"
	PublicationName string     `json:"prism:publicationName"`
	Links           []wireLink `json:"link"`
}

type wireLink struct {
	Rel  string `json:"@rel"`
	Href string `json:"@href"`
}

type authorsBlock struct {
	Author []wireAuthor `json:"author"`
}

type wireAuthor struct {
	IndexedName string `json:"ce:indexed-name"`
}

// itemBlock holds the bibliography tail of a FULL-view retrieval, which
// carries the document's outgoing references.
type itemBlock struct {
	Bibrecord struct {
		Tail *struct {
			Bibliography struct {
				RefCount  string  `json:"@refcount"`
				Reference refList `json:"reference"`
			} `json:"bibliography"`
		} `json:"tail"`
	} `json:"bibrecord"`
}

type wireReference struct {
	RefInfo struct {
		ItemIDList struct {
			ItemID itemIDList `json:"itemid"`
		} `json:"refd-itemidlist"`
	} `json:"ref-info"`
}

type wireItemID struct {
	IDType string `json:"@idtype"`
	Value  string `json:"$"`
}

// refList tolerates Scopus returning a single reference as a bare object
// instead of a one-element array.
type refList []wireReference

func (r *refList) UnmarshalJSON(data []byte) error {
	var many []wireReference
	if err := json.Unmarshal(data, &many); err == nil {
		*r = many
		return nil
	}
	var one wireReference
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*r = refList{one}
	return nil
}

// itemIDList tolerates the same object-or-array shape for itemid entries.
type itemIDList []wireItemID

func (l *itemIDList) UnmarshalJSON(data []byte) error {
	var many []wireItemID
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one wireItemID
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = itemIDList{one}
	return nil
}

// parseScopusID extracts the numeric ID from a dc:identifier value such as
// "SCOPUS_ID:85049622001", or from a bare decimal string.
func parseScopusID(identifier string) (paper.ScopusID, bool) {
	s := strings.TrimPrefix(identifier, "SCOPUS_ID:")
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return paper.ScopusID(n), true
}

// coverDateYear extracts the year from a prism:coverDate value.
func coverDateYear(coverDate string) int {
	year, _, _ := strings.Cut(coverDate, "-")
	n, err := strconv.Atoi(year)
	if err != nil {
		return 0
	}
	return n
}

// joinAuthors builds the stored author string from indexed names:
// "Smith J." becomes "Smith, J." and authors are joined with "; ".
func joinAuthors(authors []wireAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.IndexedName == "" {
			continue
		}
		names = append(names, strings.Join(strings.Fields(a.IndexedName), ", "))
	}
	return strings.Join(names, "; ")
}

// parsePaper converts a retrieval response into paper metadata and the
// outgoing reference stubs reported with it. References lacking a Scopus ID
// are dropped, as they cannot become graph nodes.
func parsePaper(resp retrievalResponse, depth int) (paper.Paper, []paper.Ref, bool) {
	core := resp.Response.Coredata

	scopusID, ok := parseScopusID(core.Identifier)
	if !ok || core.Title == "" {
		return paper.Paper{}, nil, false
	}

	var scopusURL string
	for _, link := range core.Links {
		if link.Rel == "scopus" {
			scopusURL = link.Href
			break
		}
	}

	var authors string
	if resp.Response.Authors != nil {
		authors = joinAuthors(resp.Response.Authors.Author)
	}

	p := paper.Paper{
		IterDepth: depth,
		Title:     core.Title,
		Authors:   authors,
		Year:      coverDateYear(core.CoverDate),
		ScopusID:  scopusID,
		DOI:       core.DOI,
		EID:       core.EID,
		ScopusURL: scopusURL,
		PubName:   core.PublicationName,
	}

	var refs []paper.Ref
	if item := resp.Response.Item; item != nil && item.Bibrecord.Tail != nil {
		for _, wr := range item.Bibrecord.Tail.Bibliography.Reference {
			ref := paper.Ref{}
			for _, id := range wr.RefInfo.ItemIDList.ItemID {
				switch id.IDType {
				case "SGR":
					if sid, ok := parseScopusID(id.Value); ok {
						ref.ScopusID = sid
					}
				case "DOI":
					ref.DOI = id.Value
				}
			}
			if ref.ScopusID != 0 {
				refs = append(refs, ref)
			}
		}
	}

	return p, refs, true
}
