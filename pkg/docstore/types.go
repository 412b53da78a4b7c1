// Package docstore keeps fetched articles and structured entities as JSON documents
// on disk, one file per document, with an in-memory LRU in front of the files.
package docstore

import "slices"

// Link is a hyperlink found in an article body.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Article is an extracted web article.
type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	// RevisionID is the source revision, when the source exposes one.
	RevisionID *uint64 `json:"revision_id"`
	Content    string  `json:"content"`
	Links      []Link  `json:"links"`
}

func (a Article) clone() Article {
	if a.RevisionID != nil {
		revision := *a.RevisionID
		a.RevisionID = &revision
	}

	a.Links = slices.Clone(a.Links)

	return a
}

// Fact is one property/value statement about an entity.
type Fact struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Entity is a structured record from an entity knowledge base.
type Entity struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Facts []Fact `json:"facts"`
}

func (e Entity) clone() Entity {
	e.Facts = slices.Clone(e.Facts)

	return e
}
