// Package checkpoint persists the durable state of an incremental history scan:
// the last fully scanned commit and the deduplicated findings accumulated so far.
package checkpoint

import (
	"github.com/Sumatoshi-tech/crqscan/pkg/gitlib"
)

// Checkpoint is the scan state carried from one run to the next.
type Checkpoint struct {
	// LastScannedCommit is nil until the first successful run.
	LastScannedCommit *gitlib.Hash

	TrackingIDs ResultSet
	URLs        ResultSet
	Terms       ResultSet
}

// New returns the empty checkpoint used when no file exists yet.
func New() *Checkpoint {
	return &Checkpoint{}
}

// Advance records head as the last fully scanned commit.
func (c *Checkpoint) Advance(head gitlib.Hash) {
	c.LastScannedCommit = &head
}

// document is the on-disk form of a Checkpoint.
type document struct {
	LastScannedCommit *string   `json:"last_scanned_commit"`
	FoundTrackingIDs  ResultSet `json:"found_crq_links"`
	FoundURLs         ResultSet `json:"found_urls"`
	FoundTerms        ResultSet `json:"found_terms"`
}

func (c *Checkpoint) toDocument() *document {
	doc := &document{
		FoundTrackingIDs: c.TrackingIDs,
		FoundURLs:        c.URLs,
		FoundTerms:       c.Terms,
	}

	if c.LastScannedCommit != nil {
		last := c.LastScannedCommit.String()
		doc.LastScannedCommit = &last
	}

	return doc
}

func (d *document) toCheckpoint() (*Checkpoint, error) {
	cp := &Checkpoint{
		TrackingIDs: d.FoundTrackingIDs,
		URLs:        d.FoundURLs,
		Terms:       d.FoundTerms,
	}

	if d.LastScannedCommit != nil {
		hash, err := gitlib.ParseHash(*d.LastScannedCommit)
		if err != nil {
			return nil, err
		}

		cp.LastScannedCommit = &hash
	}

	return cp, nil
}
