package index

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Posting lists are stored as a concatenated sequence of
// (uvarint doc_id, uvarint frequency) pairs ordered by ascending doc id.
// The encoding is self-delimiting, so no length prefix or separator is
// needed between pairs.

// EncodePostings serializes a posting list. The input must be sorted by
// ascending DocID; UpsertPosting and the stores maintain that invariant.
func EncodePostings(postings []Posting) []byte {
	buf := make([]byte, 0, len(postings)*(binary.MaxVarintLen64+binary.MaxVarintLen32))
	var scratch [binary.MaxVarintLen64]byte

	for _, p := range postings {
		n := binary.PutUvarint(scratch[:], uint64(p.DocID))
		buf = append(buf, scratch[:n]...)

		n = binary.PutUvarint(scratch[:], uint64(p.Frequency))
		buf = append(buf, scratch[:n]...)
	}

	return buf
}

// DecodePostings deserializes a posting list value.
func DecodePostings(value []byte) ([]Posting, error) {
	var postings []Posting

	for len(value) > 0 {
		docID, n := binary.Uvarint(value)
		if n <= 0 {
			return nil, fmt.Errorf("corrupt posting list: bad doc id varint")
		}
		value = value[n:]

		tf, n := binary.Uvarint(value)
		if n <= 0 {
			return nil, fmt.Errorf("corrupt posting list: bad frequency varint")
		}
		value = value[n:]

		postings = append(postings, Posting{DocID: int64(docID), Frequency: uint32(tf)})
	}

	return postings, nil
}

// UpsertPosting inserts or replaces docID's entry in a sorted posting list
// and reports whether the list changed.
func UpsertPosting(postings []Posting, docID int64, tf uint32) ([]Posting, bool) {
	i := sort.Search(len(postings), func(i int) bool {
		return postings[i].DocID >= docID
	})

	if i < len(postings) && postings[i].DocID == docID {
		if postings[i].Frequency == tf {
			return postings, false
		}

		postings[i].Frequency = tf

		return postings, true
	}

	postings = append(postings, Posting{})
	copy(postings[i+1:], postings[i:])
	postings[i] = Posting{DocID: docID, Frequency: tf}

	return postings, true
}
