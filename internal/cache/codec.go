package cache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"marketboard/internal/models"
)

// Cached listing sets are framed as uvarint(count) followed by a
// uvarint-length-prefixed JSON blob per listing, then snappy-compressed as
// a whole. The framing keeps decode allocation proportional to the entry
// count instead of re-parsing one large array.

// encodeListings serializes a listing set for the shared cache tier.
func encodeListings(listings []models.Listing) ([]byte, error) {
	var buf []byte
	var scratch [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(scratch[:], uint64(len(listings)))
	buf = append(buf, scratch[:n]...)

	for i := range listings {
		blob, err := json.Marshal(&listings[i])
		if err != nil {
			return nil, fmt.Errorf("encode listing %s: %w", listings[i].ListingID, err)
		}
		n := binary.PutUvarint(scratch[:], uint64(len(blob)))
		buf = append(buf, scratch[:n]...)
		buf = append(buf, blob...)
	}

	return snappy.Encode(nil, buf), nil
}

// decodeListings reverses encodeListings.
func decodeListings(data []byte) ([]models.Listing, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompress listing set: %w", err)
	}

	count, n := binary.Uvarint(raw)
	if n <= 0 {
		return nil, fmt.Errorf("corrupt listing set header")
	}
	raw = raw[n:]

	// Every frame carries at least a one-byte length prefix, so a count
	// beyond the remaining payload is a corrupt header, not an allocation
	// request.
	if count > uint64(len(raw)) {
		return nil, fmt.Errorf("corrupt listing set header: count %d exceeds payload", count)
	}

	listings := make([]models.Listing, 0, count)
	for i := uint64(0); i < count; i++ {
		size, n := binary.Uvarint(raw)
		if n <= 0 || uint64(len(raw[n:])) < size {
			return nil, fmt.Errorf("corrupt listing frame %d", i)
		}
		var l models.Listing
		if err := json.Unmarshal(raw[n:n+int(size)], &l); err != nil {
			return nil, fmt.Errorf("decode listing frame %d: %w", i, err)
		}
		if l.Materia == nil {
			l.Materia = []models.Materia{}
		}
		listings = append(listings, l)
		raw = raw[n+int(size):]
	}
	return listings, nil
}
