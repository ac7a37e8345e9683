package gallery

import (
	"encoding/json"
	"fmt"

	"github.com/dyluth/easel/internal/codec"
)

// storedRecord is the CBOR value under a record key. The mapping is kept as
// an uninterpreted byte string. The id is duplicated from the key for
// operator tooling; readers take it from the key.
type storedRecord struct {
	ID        string `cbor:"id,omitempty"`
	Name      string `cbor:"name"`
	Author    string `cbor:"author"`
	Mapping   []byte `cbor:"mapping"`
	Size      int    `cbor:"size,omitempty"`
	CreatedAt int64  `cbor:"created_at"`
}

// EncodeRecord serializes r for storage.
func EncodeRecord(r *ArtRecord) ([]byte, error) {
	data, err := codec.Marshal(storedRecord{
		ID:        r.ID,
		Name:      r.Name,
		Author:    r.Author,
		Mapping:   []byte(r.Mapping),
		Size:      r.Size,
		CreatedAt: r.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

// DecodeRecord rebuilds a record from its key and stored value. A current
// key's size wins over the value's. Legacy values without a size decode to
// defaultSize.
func DecodeRecord(rk RecordKey, value []byte, defaultSize int) (*ArtRecord, error) {
	var s storedRecord
	if err := codec.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", rk, err)
	}

	r := &ArtRecord{
		ID:         rk.ID,
		Name:       s.Name,
		Author:     s.Author,
		Mapping:    json.RawMessage(s.Mapping),
		Size:       s.Size,
		CreatedAt:  s.CreatedAt,
		Generation: rk.Generation,
	}
	if rk.Generation == GenerationSized {
		r.Size = rk.Size
	}
	if r.Size <= 0 {
		r.Size = defaultSize
	}
	if len(r.Mapping) == 0 {
		r.Mapping = json.RawMessage("null")
	}
	return r, nil
}

// describeValue renders a stored value for log lines: CBOR diagnostic
// notation, or hex when it is not CBOR at all.
func describeValue(value []byte) string {
	if diag, err := codec.Diagnose(value); err == nil {
		return diag
	}
	return fmt.Sprintf("%x", value)
}
