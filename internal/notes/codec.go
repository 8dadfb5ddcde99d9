package notes

import (
	"encoding/json"
	"fmt"

	"github.com/taigrr/voicenotes/internal/types"
)

// Encode serializes a collection. An empty collection encodes as "[]".
func Encode(notes []types.Note) ([]byte, error) {
	if notes == nil {
		notes = []types.Note{}
	}
	return json.Marshal(notes)
}

// Decode parses a serialized collection. Elements without an id (including
// null) and notes repeating an earlier id are dropped.
func Decode(blob []byte) ([]types.Note, error) {
	var decoded []types.Note
	if err := json.Unmarshal(blob, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedData, err)
	}

	seen := make(map[string]struct{}, len(decoded))
	notes := make([]types.Note, 0, len(decoded))
	for _, n := range decoded {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		notes = append(notes, n)
	}
	return notes, nil
}
