package gallery

import (
	"context"
	"fmt"
)

// probe is one candidate location for a record.
type probe struct {
	key   RecordKey
	value []byte
}

// candidates lists the keys a record with id could be stored under, in
// probe order: the legacy key, then one current key per known size.
func (g *Gallery) candidates(ctx context.Context, id string) ([]RecordKey, error) {
	sizes, err := g.sizes.known(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RecordKey, 0, len(sizes)+1)
	out = append(out, RecordKey{Generation: GenerationLegacy, ID: id})
	for _, size := range sizes {
		out = append(out, RecordKey{Generation: GenerationSized, Size: size, ID: id})
	}
	return out, nil
}

// resolve probes candidate keys for id. With all set it returns every
// location holding the record, which is more than one only while a legacy
// entry is being migrated. Otherwise it stops at the first hit.
func (g *Gallery) resolve(ctx context.Context, id string, all bool) ([]probe, error) {
	if id == "" {
		return nil, missing("id")
	}

	candidates, err := g.candidates(ctx, id)
	if err != nil {
		return nil, err
	}

	var found []probe
	for _, rk := range candidates {
		value, ok, err := g.store.Get(ctx, rk.Key())
		if err != nil {
			return nil, fmt.Errorf("failed to probe %s: %w", rk, err)
		}
		if !ok {
			continue
		}
		found = append(found, probe{key: rk, value: value})
		if !all {
			break
		}
	}
	return found, nil
}
