package gallery

import (
	"fmt"

	"github.com/dyluth/easel/pkg/keys"
)

// Store key layout
//
// Key pattern (legacy):  ("art", id)
// Key pattern (current): ("art", size, id)
// Size registry:         ("art_size", size) with an empty value

const (
	// Namespace is the first component of every record key.
	Namespace = "art"

	// SizeNamespace is the first component of every size registry key.
	SizeNamespace = "art_size"
)

// Generation identifies the key layout a record was written under.
type Generation int

const (
	// GenerationLegacy keys records by id alone.
	GenerationLegacy Generation = 1

	// GenerationSized partitions records by size.
	GenerationSized Generation = 2
)

func (g Generation) String() string {
	switch g {
	case GenerationLegacy:
		return "gen1"
	case GenerationSized:
		return "gen2"
	default:
		return fmt.Sprintf("gen(%d)", int(g))
	}
}

// RecordKey is the decoded form of a record's store key. Size is zero for
// legacy keys, which do not carry one.
type RecordKey struct {
	Generation Generation
	Size       int
	ID         string
}

// LegacyKey returns the legacy key for id.
// Pattern: ("art", id)
func LegacyKey(id string) keys.Key {
	return keys.Make(Namespace, id)
}

// SizedKey returns the current key for a record.
// Pattern: ("art", size, id)
func SizedKey(size int, id string) keys.Key {
	return keys.Make(Namespace, size, id)
}

// SizeKey returns the registry marker for size.
// Pattern: ("art_size", size)
func SizeKey(size int) keys.Key {
	return keys.Make(SizeNamespace, size)
}

// ScanPrefix returns the prefix covering all records, or only records of
// size when size is positive. Legacy records carry no size and so only
// appear in the unfiltered scan.
func ScanPrefix(size int) keys.Key {
	if size > 0 {
		return keys.Make(Namespace, size)
	}
	return keys.Make(Namespace)
}

// Key returns the store key rk names.
func (rk RecordKey) Key() keys.Key {
	if rk.Generation == GenerationLegacy {
		return LegacyKey(rk.ID)
	}
	return SizedKey(rk.Size, rk.ID)
}

func (rk RecordKey) String() string {
	return rk.Key().String()
}

// ParseRecordKey classifies a stored key. ok is false for anything that is
// neither a legacy nor a current record key.
func ParseRecordKey(k keys.Key) (rk RecordKey, ok bool) {
	if len(k) < 2 {
		return RecordKey{}, false
	}
	if ns, isStr := k[0].Str(); !isStr || ns != Namespace {
		return RecordKey{}, false
	}
	switch len(k) {
	case 2:
		if id, isStr := k[1].Str(); isStr {
			return RecordKey{Generation: GenerationLegacy, ID: id}, true
		}
	case 3:
		size, isInt := k[1].Int64()
		id, isStr := k[2].Str()
		if isInt && isStr && size > 0 && size <= maxStoredSize {
			return RecordKey{Generation: GenerationSized, Size: int(size), ID: id}, true
		}
	}
	return RecordKey{}, false
}

// maxStoredSize bounds sizes read back from the store so they fit an int on
// every platform. Configured limits are far lower.
const maxStoredSize = 1<<31 - 1
