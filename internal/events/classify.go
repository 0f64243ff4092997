package events

import "lendingScope/internal/model"

// Classification is the result of partitioning a raw batch by event kind.
type Classification struct {
	// Buckets has an entry, possibly empty, for every indexed kind.
	Buckets map[string][]model.LogRecord
	// Total is the number of raw entries received.
	Total int
	// Duplicates counts entries dropped as exact repeats.
	Duplicates int
	// Unknown counts unique entries whose topic0 matched no kind.
	Unknown int
}

// Classified is the number of entries that landed in a bucket.
func (c Classification) Classified() int {
	n := 0
	for _, b := range c.Buckets {
		n += len(b)
	}
	return n
}

// Classify deduplicates entries and groups them by the kind their topic0
// resolves to. Survivors keep their first-occurrence order within a bucket.
func Classify(entries []model.LogRecord, idx *SignatureIndex) Classification {
	out := Classification{
		Buckets: make(map[string][]model.LogRecord, idx.Len()),
		Total:   len(entries),
	}
	for _, e := range idx.entries {
		out.Buckets[e.Kind] = []model.LogRecord{}
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		key := entry.Key()
		if _, ok := seen[key]; ok {
			out.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		kind, ok := idx.Lookup(entry.Topic0())
		if !ok {
			out.Unknown++
			continue
		}
		out.Buckets[kind] = append(out.Buckets[kind], entry)
	}
	return out
}
