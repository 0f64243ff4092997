package storage

import "fmt"

// RowRange is a half-open range of table rows [From, To).
type RowRange struct {
	From int
	To   int
}

// SplitRows splits total rows into batches of at most batchSize.
func SplitRows(total, batchSize int) ([]RowRange, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if total < 0 {
		return nil, fmt.Errorf("row count must not be negative")
	}

	ranges := make([]RowRange, 0, total/batchSize+1)
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		ranges = append(ranges, RowRange{From: start, To: end})
	}
	return ranges, nil
}
