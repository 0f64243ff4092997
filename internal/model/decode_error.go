package model

import "fmt"

// MalformedEventError reports a classified entry whose topics or data do not
// match its schema. Index is the entry's position in its kind's bucket.
type MalformedEventError struct {
	Event       string `json:"event"`
	Index       int    `json:"index"`
	BlockNumber uint64 `json:"block_number"`
	Reason      string `json:"reason"`
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event at index %d (block %d): %s", e.Event, e.Index, e.BlockNumber, e.Reason)
}
