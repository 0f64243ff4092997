package config

import (
	"fmt"
	"strings"
	"time"
)

// SnapshotLayout is the date format of snapshot partitions.
const SnapshotLayout = "2006-01-02"

// ParseSnapshotDate normalizes a YYYY-MM-DD or RFC3339 date. An empty input
// selects the day before now, in UTC.
func ParseSnapshotDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now.UTC().AddDate(0, 0, -1).Format(SnapshotLayout), nil
	}

	if tm, err := time.Parse(SnapshotLayout, input); err == nil {
		return tm.Format(SnapshotLayout), nil
	}
	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return "", fmt.Errorf("invalid snapshot date %q: want YYYY-MM-DD", input)
	}
	return tm.UTC().Format(SnapshotLayout), nil
}

// ExpandSnapshotPath substitutes {date} in a path template.
func ExpandSnapshotPath(path, snapshot string) string {
	return strings.ReplaceAll(path, "{date}", snapshot)
}
