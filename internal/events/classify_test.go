package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendingScope/internal/model"
)

func TestClassifyDedupAndUnknown(t *testing.T) {
	idx, err := BuildIndex(aaveCatalog(t).Schemas)
	require.NoError(t, err)

	first := supplyEntry(100, userOne, userTwo, 1000000)
	second := supplyEntry(101, userThree, userTwo, 5)
	withdraw := withdrawEntry(102, userOne, userOne, 7)
	unknown := model.LogRecord{
		BlockNumber: 103,
		Topics:      []string{topicHash("Swap(address,address,int256,int256,uint160,uint128,int24)")},
		Data:        "0x",
	}
	noTopics := model.LogRecord{BlockNumber: 104, Data: "0x"}

	got := Classify([]model.LogRecord{first, second, first, withdraw, unknown, noTopics, withdraw}, idx)

	assert.Equal(t, 7, got.Total)
	assert.Equal(t, 2, got.Duplicates)
	assert.Equal(t, 2, got.Unknown)
	assert.Equal(t, 3, got.Classified())
	assert.Len(t, got.Buckets, 14)
	assert.Equal(t, []model.LogRecord{first, second}, got.Buckets["Supply"])
	assert.Equal(t, []model.LogRecord{withdraw}, got.Buckets["Withdraw"])

	borrow, ok := got.Buckets["Borrow"]
	require.True(t, ok)
	assert.Empty(t, borrow)
}

func TestClassifyDedupLaw(t *testing.T) {
	idx, err := BuildIndex(aaveCatalog(t).Schemas)
	require.NoError(t, err)

	entries := []model.LogRecord{
		supplyEntry(100, userOne, userTwo, 1),
		withdrawEntry(101, userOne, userTwo, 2),
	}
	doubled := append(append([]model.LogRecord{}, entries...), entries...)

	once := Classify(entries, idx)
	twice := Classify(doubled, idx)
	assert.Equal(t, once.Buckets, twice.Buckets)
	assert.Equal(t, 2, twice.Duplicates)
}

func TestClassifyEmptyBatch(t *testing.T) {
	idx, err := BuildIndex(aaveCatalog(t).Schemas)
	require.NoError(t, err)

	got := Classify(nil, idx)
	assert.Zero(t, got.Total)
	assert.Len(t, got.Buckets, 14)
	assert.Zero(t, got.Classified())
}
