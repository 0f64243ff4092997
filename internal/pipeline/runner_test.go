package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"lendingScope/internal/catalog"
	"lendingScope/internal/model"
	"lendingScope/internal/storage"
)

const (
	usdc    = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	userOne = "0x1111111111111111111111111111111111111111"
	userTwo = "0x2222222222222222222222222222222222222222"
)

func addrWord(addr string) string {
	return strings.Repeat("0", 24) + strings.ToLower(strings.TrimPrefix(addr, "0x"))
}

func rawSupply(block uint64, onBehalfOf, user string, amount uint64) map[string]interface{} {
	return map[string]interface{}{
		"blockNumber": block,
		"topics": []string{
			crypto.Keccak256Hash([]byte("Supply(address,address,address,uint256,uint16)")).Hex(),
			"0x" + addrWord(usdc),
			"0x" + addrWord(onBehalfOf),
			fmt.Sprintf("0x%064x", 0),
		},
		"data": "0x" + addrWord(user) + fmt.Sprintf("%064x", amount),
	}
}

// writeDump writes entries the way the daily export does: a JSON array of
// JSON-encoded strings.
func writeDump(t *testing.T, entries ...map[string]interface{}) string {
	t.Helper()
	encoded := make([]string, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		require.NoError(t, err)
		encoded = append(encoded, string(b))
	}
	b, err := json.Marshal(encoded)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "raw_events.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

type memorySink struct {
	mu       sync.Mutex
	tables   map[string]model.Table
	failures int
}

func (s *memorySink) WriteTable(_ context.Context, table model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	if s.tables == nil {
		s.tables = make(map[string]model.Table)
	}
	s.tables[table.Name] = table
	return nil
}

func (s *memorySink) Close() error { return nil }

func TestRunnerDecodesSnapshot(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)

	unknown := map[string]interface{}{
		"blockNumber": 5,
		"topics":      []string{crypto.Keccak256Hash([]byte("Swap(address,address,int256,int256,uint160,uint128,int24)")).Hex()},
		"data":        "0x",
	}
	supply := rawSupply(100, userOne, userTwo, 1000000)
	input := writeDump(t, supply, supply, unknown, rawSupply(101, userTwo, userTwo, 5))

	outDir := filepath.Join(t.TempDir(), "out")
	fileSink, err := storage.NewFileSink(outDir, storage.FormatCSV)
	require.NoError(t, err)
	mem := &memorySink{failures: 1}

	runner := NewRunner(RunConfig{
		SnapshotDate: "2024-01-01",
		InputPath:    input,
		Workers:      4,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, cat, []storage.Sink{fileSink, mem}, nil, zaptest.NewLogger(t))

	res, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 4, res.Classification.Total)
	assert.Equal(t, 1, res.Classification.Duplicates)
	assert.Equal(t, 1, res.Classification.Unknown)
	assert.Equal(t, 2, res.Store.Len("Supply"))
	assert.Equal(t, model.ActiveUserSet{userOne, userTwo}, res.ActiveUsers)

	rows := readCSV(t, filepath.Join(outDir, "decoded_Supply.csv"))
	assert.Equal(t, [][]string{
		{"event", "blockNumber", "reserve", "onBehalfOf", "referralCode", "user", "amount"},
		{"Supply", "100", usdc, userOne, "0", userTwo, "1000000"},
		{"Supply", "101", usdc, userTwo, "0", userTwo, "5"},
	}, rows)

	users := readCSV(t, filepath.Join(outDir, "all_active_users.csv"))
	assert.Equal(t, [][]string{{"active_user_address"}, {userOne}, {userTwo}}, users)

	borrow := readCSV(t, filepath.Join(outDir, "decoded_Borrow.csv"))
	assert.Len(t, borrow, 1)

	assert.Len(t, mem.tables, 15)
}

func TestRunnerSkipsProcessedSnapshot(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)

	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	input := writeDump(t, rawSupply(100, userOne, userTwo, 1))
	mem := &memorySink{}
	cfg := RunConfig{SnapshotDate: "2024-01-01", InputPath: input, Workers: 1}

	res, err := NewRunner(cfg, cat, []storage.Sink{mem}, state, nil).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	last, ok, err := state.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", last)

	res, err = NewRunner(cfg, cat, []storage.Sink{mem}, state, nil).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	cfg.Force = true
	res, err = NewRunner(cfg, cat, []storage.Sink{mem}, state, nil).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
}

func TestRunnerFailsOnMalformedEntry(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)

	bad := rawSupply(100, userOne, userTwo, 1)
	bad["data"] = "0x" + addrWord(userTwo)
	input := writeDump(t, bad)
	mem := &memorySink{}

	_, err = NewRunner(RunConfig{SnapshotDate: "2024-01-01", InputPath: input}, cat, []storage.Sink{mem}, nil, nil).Run(context.Background())
	require.Error(t, err)

	var malformed *model.MalformedEventError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "Supply", malformed.Event)
	assert.Empty(t, mem.tables)
}

func TestRunnerValidatesActiveUserFields(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)

	cfg := RunConfig{
		SnapshotDate:     "2024-01-01",
		InputPath:        writeDump(t),
		ActiveUserFields: map[string][]string{"Supply": {"amount"}},
	}
	_, err = NewRunner(cfg, cat, []storage.Sink{&memorySink{}}, nil, nil).Run(context.Background())
	require.Error(t, err)

	cfg.ActiveUserFields = map[string][]string{"Supply": {"user"}}
	res, err := NewRunner(cfg, cat, []storage.Sink{&memorySink{}}, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.ActiveUsers)
}

func TestRunnerGivesUpAfterRetries(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)

	mem := &memorySink{failures: 10}
	cfg := RunConfig{SnapshotDate: "2024-01-01", InputPath: writeDump(t), MaxRetries: 1, RetryBackoff: time.Millisecond}
	_, err = NewRunner(cfg, cat, []storage.Sink{mem}, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink unavailable")
}

func TestRunnerWithABIFileCatalogAggregatesUsers(t *testing.T) {
	pool, err := catalog.AaveV3Pool()
	require.NoError(t, err)
	doc, err := json.Marshal(abiDocument(t, pool))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pool.json")
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	cat, err := catalog.LoadFile(path)
	require.NoError(t, err)

	mem := &memorySink{}
	cfg := RunConfig{SnapshotDate: "2024-01-01", InputPath: writeDump(t, rawSupply(100, userOne, userTwo, 1)), Workers: 1}
	res, err := NewRunner(cfg, cat, []storage.Sink{mem}, nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Store.Len("Supply"))
	assert.Equal(t, model.ActiveUserSet{userOne, userTwo}, res.ActiveUsers)
	assert.Len(t, mem.tables["all_active_users"].Rows, 2)
}

// abiDocument renders a catalog back into ABI JSON events.
func abiDocument(t *testing.T, cat *catalog.Catalog) []map[string]interface{} {
	t.Helper()
	out := make([]map[string]interface{}, 0, len(cat.Schemas))
	for _, schema := range cat.Schemas {
		inputs := make([]map[string]interface{}, 0, len(schema.Inputs))
		for _, in := range schema.Inputs {
			inputs = append(inputs, map[string]interface{}{"indexed": in.Indexed, "name": in.Name, "type": in.Type})
		}
		out = append(out, map[string]interface{}{"anonymous": false, "inputs": inputs, "name": schema.Name, "type": "event"})
	}
	return out
}

func TestRunnerWarnsWithoutActiveUserFields(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)
	cat.ActiveUserFields = nil

	core, logs := observer.New(zap.WarnLevel)
	cfg := RunConfig{SnapshotDate: "2024-01-01", InputPath: writeDump(t, rawSupply(100, userOne, userTwo, 1))}
	res, err := NewRunner(cfg, cat, []storage.Sink{&memorySink{}}, nil, zap.New(core)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.ActiveUsers)
	require.Equal(t, 1, logs.FilterMessageSnippet("no active user fields").Len())
}
