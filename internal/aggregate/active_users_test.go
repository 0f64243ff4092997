package aggregate

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendingScope/internal/catalog"
	"lendingScope/internal/events"
	"lendingScope/internal/model"
)

func word(addr common.Address) string {
	return strings.Repeat("0", 24) + strings.TrimPrefix(strings.ToLower(addr.Hex()), "0x")
}

func supplyLog(block uint64, onBehalfOf, user common.Address) model.LogRecord {
	reserve := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	return model.LogRecord{
		BlockNumber: block,
		Topics: []string{
			crypto.Keccak256Hash([]byte("Supply(address,address,address,uint256,uint16)")).Hex(),
			"0x" + word(reserve),
			"0x" + word(onBehalfOf),
			"0x" + fmt.Sprintf("%064x", 0),
		},
		Data: "0x" + word(user) + fmt.Sprintf("%064x", 1000),
	}
}

func decodeStore(t *testing.T, cat *catalog.Catalog, entries []model.LogRecord) *events.Store {
	t.Helper()
	idx, err := events.BuildIndex(cat.Schemas)
	require.NoError(t, err)
	store, err := events.DecodeAll(context.Background(), events.Classify(entries, idx).Buckets, cat.Schemas, 2)
	require.NoError(t, err)
	return store
}

func TestActiveUsersWithEmptyKinds(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)

	a := common.HexToAddress("0x0000000000000000000000000000000000000011")
	b := common.HexToAddress("0x0000000000000000000000000000000000000022")
	c := common.HexToAddress("0x0000000000000000000000000000000000000033")

	entries := []model.LogRecord{
		supplyLog(1, a, b),
		supplyLog(2, b, c),
		supplyLog(3, a, a),
	}
	store := decodeStore(t, cat, entries)

	users := ActiveUsers(store, cat.ActiveUserFields)
	assert.Equal(t, model.ActiveUserSet{a.Hex(), b.Hex(), c.Hex()}, users)

	reversed := []model.LogRecord{entries[2], entries[1], entries[0]}
	assert.Equal(t, users, ActiveUsers(decodeStore(t, cat, reversed), cat.ActiveUserFields))
}

func TestActiveUsersSkipsUnknownKindsAndFields(t *testing.T) {
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)

	a := common.HexToAddress("0x0000000000000000000000000000000000000011")
	store := decodeStore(t, cat, []model.LogRecord{supplyLog(1, a, a)})

	users := ActiveUsers(store, map[string][]string{
		"Swap":   {"sender"},
		"Supply": {"missing", "amount", "user"},
	})
	assert.Equal(t, model.ActiveUserSet{a.Hex()}, users)

	assert.Empty(t, ActiveUsers(events.NewStore(cat.Schemas), cat.ActiveUserFields))
}

func TestTransferUsers(t *testing.T) {
	a := common.HexToAddress("0x0000000000000000000000000000000000000011")
	b := common.HexToAddress("0x0000000000000000000000000000000000000022")

	users := TransferUsers([]model.Transfer{
		{From: a, To: b, Amount: big.NewInt(1)},
		{From: b, To: a, Amount: big.NewInt(2)},
	})
	assert.Equal(t, model.ActiveUserSet{a.Hex(), b.Hex()}, users)

	table := users.Table(TransferUsersTable)
	assert.Equal(t, "all_transfer_users", table.Name)
	assert.Len(t, table.Rows, 2)
}
