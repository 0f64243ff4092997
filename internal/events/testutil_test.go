package events

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"lendingScope/internal/catalog"
	"lendingScope/internal/model"
)

const (
	usdc      = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	weth      = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	userOne   = "0x1111111111111111111111111111111111111111"
	userTwo   = "0x2222222222222222222222222222222222222222"
	userThree = "0x3333333333333333333333333333333333333333"
)

func topicHash(signature string) string {
	return crypto.Keccak256Hash([]byte(signature)).Hex()
}

// addressWord left-pads an address to a 32-byte hex word without 0x.
func addressWord(addr string) string {
	return strings.Repeat("0", 24) + strings.ToLower(strings.TrimPrefix(addr, "0x"))
}

func addressTopic(addr string) string {
	return "0x" + addressWord(addr)
}

func uintWord(v uint64) string {
	return fmt.Sprintf("%064x", v)
}

func uintTopic(v uint64) string {
	return "0x" + uintWord(v)
}

func data(words ...string) string {
	return "0x" + strings.Join(words, "")
}

func aaveCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.AaveV3Pool()
	require.NoError(t, err)
	return cat
}

func schemaFor(t *testing.T, cat *catalog.Catalog, kind string) model.EventSchema {
	t.Helper()
	schema, ok := cat.Schema(kind)
	require.True(t, ok, kind)
	return schema
}

func supplyEntry(block uint64, onBehalfOf, user string, amount uint64) model.LogRecord {
	return model.LogRecord{
		BlockNumber: block,
		Topics: []string{
			topicHash("Supply(address,address,address,uint256,uint16)"),
			addressTopic(usdc),
			addressTopic(onBehalfOf),
			uintTopic(7),
		},
		Data: data(addressWord(user), uintWord(amount)),
	}
}

func withdrawEntry(block uint64, user, to string, amount uint64) model.LogRecord {
	return model.LogRecord{
		BlockNumber: block,
		Topics: []string{
			topicHash("Withdraw(address,address,address,uint256)"),
			addressTopic(weth),
			addressTopic(user),
			addressTopic(to),
		},
		Data: data(uintWord(amount)),
	}
}
