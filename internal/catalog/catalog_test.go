package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendingScope/internal/model"
)

func TestAaveV3PoolCatalog(t *testing.T) {
	cat, err := AaveV3Pool()
	require.NoError(t, err)
	require.NoError(t, cat.Validate())

	assert.Len(t, cat.Schemas, 14)
	assert.Equal(t, "BackUnbacked", cat.Kinds()[0])
	assert.Equal(t, "Withdraw", cat.Kinds()[13])

	supply, ok := cat.Schema("Supply")
	require.True(t, ok)
	assert.Equal(t, "Supply(address,address,address,uint256,uint16)", supply.Signature())

	borrow, ok := cat.Schema("Borrow")
	require.True(t, ok)
	assert.Equal(t, "Borrow(address,address,address,uint256,uint8,uint256,uint16)", borrow.Signature())

	liq, ok := cat.Schema("LiquidationCall")
	require.True(t, ok)
	assert.Equal(t, "LiquidationCall(address,address,address,uint256,uint256,address,bool)", liq.Signature())

	assert.ElementsMatch(t, []string{"onBehalfOf", "user"}, cat.ActiveUserFields["MintUnbacked"])
	_, ok = cat.ActiveUserFields["ReserveDataUpdated"]
	assert.False(t, ok)
}

func TestAaveV3SignaturesMatchABIIDs(t *testing.T) {
	parsed, err := loadAaveV3PoolABI()
	require.NoError(t, err)

	cat, err := AaveV3Pool()
	require.NoError(t, err)

	for _, schema := range cat.Schemas {
		ev, ok := parsed.Events[schema.Name]
		require.True(t, ok, schema.Name)
		assert.Equal(t, ev.Sig, schema.Signature())
		assert.Equal(t, ev.ID, crypto.Keccak256Hash([]byte(schema.Signature())))
	}
}

func TestDefaultActiveUserFieldsIsACopy(t *testing.T) {
	a := DefaultActiveUserFields()
	a["Supply"][0] = "changed"
	b := DefaultActiveUserFields()
	assert.Equal(t, "onBehalfOf", b["Supply"][0])
}

func TestFromABISelectsEvents(t *testing.T) {
	cat, err := FromABI(strings.NewReader(aaveV3PoolABIJSON), "Supply", "Withdraw")
	require.NoError(t, err)
	assert.Equal(t, []string{"Supply", "Withdraw"}, cat.Kinds())
	assert.Equal(t, map[string][]string{
		"Supply":   {"onBehalfOf", "user"},
		"Withdraw": {"user", "to"},
	}, cat.ActiveUserFields)

	_, err = FromABI(strings.NewReader(aaveV3PoolABIJSON), "Swap")
	require.Error(t, err)
}

func TestFromABIRejectsDynamicTypes(t *testing.T) {
	doc := `[{"anonymous":false,"inputs":[{"indexed":false,"name":"memo","type":"string"}],"name":"Note","type":"event"}]`
	_, err := FromABI(strings.NewReader(doc))
	require.Error(t, err)
}

func TestFromABISkipsAnonymousEvents(t *testing.T) {
	doc := `[
		{"anonymous":true,"inputs":[{"indexed":false,"name":"a","type":"uint256"}],"name":"Anon","type":"event"},
		{"anonymous":false,"inputs":[{"indexed":true,"name":"a","type":"address"}],"name":"Named","type":"event"}
	]`
	cat, err := FromABI(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Named"}, cat.Kinds())
	assert.Nil(t, cat.ActiveUserFields)
}

const yamlCatalog = `
events:
  - name: Supply
    inputs:
      - {name: reserve, type: address, indexed: true}
      - {name: user, type: address}
      - {name: onBehalfOf, type: address, indexed: true}
      - {name: amount, type: uint256}
      - {name: referralCode, type: uint16, indexed: true}
  - name: BalanceTransfer
    allow_trailing_data: true
    inputs:
      - {name: from, type: address, indexed: true}
      - {name: to, type: address, indexed: true}
      - {name: value, type: uint256}
active_user_fields:
  Supply: [onBehalfOf, user]
  BalanceTransfer: [from, to]
`

func TestFromYAML(t *testing.T) {
	cat, err := FromYAML(strings.NewReader(yamlCatalog))
	require.NoError(t, err)

	assert.Equal(t, []string{"Supply", "BalanceTransfer"}, cat.Kinds())
	bt, ok := cat.Schema("BalanceTransfer")
	require.True(t, ok)
	assert.True(t, bt.AllowTrailingData)
	assert.Equal(t, []string{"from", "to"}, cat.ActiveUserFields["BalanceTransfer"])
}

func TestFromYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := FromYAML(strings.NewReader("events:\n  - name: X\n    inputs: []\n    extra: 1\n"))
	require.Error(t, err)
}

func TestValidateAddressFields(t *testing.T) {
	cat, err := AaveV3Pool()
	require.NoError(t, err)

	tests := []struct {
		name    string
		fields  map[string][]string
		wantErr bool
	}{
		{name: "default", fields: DefaultActiveUserFields()},
		{name: "empty", fields: nil},
		{name: "unknown kind", fields: map[string][]string{"Swap": {"sender"}}, wantErr: true},
		{name: "unknown field", fields: map[string][]string{"Supply": {"owner"}}, wantErr: true},
		{name: "not an address", fields: map[string][]string{"Supply": {"amount"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddressFields(cat.Schemas, tt.fields)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	abiPath := filepath.Join(dir, "pool.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(aaveV3PoolABIJSON), 0o644))
	cat, err := LoadFile(abiPath)
	require.NoError(t, err)
	assert.Len(t, cat.Schemas, 14)
	assert.Equal(t, DefaultActiveUserFields(), cat.ActiveUserFields)
	require.NoError(t, cat.Validate())

	yamlPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlCatalog), 0o644))
	cat, err = LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, cat.Schemas, 2)

	cat, err = LoadFile("")
	require.NoError(t, err)
	assert.Len(t, cat.Schemas, 14)

	_, err = LoadFile(filepath.Join(dir, "catalog.toml"))
	require.Error(t, err)
}

func TestTransferLayout(t *testing.T) {
	layout := TransferLayout()
	require.NoError(t, layout.Validate())
	assert.Equal(t, "Transfer(address,address,uint256)", layout.Signature())
	assert.True(t, layout.AllowTrailingData)
	assert.Equal(t, []model.FieldSpec{{Name: "amount", Type: "uint256"}}, layout.DataFields())
}

func TestResolveFieldMap(t *testing.T) {
	cat, err := AaveV3Pool()
	require.NoError(t, err)

	got, err := cat.ResolveFieldMap(map[string][]string{"supply": {"user"}, "LIQUIDATIONCALL": {"liquidator"}})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"Supply": {"user"}, "LiquidationCall": {"liquidator"}}, got)

	_, err = cat.ResolveFieldMap(map[string][]string{"swap": {"sender"}})
	require.Error(t, err)

	_, err = cat.ResolveFieldMap(map[string][]string{"supply": nil})
	require.Error(t, err)

	got, err = cat.ResolveFieldMap(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFromABIDefaultsSkipMismatchedKinds(t *testing.T) {
	doc := `[
		{"anonymous":false,"inputs":[
			{"indexed":true,"name":"user","type":"address"},
			{"indexed":false,"name":"onBehalfOf","type":"uint256"}
		],"name":"Supply","type":"event"},
		{"anonymous":false,"inputs":[{"indexed":true,"name":"user","type":"address"}],"name":"UserEModeSet","type":"event"}
	]`
	cat, err := FromABI(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"UserEModeSet": {"user"}}, cat.ActiveUserFields)
}
