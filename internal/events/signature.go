package events

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"lendingScope/internal/model"
)

// SchemaCollisionError is returned when two schemas hash to the same topic0.
type SchemaCollisionError struct {
	Hash   common.Hash
	First  string
	Second string
}

func (e *SchemaCollisionError) Error() string {
	return fmt.Sprintf("event signature collision on %s: %s and %s", e.Hash.Hex(), e.First, e.Second)
}

// IndexEntry is one row of the signature index.
type IndexEntry struct {
	Kind      string
	Signature string
	Hash      common.Hash
}

// SignatureIndex maps topic0 hashes to event kinds. It is read-only once built.
type SignatureIndex struct {
	byHash  map[common.Hash]string
	entries []IndexEntry
}

// BuildIndex hashes the canonical signature of every schema.
func BuildIndex(schemas []model.EventSchema) (*SignatureIndex, error) {
	idx := &SignatureIndex{
		byHash:  make(map[common.Hash]string, len(schemas)),
		entries: make([]IndexEntry, 0, len(schemas)),
	}
	kinds := make(map[string]struct{}, len(schemas))

	for _, schema := range schemas {
		sig := schema.Signature()
		hash := crypto.Keccak256Hash([]byte(sig))
		if existing, ok := idx.byHash[hash]; ok {
			return nil, &SchemaCollisionError{Hash: hash, First: existing, Second: schema.Name}
		}
		if _, ok := kinds[schema.Name]; ok {
			return nil, fmt.Errorf("duplicate event kind %s", schema.Name)
		}
		kinds[schema.Name] = struct{}{}
		idx.byHash[hash] = schema.Name
		idx.entries = append(idx.entries, IndexEntry{Kind: schema.Name, Signature: sig, Hash: hash})
	}

	sort.Slice(idx.entries, func(i, j int) bool { return idx.entries[i].Kind < idx.entries[j].Kind })
	return idx, nil
}

// Lookup resolves a 0x-prefixed topic0 in any letter case.
func (i *SignatureIndex) Lookup(topic0 string) (string, bool) {
	hash, err := parseTopic(topic0)
	if err != nil {
		return "", false
	}
	kind, ok := i.byHash[hash]
	return kind, ok
}

// Len is the number of indexed kinds.
func (i *SignatureIndex) Len() int {
	return len(i.byHash)
}

// Entries lists the index sorted by kind.
func (i *SignatureIndex) Entries() []IndexEntry {
	return append([]IndexEntry(nil), i.entries...)
}

func parseTopic(value string) (common.Hash, error) {
	b, err := hexutil.Decode(value)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid topic %q: %w", value, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("topic must be %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
