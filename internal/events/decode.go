package events

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"lendingScope/internal/model"
)

const wordSize = 32

// Decode turns one classified entry into a record following the schema:
// indexed fields come from topics[1:], data fields from consecutive 32-byte
// words of data. Index on a returned MalformedEventError is left at zero.
func Decode(entry model.LogRecord, schema model.EventSchema) (model.DecodedRecord, error) {
	malformed := func(format string, args ...interface{}) error {
		return &model.MalformedEventError{
			Event:       schema.Name,
			BlockNumber: entry.BlockNumber,
			Reason:      fmt.Sprintf(format, args...),
		}
	}

	indexed := schema.IndexedFields()
	dataFields := schema.DataFields()

	if len(entry.Topics) < 1+len(indexed) {
		return model.DecodedRecord{}, malformed("expected %d topics, got %d", 1+len(indexed), len(entry.Topics))
	}

	data, err := hexutil.Decode(entry.Data)
	if err != nil {
		return model.DecodedRecord{}, malformed("invalid data: %v", err)
	}
	if len(data)%wordSize != 0 {
		return model.DecodedRecord{}, malformed("data length %d is not a multiple of %d", len(data), wordSize)
	}
	want := wordSize * len(dataFields)
	if len(data) < want {
		return model.DecodedRecord{}, malformed("expected %d data bytes, got %d", want, len(data))
	}
	if len(data) > want && !schema.AllowTrailingData {
		return model.DecodedRecord{}, malformed("unexpected %d trailing data bytes", len(data)-want)
	}

	rec := model.DecodedRecord{
		Event:       schema.Name,
		BlockNumber: entry.BlockNumber,
		Fields:      make([]model.NamedValue, 0, len(indexed)+len(dataFields)),
	}

	for i, field := range indexed {
		word, err := parseTopic(entry.Topics[1+i])
		if err != nil {
			return model.DecodedRecord{}, malformed("topic %d (%s): %v", 1+i, field.Name, err)
		}
		value, err := decodeWord(field, word.Bytes())
		if err != nil {
			return model.DecodedRecord{}, malformed("%v", err)
		}
		rec.Fields = append(rec.Fields, model.NamedValue{Name: field.Name, Value: value})
	}

	for i, field := range dataFields {
		value, err := decodeWord(field, data[i*wordSize:(i+1)*wordSize])
		if err != nil {
			return model.DecodedRecord{}, malformed("%v", err)
		}
		rec.Fields = append(rec.Fields, model.NamedValue{Name: field.Name, Value: value})
	}

	return rec, nil
}

// decodeWord reads a static value from a full 32-byte word. Addresses are
// the low 20 bytes; integers use the whole word, big-endian.
func decodeWord(field model.FieldSpec, word []byte) (model.Value, error) {
	kind, err := field.Kind()
	if err != nil {
		return model.Value{}, err
	}
	switch kind {
	case model.FieldAddress:
		return model.AddressValue(common.BytesToAddress(word[wordSize-common.AddressLength:])), nil
	default:
		return model.UintValue(new(big.Int).SetBytes(word)), nil
	}
}

// DecodeBucket decodes every entry of one kind. The first malformed entry
// aborts the bucket and is reported with its position.
func DecodeBucket(entries []model.LogRecord, schema model.EventSchema) ([]model.DecodedRecord, error) {
	out := make([]model.DecodedRecord, 0, len(entries))
	for i, entry := range entries {
		rec, err := Decode(entry, schema)
		if err != nil {
			var malformed *model.MalformedEventError
			if errors.As(err, &malformed) {
				malformed.Index = i
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeAll decodes every bucket into a new store. Kinds are decoded
// concurrently, at most workers at a time, each into its own slot; the store
// is filled only after all of them finished.
func DecodeAll(ctx context.Context, buckets map[string][]model.LogRecord, schemas []model.EventSchema, workers int) (*Store, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([][]model.DecodedRecord, len(schemas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, schema := range schemas {
		i, schema := i, schema
		entries := buckets[schema.Name]
		if len(entries) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := DecodeBucket(entries, schema)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	store := NewStore(schemas)
	for i, schema := range schemas {
		if err := store.RecordAll(schema.Name, results[i]); err != nil {
			return nil, err
		}
	}
	return store, nil
}
