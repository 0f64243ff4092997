package model

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Value is a decoded field: an address or an unsigned integer.
type Value struct {
	Type    FieldType
	Address common.Address
	Int     *big.Int
}

// AddressValue wraps an address.
func AddressValue(addr common.Address) Value {
	return Value{Type: FieldAddress, Address: addr}
}

// UintValue wraps an unsigned integer.
func UintValue(v *big.Int) Value {
	return Value{Type: FieldUint, Int: v}
}

// String renders addresses as EIP-55 checksum and integers in decimal.
func (v Value) String() string {
	switch v.Type {
	case FieldAddress:
		return v.Address.Hex()
	case FieldUint:
		if v.Int == nil {
			return "0"
		}
		return v.Int.String()
	default:
		return ""
	}
}

// MarshalJSON encodes the value as a JSON string so 256-bit integers survive.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// NamedValue is one decoded field.
type NamedValue struct {
	Name  string
	Value Value
}

// DecodedRecord is the typed form of one classified log.
type DecodedRecord struct {
	Event       string
	BlockNumber uint64
	// Fields follow the schema: indexed inputs first, then data inputs.
	Fields []NamedValue
}

// Get returns the value of a named field.
func (r DecodedRecord) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Row renders the record in column order.
func (r DecodedRecord) Row() []string {
	row := make([]string, 0, len(r.Fields)+2)
	row = append(row, r.Event, strconv.FormatUint(r.BlockNumber, 10))
	for _, f := range r.Fields {
		row = append(row, f.Value.String())
	}
	return row
}

// MarshalJSON writes an object with event, blockNumber and the fields in order.
func (r DecodedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"event":`)
	name, err := json.Marshal(r.Event)
	if err != nil {
		return nil, err
	}
	buf.Write(name)
	buf.WriteString(`,"blockNumber":`)
	buf.WriteString(strconv.FormatUint(r.BlockNumber, 10))
	for _, f := range r.Fields {
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
