package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LogRecord is one raw contract log as exported by the daily dump.
// Only BlockNumber, Topics and Data are required; the rest is provenance.
type LogRecord struct {
	BlockNumber uint64   `json:"blockNumber"`
	BlockHash   string   `json:"blockHash,omitempty"`
	TxHash      string   `json:"transactionHash,omitempty"`
	TxIndex     uint64   `json:"transactionIndex,omitempty"`
	LogIndex    uint64   `json:"logIndex,omitempty"`
	Address     string   `json:"address,omitempty"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed,omitempty"`
}

// MarshalJSON ensures LogRecord is encoded with stable field names.
func (lr LogRecord) MarshalJSON() ([]byte, error) {
	type Alias LogRecord
	return json.Marshal(Alias(lr))
}

// UnmarshalJSON decodes a LogRecord, accepting block numbers and indexes as
// JSON numbers, decimal strings or 0x quantities.
func (lr *LogRecord) UnmarshalJSON(data []byte) error {
	type Alias LogRecord
	var a struct {
		Alias
		BlockNumber json.RawMessage `json:"blockNumber"`
		TxIndex     json.RawMessage `json:"transactionIndex"`
		LogIndex    json.RawMessage `json:"logIndex"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if len(a.BlockNumber) == 0 {
		return fmt.Errorf("blockNumber is required")
	}

	blockNumber, err := parseQuantity(a.BlockNumber)
	if err != nil {
		return fmt.Errorf("blockNumber: %w", err)
	}
	txIndex, err := parseQuantity(a.TxIndex)
	if err != nil {
		return fmt.Errorf("transactionIndex: %w", err)
	}
	logIndex, err := parseQuantity(a.LogIndex)
	if err != nil {
		return fmt.Errorf("logIndex: %w", err)
	}

	*lr = LogRecord(a.Alias)
	lr.BlockNumber = blockNumber
	lr.TxIndex = txIndex
	lr.LogIndex = logIndex
	return nil
}

// Key is the canonical serialization used to detect duplicate entries.
func (lr LogRecord) Key() string {
	b, err := json.Marshal(lr)
	if err != nil {
		// Only strings, bools and integers are marshalled.
		panic(fmt.Sprintf("marshal log record: %v", err))
	}
	return string(b)
}

// Topic0 returns the signature topic or "" when the entry has no topics.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}

func parseQuantity(raw json.RawMessage) (uint64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	if raw[0] != '"' {
		return strconv.ParseUint(string(raw), 10, 64)
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, err
	}
	base := 10
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		str = str[2:]
		base = 16
	}
	return strconv.ParseUint(str, base, 64)
}
