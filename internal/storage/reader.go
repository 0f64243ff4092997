package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"lendingScope/internal/model"
)

// ReadLogRecords loads raw pool logs from path.
func ReadLogRecords(path string) ([]model.LogRecord, error) {
	return readFile[model.LogRecord](path)
}

// ReadTransferRecords loads raw token transfer logs from path.
func ReadTransferRecords(path string) ([]model.TransferLogRecord, error) {
	return readFile[model.TransferLogRecord](path)
}

func readFile[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return ReadRecords[T](file)
}

// ReadRecords accepts a JSON array of objects, a JSON array of strings that
// each hold one JSON object, or JSON lines.
func ReadRecords[T any](r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if first == '[' {
		return readArray[T](br)
	}
	return readLines[T](br)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func readArray[T any](r io.Reader) ([]T, error) {
	dec := json.NewDecoder(r)
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read array start: %w", err)
	}

	out := make([]T, 0)
	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		item, err := decodeEntry[T](raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, item)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read array end: %w", err)
	}
	return out, nil
}

func readLines[T any](r io.Reader) ([]T, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	out := make([]T, 0)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		item, err := decodeEntry[T](raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return out, nil
}

// decodeEntry parses an object, or a string holding an encoded object.
func decodeEntry[T any](raw []byte) (T, error) {
	var item T
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return item, err
		}
		raw = []byte(encoded)
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, err
	}
	return item, nil
}
