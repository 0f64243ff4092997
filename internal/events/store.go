package events

import (
	"fmt"

	"lendingScope/internal/model"
)

// TablePrefix names the per-kind decoded tables, e.g. decoded_Supply.
const TablePrefix = "decoded_"

// Store holds decoded records per kind. It is append-only and exposes a
// possibly empty sequence for every kind it was created with.
type Store struct {
	schemas []model.EventSchema
	records map[string][]model.DecodedRecord
}

// NewStore creates an empty store for the given kinds.
func NewStore(schemas []model.EventSchema) *Store {
	s := &Store{
		schemas: append([]model.EventSchema(nil), schemas...),
		records: make(map[string][]model.DecodedRecord, len(schemas)),
	}
	for _, schema := range schemas {
		s.records[schema.Name] = []model.DecodedRecord{}
	}
	return s
}

// RecordAll appends records to a kind.
func (s *Store) RecordAll(kind string, recs []model.DecodedRecord) error {
	existing, ok := s.records[kind]
	if !ok {
		return fmt.Errorf("store: unknown event kind %s", kind)
	}
	s.records[kind] = append(existing, recs...)
	return nil
}

// Get returns a copy of a kind's records; unknown kinds yield nil.
func (s *Store) Get(kind string) []model.DecodedRecord {
	recs, ok := s.records[kind]
	if !ok {
		return nil
	}
	return append([]model.DecodedRecord{}, recs...)
}

// Len is the number of records of a kind.
func (s *Store) Len(kind string) int {
	return len(s.records[kind])
}

// Kinds lists kinds in catalog order.
func (s *Store) Kinds() []string {
	kinds := make([]string, 0, len(s.schemas))
	for _, schema := range s.schemas {
		kinds = append(kinds, schema.Name)
	}
	return kinds
}

// Table renders a kind's records in schema column order.
func (s *Store) Table(kind string) (model.Table, error) {
	for _, schema := range s.schemas {
		if schema.Name != kind {
			continue
		}
		recs := s.records[kind]
		rows := make([][]string, 0, len(recs))
		for _, rec := range recs {
			rows = append(rows, rec.Row())
		}
		return model.Table{Name: TablePrefix + kind, Columns: schema.Columns(), Rows: rows}, nil
	}
	return model.Table{}, fmt.Errorf("store: unknown event kind %s", kind)
}

// Tables renders every kind, including empty ones.
func (s *Store) Tables() []model.Table {
	tables := make([]model.Table, 0, len(s.schemas))
	for _, schema := range s.schemas {
		table, _ := s.Table(schema.Name)
		tables = append(tables, table)
	}
	return tables
}
