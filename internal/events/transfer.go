package events

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"lendingScope/internal/catalog"
	"lendingScope/internal/model"
)

// TransferResult holds decoded transfers and the mints filtered out.
type TransferResult struct {
	Transfers []model.Transfer
	Mints     int
}

// Table renders the decoded transfers.
func (r TransferResult) Table() model.Table {
	rows := make([][]string, 0, len(r.Transfers))
	for _, t := range r.Transfers {
		rows = append(rows, t.Row())
	}
	return model.Table{Name: TablePrefix + "transfers", Columns: model.TransferColumns, Rows: rows}
}

// DecodeTransfers decodes every entry with the fixed transfer layout. Entries
// are not classified by topic0. Transfers from the zero address are mints
// and are dropped.
func DecodeTransfers(entries []model.TransferLogRecord) (TransferResult, error) {
	layout := catalog.TransferLayout()
	res := TransferResult{Transfers: make([]model.Transfer, 0, len(entries))}

	for i, entry := range entries {
		rec, err := Decode(entry.Log, layout)
		if err != nil {
			var malformed *model.MalformedEventError
			if errors.As(err, &malformed) {
				malformed.Index = i
			}
			return TransferResult{}, err
		}

		from, _ := rec.Get("from")
		to, _ := rec.Get("to")
		amount, _ := rec.Get("amount")

		if from.Address == (common.Address{}) {
			res.Mints++
			continue
		}
		res.Transfers = append(res.Transfers, model.Transfer{
			BlockNumber: rec.BlockNumber,
			Reserve:     entry.Reserve,
			From:        from.Address,
			To:          to.Address,
			Amount:      amount.Int,
		})
	}
	return res, nil
}
