package model

import (
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// TransferLogRecord is a raw token transfer log tagged with its reserve.
type TransferLogRecord struct {
	Log     LogRecord
	Reserve string
}

// UnmarshalJSON reads the log fields and the out-of-band reserve from the
// same object.
func (r *TransferLogRecord) UnmarshalJSON(data []byte) error {
	var lr LogRecord
	if err := json.Unmarshal(data, &lr); err != nil {
		return err
	}
	var extra struct {
		Reserve string `json:"reserve"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	r.Log = lr
	r.Reserve = extra.Reserve
	return nil
}

// Transfer is a decoded token transfer.
type Transfer struct {
	BlockNumber uint64
	Reserve     string
	From        common.Address
	To          common.Address
	Amount      *big.Int
}

// TransferColumns is the tabular layout of decoded transfers.
var TransferColumns = []string{"blockNumber", "reserve", "from", "to", "amount"}

// Row renders the transfer in TransferColumns order.
func (t Transfer) Row() []string {
	amount := "0"
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	return []string{
		strconv.FormatUint(t.BlockNumber, 10),
		t.Reserve,
		t.From.Hex(),
		t.To.Hex(),
		amount,
	}
}
