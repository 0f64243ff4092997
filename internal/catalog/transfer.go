package catalog

import "lendingScope/internal/model"

// TransferLayout is the fixed layout shared by ERC-20 Transfer and AToken
// BalanceTransfer logs. BalanceTransfer carries an extra index word, so
// trailing data is accepted.
func TransferLayout() model.EventSchema {
	return model.EventSchema{
		Name: "Transfer",
		Inputs: []model.FieldSpec{
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "amount", Type: "uint256"},
		},
		AllowTrailingData: true,
	}
}
