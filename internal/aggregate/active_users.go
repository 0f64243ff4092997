package aggregate

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"lendingScope/internal/events"
	"lendingScope/internal/model"
)

// ActiveUsersTable is the table name of the aggregated address set.
const ActiveUsersTable = "all_active_users"

// TransferUsersTable is the table name of the token transfer user set. It is
// separate from ActiveUsersTable so both runs can share a database.
const TransferUsersTable = "all_transfer_users"

// ActiveUsers collects the distinct addresses found in the given fields of
// every record. Kinds that are empty or unknown to the store add nothing, and
// fields that are absent or not addresses are skipped.
func ActiveUsers(store *events.Store, fields map[string][]string) model.ActiveUserSet {
	kinds := make([]string, 0, len(fields))
	for kind := range fields {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	seen := make(map[common.Address]struct{})
	for _, kind := range kinds {
		names := fields[kind]
		for _, rec := range store.Get(kind) {
			for _, name := range names {
				v, ok := rec.Get(name)
				if !ok || v.Type != model.FieldAddress {
					continue
				}
				seen[v.Address] = struct{}{}
			}
		}
	}
	return model.NewActiveUserSet(seen)
}

// TransferUsers collects senders and receivers of decoded transfers.
func TransferUsers(transfers []model.Transfer) model.ActiveUserSet {
	seen := make(map[common.Address]struct{}, 2*len(transfers))
	for _, t := range transfers {
		seen[t.From] = struct{}{}
		seen[t.To] = struct{}{}
	}
	return model.NewActiveUserSet(seen)
}
