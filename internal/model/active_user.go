package model

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// ActiveUserColumn is the single column of the active user table.
const ActiveUserColumn = "active_user_address"

// ActiveUserSet is a sorted, duplicate-free list of checksummed addresses.
type ActiveUserSet []string

// NewActiveUserSet builds the set from addresses in any order.
func NewActiveUserSet(addrs map[common.Address]struct{}) ActiveUserSet {
	out := make(ActiveUserSet, 0, len(addrs))
	for addr := range addrs {
		out = append(out, addr.Hex())
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the checksummed address is in the set.
func (s ActiveUserSet) Contains(addr string) bool {
	i := sort.SearchStrings(s, addr)
	return i < len(s) && s[i] == addr
}

// Table renders the set under the given table name.
func (s ActiveUserSet) Table(name string) Table {
	rows := make([][]string, 0, len(s))
	for _, addr := range s {
		rows = append(rows, []string{addr})
	}
	return Table{Name: name, Columns: []string{ActiveUserColumn}, Rows: rows}
}
