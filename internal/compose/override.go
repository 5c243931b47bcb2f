package compose

import "github.com/dotcommander/lintcompose/internal/types"

// ApplyOverrides returns a copy of table with entries applied on top. An entry
// replaces any existing entry with the same ID or is inserted. Identifiers are
// not checked against providers here.
func ApplyOverrides(table types.RuleTable, entries []types.RuleEntry) types.RuleTable {
	out := table.Clone()
	for _, e := range entries {
		out.Set(e)
	}
	return out
}
