package tabload

import (
	"context"
	"strings"

	"golang.org/x/xerrors"
)

// Loader writes validated records into a destination.
//
// A call to Load is one unit of work: it uses a single transaction or job
// and returns the number of rows written.
type Loader interface {
	Load(context.Context, *Destination, *Schema, []ValidatedRecord) (int64, error)
}

// Querier reads rows back from a destination.
type Querier interface {
	Query(context.Context, *Query) ([]map[string]any, error)
}

// Mode is the write mode of a destination.
type Mode string

const (
	// ModeReplace deletes existing rows before inserting.
	ModeReplace Mode = "replace"
	// ModeAppend keeps existing rows.
	ModeAppend Mode = "append"
)

// ParseMode parses "replace" or "append". An empty string means append.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeReplace:
		return ModeReplace, nil
	case ModeAppend, "":
		return ModeAppend, nil
	default:
		return "", xerrors.Errorf("unknown mode %q", s)
	}
}

// Destination is the table records are loaded into.
type Destination struct {
	// Table may be qualified, e.g. "public.artists" or "dataset.artists".
	Table string
	Mode  Mode

	// CreateTable creates the table from the schema when it does not exist.
	CreateTable bool
	PrimaryKey  []string

	// SkipDuplicates drops rows conflicting with existing keys instead of
	// failing the load.
	SkipDuplicates bool
}

func (d *Destination) validate(s *Schema) error {
	if d == nil || d.Table == "" {
		return xerrors.New("destination table is required")
	}
	for _, k := range d.PrimaryKey {
		found := false
		for _, n := range s.Names() {
			if n == k {
				found = true
				break
			}
		}
		if !found {
			return xerrors.Errorf("primary key %q is not a schema field", k)
		}
	}
	return nil
}

func rowsOf(s *Schema, records []ValidatedRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = s.Values(r)
	}
	return rows
}
