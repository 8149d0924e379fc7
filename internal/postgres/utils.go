package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// QuoteIdentifier quotes s unless it is already quoted.
func QuoteIdentifier(s string) string {
	if IsQuotedIdentifier(s) {
		return s
	}
	return pq.QuoteIdentifier(s)
}

// QuoteQualifiedIdentifier quotes a possibly schema qualified table name
// such as public.artists.
func QuoteQualifiedIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func IsQuotedIdentifier(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

func newIdentifier(tableName string) (pgx.Identifier, error) {
	parts := strings.Split(tableName, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid table name: %s", tableName)
	}

	identifier := make(pgx.Identifier, len(parts))
	for i, p := range parts {
		identifier[i] = removeQuotes(p)
	}
	return identifier, nil
}

func removeQuotes(s string) string {
	return strings.Trim(s, `"`)
}
