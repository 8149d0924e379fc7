package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"go.nownabe.dev/tabload"
)

var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Prints sample rows of a destination table",
	Args:  cobra.ExactArgs(1),
	RunE:  withSignalWatcher(query),
}

func query(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDestination(); err != nil {
		return err
	}

	q, err := queryFromFlags(cmd, args[0])
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	ctx = logger.WithContext(ctx)

	dst, err := newDestination(ctx, cfg.Destination)
	if err != nil {
		return fmt.Errorf("connecting to destination: %w", err)
	}
	defer dst.close()

	querier, err := dst.querier()
	if err != nil {
		return err
	}

	rows, err := querier.Query(ctx, q)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		pterm.Info.Println("no rows")
		return nil
	}

	return pterm.DefaultTable.WithHasHeader().WithData(tableData(q.Columns, rows)).Render()
}

func queryFromFlags(cmd *cobra.Command, table string) (*tabload.Query, error) {
	flags := cmd.Flags()

	pairs, err := flags.GetStringSlice("where")
	if err != nil {
		return nil, err
	}
	where, err := tabload.ParseWhere(pairs)
	if err != nil {
		return nil, err
	}

	q := &tabload.Query{Table: table, Where: where}
	if q.Columns, err = flags.GetStringSlice("columns"); err != nil {
		return nil, err
	}
	if q.OrderBy, err = flags.GetString("order-by"); err != nil {
		return nil, err
	}
	if q.Desc, err = flags.GetBool("desc"); err != nil {
		return nil, err
	}
	if q.Limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	return q, nil
}

// tableData renders rows with columns in the given order, or sorted by name
// when no order is given.
func tableData(columns []string, rows []map[string]any) pterm.TableData {
	if len(columns) == 0 {
		for c := range rows[0] {
			columns = append(columns, c)
		}
		sort.Strings(columns)
	}

	data := pterm.TableData{columns}
	for _, r := range rows {
		line := make([]string, len(columns))
		for i, c := range columns {
			line[i] = formatValue(r[c])
		}
		data = append(data, line)
	}
	return data
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
