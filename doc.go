/*
Package tabload is a small ETL framework to load tabular data, such as
CSV files on Cloud Storage or Google Sheets ranges, into SQL databases and
BigQuery after validating every row against a schema.

Getting started

A handler binds a source pattern to a parser, a schema and a destination.
Rows that do not satisfy the schema are rejected and reported, the others
are loaded.

	package myfunc

	import (
		"context"
		"os"
		"regexp"

		"go.nownabe.dev/tabload"
	)

	var loader tabload.TabLoader

	func init() {
		ctx := context.Background()

		var err error
		loader, err = tabload.New(tabload.WithRejectionLog(os.Stdout))
		if err != nil {
			panic(err)
		}

		pg, err := tabload.NewPostgresLoader(ctx, os.Getenv("DATABASE_URL"), nil)
		if err != nil {
			panic(err)
		}

		loader.MustAddHandler(ctx, &tabload.Handler{
			Name:    "artists",
			Pattern: regexp.MustCompile(`^moma/Artists\.csv$`),
			Parser:  tabload.CSVParser(),
			Schema: tabload.MustSchema(
				tabload.Field{Name: "DisplayName", Type: tabload.String},
				tabload.Field{Name: "BeginDate", Type: tabload.Int},
				tabload.Field{Name: "EndDate", Type: tabload.Int},
			),
			Destination: &tabload.Destination{Table: "artists", Mode: tabload.ModeReplace},
			Loader:      pg,
		})
	}

	// Load is the entrypoint for Cloud Functions.
	func Load(ctx context.Context, e tabload.Event) error {
		return loader.Handle(ctx, e)
	}

Validation

Validate is usable on its own. Each record is checked field by field in
schema order and the first failure rejects it:

	validated, rejections := tabload.Validate(records, schema)
	for _, r := range rejections {
		fmt.Println(r) // row 1: TypeCoercionFailure:BeginDate
	}

*/
package tabload
