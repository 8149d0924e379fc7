// Package handlers provides pre-configured handlers for well-known datasets.
//
// Sheet handlers read Google Sheets, so set Handler.Extractor to a
// tabload.SheetsExtractor before adding them.
package handlers

import (
	"regexp"

	"go.nownabe.dev/tabload"
)

// Table identifies the destination table and the loader writing to it.
type Table struct {
	Name        string
	CreateTable bool
	Loader      tabload.Loader
}

func newHandler(name, pattern string, t Table, n tabload.Notifier) *tabload.Handler {
	return &tabload.Handler{
		Name:     name,
		Pattern:  regexp.MustCompile(pattern),
		Notifier: n,
		Loader:   t.Loader,
		Destination: &tabload.Destination{
			Table:       t.Name,
			CreateTable: t.CreateTable,
		},
	}
}
