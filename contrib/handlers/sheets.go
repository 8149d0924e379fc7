package handlers

import (
	"go.nownabe.dev/tabload"
)

var weatherSchema = tabload.MustSchema(
	tabload.Field{Name: "location", Type: tabload.String},
	tabload.Field{Name: "state", Type: tabload.String},
	tabload.Field{Name: "country", Type: tabload.String},
	tabload.Field{Name: "wind_direction", Type: tabload.String},
	tabload.Field{Name: "temp_c", Type: tabload.Float},
	tabload.Field{Name: "wind_kph", Type: tabload.Float},
	tabload.Field{Name: "latitude", Type: tabload.Float},
	tabload.Field{Name: "longitude", Type: tabload.Float},
	tabload.Field{Name: "timestamp", Type: tabload.Timestamp, Nullable: true},
)

var githubRecordsSchema = tabload.MustSchema(
	tabload.Field{Name: "Repository_Name", Type: tabload.String},
	tabload.Field{Name: "Language_Used", Type: tabload.String, Nullable: true},
	tabload.Field{Name: "Description", Type: tabload.String, Nullable: true},
	tabload.Field{Name: "Datetime_Posted", Type: tabload.String},
)

// WeatherSheet builds a handler for the "Weather" sheet of weather
// observations. Records are appended.
func WeatherSheet(name, pattern string, t Table, n tabload.Notifier) *tabload.Handler {
	h := newHandler(name, pattern, t, n)
	h.Parser = tabload.ValuesParser()
	h.Schema = weatherSchema
	h.Destination.Mode = tabload.ModeAppend

	return h
}

// GithubRecordsSheet builds a handler for a sheet of GitHub repositories.
// The table is replaced on every load.
func GithubRecordsSheet(name, pattern string, t Table, n tabload.Notifier) *tabload.Handler {
	h := newHandler(name, pattern, t, n)
	h.Parser = tabload.ValuesParser()
	h.Schema = githubRecordsSchema
	h.Destination.Mode = tabload.ModeReplace

	return h
}
