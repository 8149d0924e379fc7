package handlers

import (
	"context"
	"strings"

	"go.nownabe.dev/tabload"
)

var artistsSchema = tabload.MustSchema(
	tabload.Field{Name: "DisplayName", Type: tabload.String},
	tabload.Field{Name: "ArtistBio", Type: tabload.String},
	tabload.Field{Name: "Nationality", Type: tabload.String},
	tabload.Field{Name: "Gender", Type: tabload.String},
	tabload.Field{Name: "BeginDate", Type: tabload.Int},
	tabload.Field{Name: "EndDate", Type: tabload.Int},
)

var artworksSchema = tabload.MustSchema(
	tabload.Field{Name: "Artist", Type: tabload.String},
	tabload.Field{Name: "ArtistBio", Type: tabload.String},
	tabload.Field{Name: "Nationality", Type: tabload.String},
	tabload.Field{Name: "Gender", Type: tabload.String},
	tabload.Field{Name: "Medium", Type: tabload.String},
	tabload.Field{Name: "CreditLine", Type: tabload.String},
	tabload.Field{Name: "AccessionNumber", Type: tabload.String},
	tabload.Field{Name: "Classification", Type: tabload.String},
	tabload.Field{Name: "Department", Type: tabload.String},
	tabload.Field{Name: "ObjectID", Type: tabload.String},
	tabload.Field{Name: "ConstituentID", Type: tabload.Text},
	tabload.Field{Name: "Dimensions", Type: tabload.Text},
	tabload.Field{Name: "Cataloged", Type: tabload.Text},
)

// Artists builds a handler for Artists.csv of the MoMA collection dataset.
// The table is replaced and artists sharing a DisplayName are loaded once.
func Artists(name, pattern string, t Table, n tabload.Notifier) *tabload.Handler {
	h := newHandler(name, pattern, t, n)
	h.Parser = tabload.CSVParser()
	h.Schema = artistsSchema
	h.Destination.Mode = tabload.ModeReplace
	h.Destination.PrimaryKey = []string{"DisplayName"}
	h.Destination.SkipDuplicates = true

	return h
}

// Artworks builds a handler for Artworks.csv of the MoMA collection dataset.
//
// Artist attributes in Artworks.csv are wrapped in parentheses, e.g.
// "(American)". The projector strips them so they match Artists.csv.
func Artworks(name, pattern string, t Table, n tabload.Notifier) *tabload.Handler {
	projector := func(_ context.Context, r tabload.RawRecord) (tabload.RawRecord, error) {
		p := make(tabload.RawRecord, len(r))
		for k, v := range r {
			p[k] = v
		}
		for _, k := range []string{"ArtistBio", "Nationality", "Gender"} {
			if s, ok := p[k].(string); ok {
				p[k] = unparen(s)
			}
		}
		return p, nil
	}

	h := newHandler(name, pattern, t, n)
	h.Parser = tabload.CSVParser()
	h.Projector = projector
	h.Schema = artworksSchema
	h.Destination.Mode = tabload.ModeReplace
	h.Destination.PrimaryKey = []string{"AccessionNumber", "ObjectID"}
	h.Destination.SkipDuplicates = true

	return h
}

func unparen(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
