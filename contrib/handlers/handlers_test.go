package handlers_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"go.nownabe.dev/tabload"
	"go.nownabe.dev/tabload/contrib/handlers"
)

type testLoader struct {
	dst    *tabload.Destination
	result []tabload.ValidatedRecord
}

func (l *testLoader) Load(_ context.Context, dst *tabload.Destination, _ *tabload.Schema, rs []tabload.ValidatedRecord) (int64, error) {
	l.dst = dst
	l.result = rs

	return int64(len(rs)), nil
}

type testExtractor struct {
	source io.Reader
}

func (e *testExtractor) Extract(_ context.Context, _ tabload.Event) (io.Reader, func(), error) {
	return e.source, func() {}, nil
}

type testNotifier struct {
	result *tabload.Result
}

func (n *testNotifier) Notify(_ context.Context, r *tabload.Result) error {
	n.result = r

	return nil
}

func buildTestHandler(
	t *testing.T,
	file string,
	f func(string, string, handlers.Table, tabload.Notifier) *tabload.Handler,
) (*tabload.Handler, *testLoader, *testNotifier) {
	t.Helper()

	body, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	tl := &testLoader{}
	tn := &testNotifier{}

	h := f("name", "^path_to/", handlers.Table{Name: "t", Loader: tl}, tn)
	h.Extractor = &testExtractor{source: bytes.NewBuffer(body)}

	return h, tl, tn
}

func handle(t *testing.T, h *tabload.Handler, name string) {
	t.Helper()

	if err := h.Handle(context.Background(), tabload.Event{Name: name, Bucket: "bucket"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func rejected(r *tabload.Result) []string {
	reasons := make([]string, len(r.Rejections))
	for i, rej := range r.Rejections {
		reasons[i] = rej.Reason
	}
	return reasons
}

func Test_WeatherSheet(t *testing.T) {
	t.Parallel()

	h, tl, tn := buildTestHandler(t, "testdata/weather.json", handlers.WeatherSheet)
	handle(t, h, "path_to/Weather!A1:I")

	expected := []tabload.ValidatedRecord{
		{
			"location": "Seattle", "state": "Washington", "country": "United States of America",
			"wind_direction": "NNW", "temp_c": 12.5, "wind_kph": 9.0, "latitude": 47.61, "longitude": -122.33,
			"timestamp": time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			"location": "Austin", "state": "Texas", "country": "United States of America",
			"wind_direction": "S", "temp_c": 24.0, "wind_kph": 14.4, "latitude": 30.27, "longitude": -97.74,
			"timestamp": nil,
		},
	}
	if diff := cmp.Diff(expected, tl.result); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	if tl.dst.Mode != tabload.ModeAppend {
		t.Errorf("expected append mode, but %s", tl.dst.Mode)
	}

	want := []string{"NullNotAllowed:wind_direction", "TypeCoercionFailure:latitude"}
	if diff := cmp.Diff(want, rejected(tn.result)); diff != "" {
		t.Errorf("rejections mismatch (-want +got):\n%s", diff)
	}
}

func Test_GithubRecordsSheet(t *testing.T) {
	t.Parallel()

	h, tl, tn := buildTestHandler(t, "testdata/github.json", handlers.GithubRecordsSheet)
	handle(t, h, "path_to/Github!A1:D")

	expected := []tabload.ValidatedRecord{
		{"Repository_Name": "rs/zerolog", "Language_Used": "Go", "Description": "Zero Allocation JSON Logger", "Datetime_Posted": "2017-05-17T09:00:00Z"},
		{"Repository_Name": "jackc/pgx", "Language_Used": "Go", "Description": nil, "Datetime_Posted": "2013-04-12T18:00:00Z"},
		{"Repository_Name": "nownabe/dotfiles", "Language_Used": nil, "Description": "my config", "Datetime_Posted": "2020-01-01T00:00:00Z"},
	}
	if diff := cmp.Diff(expected, tl.result); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	if tl.dst.Mode != tabload.ModeReplace {
		t.Errorf("expected replace mode, but %s", tl.dst.Mode)
	}
	if tn.result.Loaded != 3 || tn.result.Read != 4 {
		t.Errorf("expected 3 of 4 loaded, but %d of %d", tn.result.Loaded, tn.result.Read)
	}

	if diff := cmp.Diff([]string{"NullNotAllowed:Repository_Name"}, rejected(tn.result)); diff != "" {
		t.Errorf("rejections mismatch (-want +got):\n%s", diff)
	}
}

func Test_Artists(t *testing.T) {
	t.Parallel()

	h, tl, tn := buildTestHandler(t, "testdata/Artists.csv", handlers.Artists)
	handle(t, h, "path_to/Artists.csv")

	expected := []tabload.ValidatedRecord{
		{"DisplayName": "Robert Arneson", "ArtistBio": "American, 1930-2002", "Nationality": "American", "Gender": "Male", "BeginDate": int64(1930), "EndDate": int64(2002)},
		{"DisplayName": "Doroteo Arnaiz", "ArtistBio": "Spanish, born 1936", "Nationality": "Spanish", "Gender": "Male", "BeginDate": int64(1936), "EndDate": int64(0)},
		{"DisplayName": "Per Arnoldi", "ArtistBio": "Danish, born 1941", "Nationality": "Danish", "Gender": "Male", "BeginDate": int64(1941), "EndDate": int64(0)},
	}
	if diff := cmp.Diff(expected, tl.result); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	wantDst := &tabload.Destination{
		Table:          "t",
		Mode:           tabload.ModeReplace,
		PrimaryKey:     []string{"DisplayName"},
		SkipDuplicates: true,
	}
	if diff := cmp.Diff(wantDst, tl.dst); diff != "" {
		t.Errorf("destination mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"NullNotAllowed:ArtistBio"}, rejected(tn.result)); diff != "" {
		t.Errorf("rejections mismatch (-want +got):\n%s", diff)
	}
}

func Test_Artworks(t *testing.T) {
	t.Parallel()

	h, tl, tn := buildTestHandler(t, "testdata/Artworks.csv", handlers.Artworks)
	handle(t, h, "path_to/Artworks.csv")

	if len(tl.result) != 2 {
		t.Fatalf("expected 2 records, but %d", len(tl.result))
	}

	expected := tabload.ValidatedRecord{
		"Artist":          "Otto Wagner",
		"ArtistBio":       "Austrian, 1841-1918",
		"Nationality":     "Austrian",
		"Gender":          "Male",
		"Medium":          "Ink and cut-and-pasted painted pages on paper",
		"CreditLine":      "Fractional and promised gift of Jo Carole and Ronald S. Lauder",
		"AccessionNumber": "885.1996",
		"Classification":  "Architecture",
		"Department":      "Architecture & Design",
		"ObjectID":        "2",
		"ConstituentID":   "6210",
		"Dimensions":      `19 1/8 x 66 1/2" (48.6 x 168.9 cm)`,
		"Cataloged":       "Y",
	}
	if diff := cmp.Diff(expected, tl.result[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if got := tl.result[1]["Nationality"]; got != "French" {
		t.Errorf("expected French, but %v", got)
	}

	if diff := cmp.Diff([]string{"AccessionNumber", "ObjectID"}, tl.dst.PrimaryKey, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("primary key mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"NullNotAllowed:ArtistBio"}, rejected(tn.result)); diff != "" {
		t.Errorf("rejections mismatch (-want +got):\n%s", diff)
	}
}

func Test_unmatchedEvent(t *testing.T) {
	t.Parallel()

	h, _, _ := buildTestHandler(t, "testdata/Artists.csv", handlers.Artists)
	if h.Pattern.MatchString("other/Artists.csv") {
		t.Errorf("pattern should not match other/Artists.csv")
	}
}
