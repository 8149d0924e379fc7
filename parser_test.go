package tabload

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []RawRecord
	}{
		{
			name: "header and rows",
			in:   "DisplayName,BeginDate\nJohn,1990\nJane,Avengers\n",
			want: []RawRecord{
				{"DisplayName": "John", "BeginDate": "1990"},
				{"DisplayName": "Jane", "BeginDate": "Avengers"},
			},
		},
		{
			name: "short rows are padded and blank rows dropped",
			in:   "a,b,c\n1\n,,\n4,5,6\n",
			want: []RawRecord{
				{"a": "1", "b": nil, "c": nil},
				{"a": "4", "b": "5", "c": "6"},
			},
		},
		{
			name: "byte order mark and lazy quotes",
			in:   "\ufeffname,bio\nJohn,\"American, born 1990\"\nJane,5\" tall\n",
			want: []RawRecord{
				{"name": "John", "bio": "American, born 1990"},
				{"name": "Jane", "bio": "5\" tall"},
			},
		},
		{
			name: "empty",
			in:   "",
			want: []RawRecord{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := CSVParser()(context.Background(), strings.NewReader(tc.in))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPartialCSVParser(t *testing.T) {
	t.Parallel()

	in := "Statement\nPeriod: 2020/11\nh1,h2\n1,2\n3,4\nTotal,6\n"

	tests := []struct {
		name       string
		head, tail uint
		sep        string
		want       []RawRecord
	}{
		{
			name: "skip head and tail",
			head: 2, tail: 1, sep: "\n",
			want: []RawRecord{{"h1": "1", "h2": "2"}, {"h1": "3", "h2": "4"}},
		},
		{
			name: "skip head only",
			head: 2, tail: 0, sep: "\n",
			want: []RawRecord{{"h1": "1", "h2": "2"}, {"h1": "3", "h2": "4"}, {"h1": "Total", "h2": "6"}},
		},
		{
			name: "skip everything",
			head: 4, tail: 2, sep: "\n",
			want: []RawRecord{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := PartialCSVParser(tc.head, tc.tail, tc.sep)(context.Background(), strings.NewReader(in))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	crlf := strings.ReplaceAll(in, "\n", "\r\n")
	got, err := PartialCSVParser(2, 1, "\r\n")(context.Background(), strings.NewReader(crlf))
	require.NoError(t, err)
	require.Equal(t, []RawRecord{{"h1": "1", "h2": "2"}, {"h1": "3", "h2": "4"}}, got)
}

func TestJSONParser(t *testing.T) {
	t.Parallel()

	in := `{"data":{"artists":[
		{"DisplayName":"John","BeginDate":1990,"Active":true,"Bio":null},
		{"DisplayName":"Jane","BeginDate":"Avengers"}
	]}}`

	got, err := JSONParser("data.artists")(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []RawRecord{
		{"DisplayName": "John", "BeginDate": int64(1990), "Active": true, "Bio": nil},
		{"DisplayName": "Jane", "BeginDate": "Avengers"},
	}, got)

	got, err = JSONParser("")(context.Background(), strings.NewReader(`[{"a":1,"b":1.5,"c":1e3}]`))
	require.NoError(t, err)
	require.Equal(t, []RawRecord{{"a": int64(1), "b": 1.5, "c": 1000.0}}, got)

	got, err = JSONParser("")(context.Background(), strings.NewReader(`[{"ObjectID":9007199254740993}]`))
	require.NoError(t, err)
	require.Equal(t, []RawRecord{{"ObjectID": int64(9007199254740993)}}, got)

	validated, rejections := Validate(got, MustSchema(Field{Name: "ObjectID", Type: Int}))
	require.Empty(t, rejections)
	require.Equal(t, []ValidatedRecord{{"ObjectID": int64(9007199254740993)}}, validated)

	_, err = JSONParser("data")(context.Background(), strings.NewReader(in))
	require.Error(t, err)

	_, err = JSONParser("")(context.Background(), strings.NewReader(`[1,2]`))
	require.Error(t, err)

	_, err = JSONParser("")(context.Background(), strings.NewReader(`{`))
	require.Error(t, err)
}

func TestValuesParser(t *testing.T) {
	t.Parallel()

	in := `{"range":"Weather!A1:D4","majorDimension":"ROWS","values":[
		["location","temp_c","wind_direction","timestamp"],
		["Tokyo",12.5,"N"],
		[],
		["Osaka",14,"SW","2024-01-02 03:04:05"]
	]}`

	got, err := ValuesParser()(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []RawRecord{
		{"location": "Tokyo", "temp_c": 12.5, "wind_direction": "N", "timestamp": nil},
		{"location": "Osaka", "temp_c": int64(14), "wind_direction": "SW", "timestamp": "2024-01-02 03:04:05"},
	}, got)

	got, err = ValuesParser()(context.Background(), strings.NewReader(`{"range":"A1:A1"}`))
	require.NoError(t, err)
	require.Empty(t, got)
}
