// Package openaq extracts daily air quality measurements from the OpenAQ API and flattens
// them into CSV.
package openaq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/internal/tabular"
)

const (
	logPrefix = "openaq:openaq"

	// Name is the resource name in the registry.
	Name = "openaq"

	// NoData is returned by transform when the extract has no measurements.
	NoData = "No data today!"
)

// renamed maps nested measurement fields to flat column names. They are written after
// every other column.
var renamed = []struct{ from, to string }{
	{"date.utc", "dateutc"},
	{"date.local", "datelocal"},
	{"coordinates.latitude", "latitude"},
	{"coordinates.longitude", "longitude"},
}

// Fetcher downloads a URL into blob storage. *blob.Fetcher satisfies it.
type Fetcher interface {
	RequestToBlob(ctx context.Context, url string, params map[string]string, uri string) (int, error)
}

// Config wires the resource to storage and the API. The values become action defaults.
type Config struct {
	Store        blob.Store
	Fetcher      Fetcher
	APIURL       string
	ExtractURI   string
	TransformURI string
	Country      string
}

type openaq struct {
	store   blob.Store
	fetcher Fetcher
}

// New builds the openaq resource.
func New(cfg Config, version string) (*registry.Resource, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%s - blob store is required", logPrefix)
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = blob.NewFetcher(cfg.Store)
	}
	if cfg.Country == "" {
		cfg.Country = "US"
	}
	o := &openaq{store: cfg.Store, fetcher: cfg.Fetcher}

	return registry.NewResource("OpenAQ air quality", version,
		registry.Action{
			Name:        "extract",
			Description: "Save one day of measurements to <out_uri>/<date_string><file_type>.",
			Params: []registry.Param{
				registry.Required("date_string", registry.KindString, "measurement date, YYYY-MM-DD"),
				registry.Optional("url", registry.KindString, cfg.APIURL, "measurements endpoint"),
				registry.Optional("file_type", registry.KindString, ".json", "file extension"),
				registry.Optional("out_uri", registry.KindString, cfg.ExtractURI, "raw data location"),
				registry.Optional("country", registry.KindString, cfg.Country, "ISO country code"),
			},
			Fn: o.extract,
		},
		registry.Action{
			Name:        "transform",
			Description: "Flatten the raw measurements into <out_uri>/<date_string>.csv.",
			Params: []registry.Param{
				registry.Required("date_string", registry.KindString, "measurement date, YYYY-MM-DD"),
				registry.Optional("file_type", registry.KindString, ".json", "raw file extension"),
				registry.Optional("in_uri", registry.KindString, cfg.ExtractURI, "raw data location"),
				registry.Optional("out_uri", registry.KindString, cfg.TransformURI, "clean data location"),
			},
			Fn: o.transform,
		},
	)
}

func (o *openaq) extract(ctx context.Context, args registry.Args) (interface{}, error) {
	v, err := args.Strings("date_string", "url", "file_type", "out_uri", "country")
	if err != nil {
		return nil, err
	}
	date, url, fileType, outBase, country := v[0], v[1], v[2], v[3], v[4]

	uri := blob.Join(outBase, date+fileType)
	params := map[string]string{
		"date_from": date,
		"date_to":   date,
		"country":   country,
	}
	if _, err := o.fetcher.RequestToBlob(ctx, url, params, uri); err != nil {
		return nil, err
	}
	return uri, nil
}

func (o *openaq) transform(ctx context.Context, args registry.Args) (interface{}, error) {
	v, err := args.Strings("date_string", "file_type", "in_uri", "out_uri")
	if err != nil {
		return nil, err
	}
	date, fileType, inBase, outBase := v[0], v[1], v[2], v[3]

	inURI := blob.Join(inBase, date+fileType)
	data, err := o.store.Read(ctx, inURI)
	if err != nil {
		return nil, err
	}
	tbl, err := Flatten(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inURI, err)
	}
	if len(tbl.Rows) == 0 {
		slog.Warn(fmt.Sprintf("%s - data from %s is empty", logPrefix, inURI))
		return NoData, nil
	}

	out, err := tbl.Bytes()
	if err != nil {
		return nil, err
	}
	outURI := blob.Join(outBase, date+".csv")
	if err := o.store.Write(ctx, outURI, out); err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - flattened %d measurements into %s", logPrefix, len(tbl.Rows), outURI))
	return outURI, nil
}

// Flatten turns the "results" array of an OpenAQ response into a table. Nested objects
// become dotted columns in order of first appearance, then the renamed date and coordinate
// columns are appended.
func Flatten(data []byte) (*tabular.Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	results := gjson.GetBytes(data, "results")
	if !results.IsArray() {
		return nil, fmt.Errorf("response has no results array")
	}

	skip := make(map[string]bool, len(renamed))
	for _, r := range renamed {
		skip[r.from] = true
	}

	var columns []string
	seen := make(map[string]bool)
	var records []map[string]string
	results.ForEach(func(_, rec gjson.Result) bool {
		row := make(map[string]string)
		flatten("", rec, row, func(col string) {
			if !seen[col] {
				seen[col] = true
				if !skip[col] {
					columns = append(columns, col)
				}
			}
		})
		records = append(records, row)
		return true
	})

	header := append([]string(nil), columns...)
	for _, r := range renamed {
		header = append(header, r.to)
	}
	tbl := &tabular.Table{Header: header}
	for _, rec := range records {
		row := make([]string, 0, len(header))
		for _, c := range columns {
			row = append(row, rec[c])
		}
		for _, r := range renamed {
			row = append(row, rec[r.from])
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}

func flatten(prefix string, v gjson.Result, row map[string]string, column func(string)) {
	if v.IsObject() {
		v.ForEach(func(key, child gjson.Result) bool {
			name := key.String()
			if prefix != "" {
				name = prefix + "." + name
			}
			flatten(name, child, row, column)
			return true
		})
		return
	}
	if prefix == "" {
		return
	}
	column(prefix)
	switch {
	case v.Type == gjson.Null:
		row[prefix] = ""
	case v.IsArray():
		row[prefix] = v.Raw
	default:
		row[prefix] = v.String()
	}
}
