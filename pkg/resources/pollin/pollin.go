// Package pollin loads presidential polling data into blob storage and serves the latest
// cleaned snapshot.
package pollin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/resources/internal/tabular"
)

const (
	logPrefix = "pollin:pollin"

	// Name is the resource name in the registry.
	Name = "pollin"

	createdAtLayout = "01-02-2006"
)

// Layouts tried, in order, when reformatting created_at.
var createdAtInputs = []string{
	"1/2/06 15:04",
	"1/2/2006 15:04",
	"1/2/06",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02",
}

// Fetcher downloads a URL into blob storage. *blob.Fetcher satisfies it.
type Fetcher interface {
	RequestToBlob(ctx context.Context, url string, params map[string]string, uri string) (int, error)
}

// Config wires the resource to storage. The URIs become the action defaults.
type Config struct {
	Store      blob.Store
	Fetcher    Fetcher
	ExtractURI string
	CleanURI   string
	SourceURL  string
}

type pollin struct {
	store   blob.Store
	fetcher Fetcher
}

// New builds the pollin resource.
func New(cfg Config, version string) (*registry.Resource, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%s - blob store is required", logPrefix)
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = blob.NewFetcher(cfg.Store)
	}
	p := &pollin{store: cfg.Store, fetcher: cfg.Fetcher}

	return registry.NewResource("Pollin' for president", version,
		registry.Action{
			Name:        "extract",
			Description: "Download the polls CSV to <base_uri>/<date_string><file_type>.",
			Params: []registry.Param{
				registry.Required("date_string", registry.KindString, "load date, YYYY-MM-DD"),
				registry.Optional("base_uri", registry.KindString, cfg.ExtractURI, "raw data location"),
				registry.Optional("url", registry.KindString, cfg.SourceURL, "polls CSV url"),
				registry.Optional("file_type", registry.KindString, ".csv", "file extension"),
			},
			Fn: p.extract,
		},
		registry.Action{
			Name:        "transform",
			Description: "Stamp a dt column, normalise created_at and write the clean CSV.",
			Params: []registry.Param{
				registry.Required("date_string", registry.KindString, "load date, YYYY-MM-DD"),
				registry.Optional("in_uri_base", registry.KindString, cfg.ExtractURI, "raw data location"),
				registry.Optional("out_uri_base", registry.KindString, cfg.CleanURI, "clean data location"),
				registry.Optional("file_type", registry.KindString, ".csv", "file extension"),
			},
			Fn: p.transform,
		},
		registry.Action{
			Name:        "fetch_data",
			Description: "Return the most recent clean snapshot as column -> {row -> value}.",
			Params: []registry.Param{
				registry.Optional("base_uri", registry.KindString, cfg.CleanURI, "clean data location"),
			},
			Fn: p.fetchData,
		},
		registry.Action{
			Name:        "get_most_recent_date",
			Description: "Date of the most recent clean snapshot, as YYYY/MM/DD.",
			Params: []registry.Param{
				registry.Optional("base_uri", registry.KindString, cfg.CleanURI, "clean data location"),
			},
			Fn: p.mostRecentDate,
		},
	)
}

func (p *pollin) extract(ctx context.Context, args registry.Args) (interface{}, error) {
	v, err := args.Strings("date_string", "base_uri", "url", "file_type")
	if err != nil {
		return nil, err
	}
	date, base, url, fileType := v[0], v[1], v[2], v[3]
	uri := blob.Join(base, date+fileType)
	if _, err := p.fetcher.RequestToBlob(ctx, url, nil, uri); err != nil {
		return nil, err
	}
	return uri, nil
}

func (p *pollin) transform(ctx context.Context, args registry.Args) (interface{}, error) {
	v, err := args.Strings("date_string", "in_uri_base", "out_uri_base", "file_type")
	if err != nil {
		return nil, err
	}
	date, inBase, outBase, fileType := v[0], v[1], v[2], v[3]
	inURI := blob.Join(inBase, date+fileType)
	data, err := p.store.Read(ctx, inURI)
	if err != nil {
		return nil, err
	}
	tbl, err := tabular.Parse(data)
	if err != nil {
		return nil, err
	}

	col := tbl.Column("created_at")
	if col < 0 {
		return nil, fmt.Errorf("%s has no created_at column", inURI)
	}
	for i, row := range tbl.Rows {
		if row[col] == "" {
			continue
		}
		formatted, err := reformatCreatedAt(row[col])
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i+1, inURI, err)
		}
		row[col] = formatted
	}
	tbl.SetColumn("dt", date)

	out, err := tbl.Bytes()
	if err != nil {
		return nil, err
	}
	outURI := blob.Join(outBase, date+fileType)
	if err := p.store.Write(ctx, outURI, out); err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - transformed %d rows %s -> %s", logPrefix, len(tbl.Rows), inURI, outURI))
	return outURI, nil
}

func (p *pollin) fetchData(ctx context.Context, args registry.Args) (interface{}, error) {
	base, err := args.String("base_uri")
	if err != nil {
		return nil, err
	}
	dt, err := p.latest(ctx, base)
	if err != nil {
		return nil, err
	}
	data, err := p.store.Read(ctx, blob.Join(base, dt+".csv"))
	if err != nil {
		return nil, err
	}
	tbl, err := tabular.Parse(data)
	if err != nil {
		return nil, err
	}
	return tbl.Columns(), nil
}

func (p *pollin) mostRecentDate(ctx context.Context, args registry.Args) (interface{}, error) {
	base, err := args.String("base_uri")
	if err != nil {
		return nil, err
	}
	dt, err := p.latest(ctx, base)
	if err != nil {
		return nil, err
	}
	return strings.ReplaceAll(dt, "-", "/"), nil
}

func (p *pollin) latest(ctx context.Context, base string) (string, error) {
	uris, err := p.store.List(ctx, base)
	if err != nil {
		return "", err
	}
	dt := tabular.Latest(uris)
	if dt == "" {
		return "", fmt.Errorf("no data under %s", base)
	}
	return dt, nil
}

func reformatCreatedAt(s string) (string, error) {
	for _, layout := range createdAtInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(createdAtLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognised created_at %q", s)
}
