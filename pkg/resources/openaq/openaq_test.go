package openaq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const measurements = `{
  "meta": {"found": 2},
  "results": [
    {"location": "Boston", "parameter": "pm25", "value": 7.5,
     "date": {"utc": "2020-11-02T10:00:00Z", "local": "2020-11-02T05:00:00-05:00"},
     "unit": "µg/m³",
     "coordinates": {"latitude": 42.36, "longitude": -71.06},
     "country": "US", "city": null},
    {"location": "Austin", "parameter": "o3", "value": 0.031,
     "date": {"utc": "2020-11-02T11:00:00Z", "local": "2020-11-02T06:00:00-05:00"},
     "unit": "ppm",
     "coordinates": {"latitude": 30.27, "longitude": -97.74},
     "country": "US", "city": "Austin", "sourceType": "government"}
  ]
}`

type recordingFetcher struct {
	url    string
	params map[string]string
	uri    string
}

func (f *recordingFetcher) RequestToBlob(_ context.Context, url string, params map[string]string, uri string) (int, error) {
	f.url, f.params, f.uri = url, params, uri
	return 0, nil
}

func run(t *testing.T, res *registry.Resource, action string, params map[string]interface{}) (interface{}, error) {
	t.Helper()
	a, err := res.Action(action)
	require.NoError(t, err)
	return a.Fn(context.Background(), registry.NewArgs(a.Params, params))
}

func newResource(t *testing.T, fetcher Fetcher) (*registry.Resource, blob.Store) {
	t.Helper()
	router := blob.NewRouter()
	router.Handle("mem", blob.NewMemBackend())
	res, err := New(Config{
		Store:        router,
		Fetcher:      fetcher,
		APIURL:       "https://api.openaq.example/v1/measurements",
		ExtractURI:   "mem://data/openaq/raw",
		TransformURI: "mem://data/openaq/clean",
	}, "1.0.0")
	require.NoError(t, err)
	return res, router
}

func TestExtract(t *testing.T) {
	fetcher := &recordingFetcher{}
	res, _ := newResource(t, fetcher)

	out, err := run(t, res, "extract", map[string]interface{}{"date_string": "2020-11-02", "country": "CA"})
	require.NoError(t, err)
	assert.Equal(t, "mem://data/openaq/raw/2020-11-02.json", out)
	assert.Equal(t, "https://api.openaq.example/v1/measurements", fetcher.url)
	assert.Equal(t, map[string]string{"date_from": "2020-11-02", "date_to": "2020-11-02", "country": "CA"}, fetcher.params)
}

func TestTransform(t *testing.T) {
	res, store := newResource(t, &recordingFetcher{})
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "mem://data/openaq/raw/2020-11-02.json", []byte(measurements)))

	out, err := run(t, res, "transform", map[string]interface{}{"date_string": "2020-11-02"})
	require.NoError(t, err)
	assert.Equal(t, "mem://data/openaq/clean/2020-11-02.csv", out)

	csv, err := store.Read(ctx, "mem://data/openaq/clean/2020-11-02.csv")
	require.NoError(t, err)
	assert.Equal(t,
		"location,parameter,value,unit,country,city,sourceType,dateutc,datelocal,latitude,longitude\n"+
			"Boston,pm25,7.5,µg/m³,US,,,2020-11-02T10:00:00Z,2020-11-02T05:00:00-05:00,42.36,-71.06\n"+
			"Austin,o3,0.031,ppm,US,Austin,government,2020-11-02T11:00:00Z,2020-11-02T06:00:00-05:00,30.27,-97.74\n",
		string(csv))
}

func TestTransform_NoData(t *testing.T) {
	res, store := newResource(t, &recordingFetcher{})
	require.NoError(t, store.Write(context.Background(), "mem://data/openaq/raw/2020-11-02.json", []byte(`{"results": []}`)))

	out, err := run(t, res, "transform", map[string]interface{}{"date_string": "2020-11-02"})
	require.NoError(t, err)
	assert.Equal(t, NoData, out)
}

func TestFlatten_Invalid(t *testing.T) {
	_, err := Flatten([]byte(`{"meta": {}}`))
	assert.ErrorContains(t, err, "no results")
	_, err = Flatten([]byte(`not json`))
	assert.Error(t, err)
}
