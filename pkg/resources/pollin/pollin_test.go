package pollin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/blob"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

const rawPolls = "question_id,answer,pct,created_at\n1,Biden,52,11/2/20 21:45\n1,Trump,44,11/2/20 21:45\n"

// fakeFetcher writes a canned body instead of calling out.
type fakeFetcher struct {
	store blob.Store
	body  string
	urls  []string
}

func (f *fakeFetcher) RequestToBlob(ctx context.Context, url string, _ map[string]string, uri string) (int, error) {
	f.urls = append(f.urls, url)
	return len(f.body), f.store.Write(ctx, uri, []byte(f.body))
}

func setup(t *testing.T) (*registry.Resource, blob.Store, *fakeFetcher) {
	t.Helper()
	router := blob.NewRouter()
	router.Handle("mem", blob.NewMemBackend())
	fetcher := &fakeFetcher{store: router, body: rawPolls}

	res, err := New(Config{
		Store:      router,
		Fetcher:    fetcher,
		ExtractURI: "mem://data/pollin/raw",
		CleanURI:   "mem://data/pollin/clean",
		SourceURL:  "https://polls.example/president_polls.csv",
	}, "1.0.0")
	require.NoError(t, err)
	return res, router, fetcher
}

func run(t *testing.T, res *registry.Resource, action string, params map[string]interface{}) (interface{}, error) {
	t.Helper()
	a, err := res.Action(action)
	require.NoError(t, err)
	return a.Fn(context.Background(), registry.NewArgs(a.Params, params))
}

func TestPollin_ExtractTransformFetch(t *testing.T) {
	res, store, fetcher := setup(t)
	ctx := context.Background()

	out, err := run(t, res, "extract", map[string]interface{}{"date_string": "2020-11-03"})
	require.NoError(t, err)
	assert.Equal(t, "mem://data/pollin/raw/2020-11-03.csv", out)
	assert.Equal(t, []string{"https://polls.example/president_polls.csv"}, fetcher.urls)

	out, err = run(t, res, "transform", map[string]interface{}{"date_string": "2020-11-03"})
	require.NoError(t, err)
	assert.Equal(t, "mem://data/pollin/clean/2020-11-03.csv", out)

	clean, err := store.Read(ctx, "mem://data/pollin/clean/2020-11-03.csv")
	require.NoError(t, err)
	assert.Equal(t,
		"question_id,answer,pct,created_at,dt\n1,Biden,52,11-02-2020,2020-11-03\n1,Trump,44,11-02-2020,2020-11-03\n",
		string(clean))

	require.NoError(t, store.Write(ctx, "mem://data/pollin/clean/2020-11-01.csv", []byte("answer\nold\n")))

	out, err = run(t, res, "fetch_data", nil)
	require.NoError(t, err)
	cols := out.(map[string]map[string]interface{})
	assert.Equal(t, map[string]interface{}{"0": "Biden", "1": "Trump"}, cols["answer"])
	assert.Equal(t, map[string]interface{}{"0": int64(52), "1": int64(44)}, cols["pct"])

	out, err = run(t, res, "get_most_recent_date", nil)
	require.NoError(t, err)
	assert.Equal(t, "2020/11/03", out)
}

func TestPollin_TransformRequiresCreatedAt(t *testing.T) {
	res, store, _ := setup(t)
	require.NoError(t, store.Write(context.Background(), "mem://data/pollin/raw/2020-11-03.csv", []byte("a,b\n1,2\n")))

	_, err := run(t, res, "transform", map[string]interface{}{"date_string": "2020-11-03"})
	assert.ErrorContains(t, err, "created_at")
}

func TestPollin_EmptyListing(t *testing.T) {
	res, _, _ := setup(t)

	_, err := run(t, res, "get_most_recent_date", nil)
	assert.EqualError(t, err, "no data under mem://data/pollin/clean")
}

func TestReformatCreatedAt(t *testing.T) {
	for in, want := range map[string]string{
		"11/2/20 21:45":        "11-02-2020",
		"2020-11-02":           "11-02-2020",
		"2020-11-02T09:00:00Z": "11-02-2020",
	} {
		got, err := reformatCreatedAt(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := reformatCreatedAt("yesterday")
	assert.Error(t, err)
}
