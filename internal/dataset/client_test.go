package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/career-mapper/internal/cache"
	"github.com/sells-group/career-mapper/internal/fetcher"
	"github.com/sells-group/career-mapper/internal/model"
)

func testFetcher() fetcher.Fetcher {
	return fetcher.NewRouter(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:     2 * time.Second,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
		RateLimit:   1000,
		Burst:       100,
	}))
}

func TestClientRows_CachesValidPayload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[["DP05_0017E","state"],["38.2","06"],["35.1","48"]]`))
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), cache.NewMemory(10, time.Minute))
	stat := model.Statistic{ID: "DP05_0017E", URL: srv.URL + "/DP05_0017E.json"}

	for range 2 {
		rows, err := c.Rows(context.Background(), stat)
		require.NoError(t, err)
		assert.Equal(t, []model.Row{{Value: 38.2, RegionID: "06"}, {Value: 35.1, RegionID: "48"}}, rows)
	}
	assert.Equal(t, int32(1), hits.Load())

	stats := c.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestClientRows_Malformed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"error":"quota"}`))
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), cache.NewMemory(10, time.Minute))
	stat := model.Statistic{ID: "x", URL: srv.URL + "/x.json"}

	for range 2 {
		_, err := c.Rows(context.Background(), stat)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedDataset))
	}
	assert.Equal(t, int32(2), hits.Load(), "malformed payloads must not be cached")
}

func TestClientRows_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), nil)
	_, err := c.Rows(context.Background(), model.Statistic{ID: "x", URL: srv.URL + "/missing.json"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.Equal(t, "none", c.CacheStats().Driver)
}

func TestClientRows_OversizedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["h","state"],["1","06"],["2","48"]]`))
	}))
	defer srv.Close()

	c := NewClient(testFetcher(), cache.NewMemory(10, time.Minute))
	c.maxBytes = 16

	_, err := c.Rows(context.Background(), model.Statistic{ID: "x", URL: srv.URL + "/big.json"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.False(t, errors.Is(err, ErrMalformedDataset))
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

type fakeSource struct {
	calls atomic.Int32
	fail  map[string]bool
}

func (f *fakeSource) Rows(_ context.Context, stat model.Statistic) ([]model.Row, error) {
	f.calls.Add(1)
	if f.fail[stat.ID] {
		return nil, ErrFetch
	}
	return []model.Row{{Value: 1, RegionID: "06"}}, nil
}

func TestWarm(t *testing.T) {
	src := &fakeSource{fail: map[string]bool{"bad": true}}
	stats := []model.Statistic{{ID: "a"}, {ID: "bad"}, {ID: "c"}}

	results, err := Warm(context.Background(), src, stats, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(3), src.calls.Load())

	assert.Equal(t, WarmResult{Statistic: "a", Rows: 1}, results[0])
	assert.Equal(t, "bad", results[1].Statistic)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, 1, results[2].Rows)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog([]model.Statistic{
		{ID: "DP05_0017E", Label: "Median age"},
		{ID: "DP05_0001E", Label: "Total population"},
	})

	def, ok := c.Default()
	require.True(t, ok)
	assert.Equal(t, "DP05_0017E", def.ID)

	s, err := c.Lookup("DP05_0001E")
	require.NoError(t, err)
	assert.Equal(t, "Total population", s.Label)

	_, err = c.Lookup("nope")
	assert.True(t, errors.Is(err, ErrUnknownStatistic))

	all := c.All()
	all[0].Label = "mutated"
	assert.Equal(t, "Median age", c.All()[0].Label)

	_, ok = NewCatalog(nil).Default()
	assert.False(t, ok)
}
