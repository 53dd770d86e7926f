package chainstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/spread-trading/src/chainstore/records"
	"github.com/jiaming2012/spread-trading/src/dataservices"
	"github.com/jiaming2012/spread-trading/src/dbutils"
	"github.com/jiaming2012/spread-trading/src/models"
)

type fakeFetcher struct {
	name      string
	available bool
	rows      []models.OptionChainRowDTO
	err       error
	calls     int
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Available(date, now time.Time) bool { return f.available }

func (f *fakeFetcher) FetchChain(ctx context.Context, symbol string, date time.Time) ([]models.OptionChainRowDTO, error) {
	f.calls++
	return f.rows, f.err
}

func (f *fakeFetcher) ExpirationLayout() string { return "2006-01-02" }

func fakeRows(date time.Time) []models.OptionChainRowDTO {
	expiration := date.AddDate(0, 0, 30).Format("2006-01-02")

	var rows []models.OptionChainRowDTO
	for i := 0; i < 4; i++ {
		rows = append(rows, models.OptionChainRowDTO{
			Underlying:        "SPY",
			Strike:            95 + float64(2*i),
			Expiration:        expiration,
			OptionType:        "call",
			Bid:               1.00,
			Ask:               1.10,
			Volume:            100,
			OpenInterest:      500,
			ImpliedVolatility: 0.20,
			UnderlyingPrice:   100,
		})
	}

	return rows
}

func newTestManager(t *testing.T, dir string, historical, live dataservices.OptionsChainFetcher) *Manager {
	t.Helper()

	db, err := dbutils.InitSqlite(filepath.Join(dir, "chains.db"))
	require.NoError(t, err)

	manager, err := NewManager(db, dir, historical, live)
	require.NoError(t, err)

	return manager
}

func TestGetOptionsChain(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("fetches, filters and caches", func(t *testing.T) {
		dir := t.TempDir()
		rows := fakeRows(date)
		rows[0].Bid = 0 // fails the quality filter

		historical := &fakeFetcher{name: "thetadata", available: true, rows: rows}
		manager := newTestManager(t, dir, historical, nil)

		chain := manager.GetOptionsChain(ctx, "SPY", date, true)
		require.Len(t, chain, 3)
		assert.Equal(t, 1, historical.calls)

		// second call is a hot-cache hit
		again := manager.GetOptionsChain(ctx, "SPY", date, true)
		assert.Len(t, again, 3)
		assert.Equal(t, 1, historical.calls)
	})

	t.Run("disk cache survives a restart", func(t *testing.T) {
		dir := t.TempDir()
		historical := &fakeFetcher{name: "thetadata", available: true, rows: fakeRows(date)}

		manager := newTestManager(t, dir, historical, nil)
		require.Len(t, manager.GetOptionsChain(ctx, "SPY", date, true), 4)

		// fresh manager over the same db and dir, source now failing
		broken := &fakeFetcher{name: "thetadata", available: true, err: errors.New("connection refused")}
		restarted := newTestManager(t, dir, broken, nil)

		chain := restarted.GetOptionsChain(ctx, "SPY", date, true)
		assert.Len(t, chain, 4)
		assert.Zero(t, broken.calls)
	})

	t.Run("cached contracts round trip", func(t *testing.T) {
		dir := t.TempDir()
		historical := &fakeFetcher{name: "thetadata", available: true, rows: fakeRows(date)}

		manager := newTestManager(t, dir, historical, nil)
		fetched := manager.GetOptionsChain(ctx, "SPY", date, true)

		restarted := newTestManager(t, dir, &fakeFetcher{name: "thetadata"}, nil)
		cached := restarted.GetOptionsChain(ctx, "SPY", date, true)

		require.Len(t, cached, len(fetched))
		for i := range fetched {
			assert.Equal(t, *fetched[i], *cached[i])
		}
	})

	t.Run("falls through to the live source on failure", func(t *testing.T) {
		dir := t.TempDir()
		historical := &fakeFetcher{name: "thetadata", available: true, err: errors.New("down")}
		live := &fakeFetcher{name: "tradier", available: true, rows: fakeRows(date)}

		manager := newTestManager(t, dir, historical, live)

		chain := manager.GetOptionsChain(ctx, "SPY", date, true)
		assert.Len(t, chain, 4)
		assert.Equal(t, 1, historical.calls)
		assert.Equal(t, 1, live.calls)
	})

	t.Run("skips an unavailable source without calling it", func(t *testing.T) {
		dir := t.TempDir()
		live := &fakeFetcher{name: "tradier", available: false}
		historical := &fakeFetcher{name: "thetadata", available: true, rows: fakeRows(date)}

		manager := newTestManager(t, dir, historical, live)

		chain := manager.GetOptionsChain(ctx, "SPY", date, false)
		assert.Len(t, chain, 4)
		assert.Zero(t, live.calls)
		assert.Equal(t, 1, historical.calls)
	})

	t.Run("priority order follows preferHistorical", func(t *testing.T) {
		dir := t.TempDir()
		historical := &fakeFetcher{name: "thetadata", available: true, rows: fakeRows(date)}
		live := &fakeFetcher{name: "tradier", available: true, rows: fakeRows(date)}

		manager := newTestManager(t, dir, historical, live)

		manager.GetOptionsChain(ctx, "SPY", date, false)
		assert.Zero(t, historical.calls)
		assert.Equal(t, 1, live.calls)
	})

	t.Run("total failure yields an empty chain", func(t *testing.T) {
		dir := t.TempDir()
		historical := &fakeFetcher{name: "thetadata", available: true, err: errors.New("down")}

		manager := newTestManager(t, dir, historical, nil)
		assert.Empty(t, manager.GetOptionsChain(ctx, "SPY", date, true))
	})
}

func TestClearCache(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	dir := t.TempDir()
	historical := &fakeFetcher{name: "thetadata", available: true, rows: fakeRows(date)}
	manager := newTestManager(t, dir, historical, nil)

	require.Len(t, manager.GetOptionsChain(ctx, "SPY", date, true), 4)

	var meta records.CacheMetadata
	require.NoError(t, manager.db.First(&meta).Error)
	require.FileExists(t, meta.FilePath)

	t.Run("recent entries survive", func(t *testing.T) {
		require.NoError(t, manager.ClearCache(30))

		var count int64
		manager.db.Model(&records.CacheMetadata{}).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("expired entries are removed with their files", func(t *testing.T) {
		manager.SetClock(func() time.Time { return time.Now().AddDate(0, 0, 60) })
		require.NoError(t, manager.ClearCache(30))

		var metaCount, qualityCount int64
		manager.db.Model(&records.CacheMetadata{}).Count(&metaCount)
		manager.db.Model(&records.DataQuality{}).Count(&qualityCount)
		assert.Zero(t, metaCount)
		assert.Zero(t, qualityCount)

		_, err := os.Stat(meta.FilePath)
		assert.True(t, os.IsNotExist(err))

		// hot cache flushed too: the next read goes back to the source
		historical.calls = 0
		manager.GetOptionsChain(ctx, "SPY", date, true)
		assert.Equal(t, 1, historical.calls)
	})
}
