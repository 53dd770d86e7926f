package chainstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jiaming2012/spread-trading/src/chainstore/records"
	"github.com/jiaming2012/spread-trading/src/dataservices"
	"github.com/jiaming2012/spread-trading/src/models"
	"github.com/jiaming2012/spread-trading/src/utils"
)

// Manager unifies the historical and live chain sources behind one
// quality-filtered, cached API. A cache hit for (symbol, date) from either
// source short-circuits fetching entirely.
type Manager struct {
	historical dataservices.OptionsChainFetcher
	live       dataservices.OptionsChainFetcher
	db         *gorm.DB
	cacheDir   string
	hot        *gocache.Cache
	now        func() time.Time
}

func NewManager(db *gorm.DB, cacheDir string, historical, live dataservices.OptionsChainFetcher) (*Manager, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("NewManager: failed to create cache dir: %w", err)
	}

	return &Manager{
		historical: historical,
		live:       live,
		db:         db,
		cacheDir:   cacheDir,
		hot:        gocache.New(gocache.NoExpiration, 0),
		now:        time.Now,
	}, nil
}

// SetClock overrides the manager's notion of "now", used by backtests and
// tests to pin the live-source recency window.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func hotKey(symbol string, date time.Time) string {
	return fmt.Sprintf("%s_%s", symbol, date.Format("2006-01-02"))
}

// GetOptionsChain returns the validated chain for (symbol, date). Sources
// are tried in priority order, historical first unless preferHistorical is
// false; the live source is skipped outside its recency window. Total
// failure returns an empty chain, never an error: an empty chain means "no
// signal possible today".
func (m *Manager) GetOptionsChain(ctx context.Context, symbol string, date time.Time, preferHistorical bool) []*models.OptionContract {
	if cached, found := m.hot.Get(hotKey(symbol, date)); found {
		return cached.([]*models.OptionContract)
	}

	if contracts, ok := m.readCache(symbol, date); ok {
		m.hot.Set(hotKey(symbol, date), contracts, gocache.NoExpiration)
		return contracts
	}

	sources := []dataservices.OptionsChainFetcher{m.historical, m.live}
	if !preferHistorical {
		sources = []dataservices.OptionsChainFetcher{m.live, m.historical}
	}

	for _, source := range sources {
		if source == nil {
			continue
		}

		if !source.Available(date, m.now()) {
			log.Debugf("Manager: GetOptionsChain: source %s not available for %s", source.Name(), date.Format("2006-01-02"))
			continue
		}

		rows, err := source.FetchChain(ctx, symbol, date)
		if err != nil {
			log.Warnf("Manager: GetOptionsChain: source %s failed: %v", source.Name(), err)
			continue
		}

		if len(rows) == 0 {
			continue
		}

		contracts := m.convertRows(rows, date, source.ExpirationLayout())
		filtered, report := ValidateDataQuality(contracts)

		if err := m.writeCache(symbol, date, source.Name(), filtered, report); err != nil {
			log.Warnf("Manager: GetOptionsChain: failed to cache chain: %v", err)
		}

		m.hot.Set(hotKey(symbol, date), filtered, gocache.NoExpiration)

		return filtered
	}

	log.Infof("Manager: GetOptionsChain: no source yielded data for %s on %s", symbol, date.Format("2006-01-02"))

	return nil
}

func (m *Manager) convertRows(rows []models.OptionChainRowDTO, date time.Time, expirationLayout string) []*models.OptionContract {
	contracts := make([]*models.OptionContract, 0, len(rows))
	for i := range rows {
		contract, err := rows[i].ToModel(date, expirationLayout)
		if err != nil {
			log.Debugf("Manager: convertRows: skipping row: %v", err)
			continue
		}

		contracts = append(contracts, contract)
	}

	return contracts
}

// readCache looks up (symbol, date) in the metadata index, any source, and
// loads the backing CSV on a hit.
func (m *Manager) readCache(symbol string, date time.Time) ([]*models.OptionContract, bool) {
	var meta records.CacheMetadata
	result := m.db.Where("symbol = ? AND date = ?", symbol, date.Format("2006-01-02")).
		Order("created_at DESC").
		First(&meta)

	if result.Error != nil {
		return nil, false
	}

	contracts, err := readChainFile(meta.FilePath)
	if err != nil {
		log.Warnf("Manager: readCache: cache file unreadable, refetching: %v", err)
		return nil, false
	}

	log.Debugf("Manager: readCache: cache hit for %s on %s (%d contracts)", symbol, date.Format("2006-01-02"), len(contracts))

	return contracts, true
}

// writeCache persists the filtered chain and its quality report. Writes are
// last-writer-wins per cache key.
func (m *Manager) writeCache(symbol string, date time.Time, source string, contracts []*models.OptionContract, report QualityReport) error {
	cacheKey := utils.CacheKey(symbol, date, source)
	filePath := filepath.Join(m.cacheDir, cacheKey+".csv")

	if err := writeChainFile(filePath, contracts); err != nil {
		return fmt.Errorf("writeCache: %w", err)
	}

	if err := m.db.Unscoped().Where("cache_key = ?", cacheKey).Delete(&records.CacheMetadata{}).Error; err != nil {
		return fmt.Errorf("writeCache: failed to clear stale metadata: %w", err)
	}

	meta := records.CacheMetadata{
		CacheKey:      cacheKey,
		Symbol:        symbol,
		Date:          date.Format("2006-01-02"),
		Source:        source,
		FilePath:      filePath,
		QualityScore:  report.QualityScore,
		ContractCount: len(contracts),
	}

	if err := m.db.Create(&meta).Error; err != nil {
		return fmt.Errorf("writeCache: failed to create metadata: %w", err)
	}

	quality := records.DataQuality{
		CacheKey:          cacheKey,
		ZeroBidPct:        report.ZeroBidPct,
		ZeroIvPct:         report.ZeroIVPct,
		WideSpreadsPct:    report.WideSpreadPct,
		AvgVolume:         report.AvgVolume,
		TotalOpenInterest: report.TotalOpenInterest,
		QualityScore:      report.QualityScore,
	}

	if err := m.db.Create(&quality).Error; err != nil {
		return fmt.Errorf("writeCache: failed to create quality record: %w", err)
	}

	return nil
}

// ClearCache removes cache entries older than the cutoff, their backing
// files, and any orphaned quality rows.
func (m *Manager) ClearCache(olderThanDays int) error {
	cutoff := m.now().AddDate(0, 0, -olderThanDays)

	var expired []records.CacheMetadata
	if err := m.db.Where("created_at < ?", cutoff).Find(&expired).Error; err != nil {
		return fmt.Errorf("ClearCache: failed to query expired entries: %w", err)
	}

	for _, meta := range expired {
		if err := os.Remove(meta.FilePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("Manager: ClearCache: failed to remove %s: %v", meta.FilePath, err)
		}

		if err := m.db.Unscoped().Delete(&meta).Error; err != nil {
			return fmt.Errorf("ClearCache: failed to delete metadata for %s: %w", meta.CacheKey, err)
		}

		if err := m.db.Unscoped().Where("cache_key = ?", meta.CacheKey).Delete(&records.DataQuality{}).Error; err != nil {
			return fmt.Errorf("ClearCache: failed to delete quality rows for %s: %w", meta.CacheKey, err)
		}
	}

	// Purge quality rows whose metadata is gone.
	if err := m.db.Unscoped().
		Where("cache_key NOT IN (?)", m.db.Model(&records.CacheMetadata{}).Select("cache_key")).
		Delete(&records.DataQuality{}).Error; err != nil {
		return fmt.Errorf("ClearCache: failed to purge orphaned quality rows: %w", err)
	}

	m.hot.Flush()

	log.Infof("Manager: ClearCache: removed %d entries older than %d days", len(expired), olderThanDays)

	return nil
}
