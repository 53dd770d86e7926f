package records

import "gorm.io/gorm"

// CacheMetadata indexes one cached chain file. CacheKey is the md5 of
// "{symbol}_{date}_{source}"; the latest write for a key wins.
type CacheMetadata struct {
	gorm.Model
	CacheKey      string  `gorm:"column:cache_key;uniqueIndex;not null"`
	Symbol        string  `gorm:"column:symbol;not null;index:idx_symbol_date"`
	Date          string  `gorm:"column:date;not null;index:idx_symbol_date"`
	Source        string  `gorm:"column:source;not null"`
	FilePath      string  `gorm:"column:file_path;not null"`
	QualityScore  float64 `gorm:"column:quality_score;type:numeric;not null"`
	ContractCount int     `gorm:"column:contract_count;not null"`
}

func (CacheMetadata) TableName() string {
	return "cache_metadata"
}

// DataQuality records the filter statistics observed when a chain was
// validated, so cached quality stays consistent with filtering quality.
type DataQuality struct {
	gorm.Model
	CacheKey          string  `gorm:"column:cache_key;index"`
	ZeroBidPct        float64 `gorm:"column:zero_bid_pct;type:numeric"`
	ZeroIvPct         float64 `gorm:"column:zero_iv_pct;type:numeric"`
	WideSpreadsPct    float64 `gorm:"column:wide_spreads_pct;type:numeric"`
	AvgVolume         float64 `gorm:"column:avg_volume;type:numeric"`
	TotalOpenInterest int     `gorm:"column:total_open_interest"`
	QualityScore      float64 `gorm:"column:quality_score;type:numeric"`
}

func (DataQuality) TableName() string {
	return "data_quality"
}
