package utils

import (
	"crypto/md5"
	"fmt"
	"time"
)

// CacheKey derives the deterministic key for one cached chain:
// md5("{symbol}_{date}_{source}").
func CacheKey(symbol string, date time.Time, source string) string {
	raw := fmt.Sprintf("%s_%s_%s", symbol, date.Format("2006-01-02"), source)
	return fmt.Sprintf("%x", md5.Sum([]byte(raw)))
}
