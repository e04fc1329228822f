package domain

// DeriveStockStatus computes the stock status implied by a stock level and
// minimum threshold. It is a pure function; callers must skip it for
// products manually pinned to available_soon.
func DeriveStockStatus(level, minimum int) StockStatus {
	switch {
	case level <= 0:
		return StockStatusUnavailable
	case level <= minimum:
		return StockStatusLow
	default:
		return StockStatusAvailable
	}
}

// CrossedLowStockThreshold reports whether a stock level change moved a
// product from above its minimum to at or below it. This is the condition
// that triggers a low-stock notification, evaluated against the level
// immediately preceding the change, never a stale read.
func CrossedLowStockThreshold(oldLevel, newLevel, minimum int) bool {
	return oldLevel > minimum && newLevel <= minimum
}
