package period

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kaskonter/kaskonter/internal/shared"
)

// ParseTimeframe builds a Timeframe from raw request values. kind defaults to
// ThisMonth when empty. year/month apply to the month token; from/to are
// 2006-01-02 dates for the custom token.
func ParseTimeframe(kind, year, month, from, to string) (Timeframe, error) {
	if kind == "" {
		kind = string(ThisMonth)
	}
	switch Kind(kind) {
	case Today, ThisWeek, ThisMonth:
		return Timeframe{Kind: Kind(kind)}, nil
	case SpecificMonth:
		y, err := strconv.Atoi(year)
		if err != nil {
			return Timeframe{}, fmt.Errorf("%w: year %q", shared.ErrInvalidRange, year)
		}
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return Timeframe{}, fmt.Errorf("%w: month %q", shared.ErrInvalidRange, month)
		}
		return Timeframe{Kind: SpecificMonth, Year: y, Month: time.Month(m)}, nil
	case CustomRange:
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			return Timeframe{}, fmt.Errorf("%w: from %q", shared.ErrInvalidRange, from)
		}
		end, err := time.Parse("2006-01-02", to)
		if err != nil {
			return Timeframe{}, fmt.Errorf("%w: to %q", shared.ErrInvalidRange, to)
		}
		return Timeframe{Kind: CustomRange, Start: start, End: end}, nil
	default:
		return Timeframe{}, fmt.Errorf("%w: unknown timeframe %q", shared.ErrInvalidRange, kind)
	}
}
