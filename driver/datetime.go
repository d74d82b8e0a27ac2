package driver

import (
	"regexp"
	"strconv"
)

// dateRe/timeRe/datetimeRe decompose the four TOML datetime variants
// (datetimeRe serves both the local and the offset datetime) into their calendar/clock components for semantic
// validation, per spec.md §4.E. TOML permits 'T' or a single space
// between date and time, and '.' fractional seconds of any length.
var (
	dateRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	timeRe     = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(\.\d+)?$`)
	datetimeRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2}):(\d{2})(\.\d+)?([Zz]|[+-]\d{2}:\d{2})?$`)
)

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func daysInMonth(y, m int) int {
	switch m {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(y) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

func validDate(y, m, d int) bool {
	if m < 1 || m > 12 {
		return false
	}
	if d < 1 || d > daysInMonth(y, m) {
		return false
	}
	return true
}

// validClock validates hour/minute/second ranges. Leap seconds (second
// == 60) are not specially handled — this is a documented TODO carried
// over unresolved from the original implementation (see spec.md §4.E
// and DESIGN.md).
func validClock(h, mi, se int) bool {
	if h < 0 || h > 23 {
		return false
	}
	if mi < 0 || mi > 59 {
		return false
	}
	if se < 0 || se > 59 {
		return false
	}
	return true
}

// validateDateTime rejects impossible calendar/clock combinations in a
// datetime scalar, dispatching on its kind.
func validateDateTime(s Scalar) bool {
	switch s.Kind {
	case KindDateLocalDate:
		m := dateRe.FindStringSubmatch(s.Normalized)
		if m == nil {
			return false
		}
		return validDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	case KindDateLocalTime:
		m := timeRe.FindStringSubmatch(s.Normalized)
		if m == nil {
			return false
		}
		return validClock(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	case KindDateLocalDatetime:
		m := datetimeRe.FindStringSubmatch(s.Normalized)
		if m == nil || m[8] != "" { // local datetime must not carry an offset
			return false
		}
		return validDate(atoi(m[1]), atoi(m[2]), atoi(m[3])) && validClock(atoi(m[4]), atoi(m[5]), atoi(m[6]))
	case KindDateOffsetDatetime:
		m := datetimeRe.FindStringSubmatch(s.Normalized)
		if m == nil || m[8] == "" { // offset datetime must carry an offset
			return false
		}
		return validDate(atoi(m[1]), atoi(m[2]), atoi(m[3])) && validClock(atoi(m[4]), atoi(m[5]), atoi(m[6]))
	default:
		return true
	}
}
