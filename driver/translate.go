package driver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// translateScalar maps a scalar literal to its canonical stored string,
// per spec.md §4.F. It returns an error for malformed escapes and for
// numeric or datetime text that does not parse (for example an integer
// outside the 64-bit range); charset and datetime semantics have
// already been validated by the caller before translation is attempted.
func translateScalar(s Scalar) (string, error) {
	switch {
	case s.Kind == KindStringBasic:
		return decodeBasicString(s.Normalized, false)
	case s.Kind == KindStringMLBasic:
		return decodeBasicString(trimLeadingNewline(s.Normalized), true)
	case s.Kind == KindStringLiteral:
		return s.Normalized, nil
	case s.Kind == KindStringMLLiteral:
		return trimLeadingNewline(s.Normalized), nil
	case s.Kind == KindStringBare:
		return s.Normalized, nil
	case s.Kind == KindBoolean:
		return s.Normalized, nil
	case s.Kind == KindIntDec:
		return translateDecInt(s.Normalized)
	case s.Kind == KindIntBin:
		return translateBaseInt(s.Normalized, 2)
	case s.Kind == KindIntOct:
		return translateBaseInt(s.Normalized, 8)
	case s.Kind == KindIntHex:
		return translateBaseInt(s.Normalized, 16)
	case s.Kind == KindFloatNum:
		return translateFloat(s.Normalized)
	case s.Kind == KindFloatInf:
		return "inf", nil
	case s.Kind == KindFloatPosInf:
		return "+inf", nil
	case s.Kind == KindFloatNegInf:
		return "-inf", nil
	case s.Kind == KindFloatNaN:
		return "nan", nil
	case s.Kind == KindFloatPosNaN:
		return "+nan", nil
	case s.Kind == KindFloatNegNaN:
		return "-nan", nil
	case s.Kind.isDatetime():
		return translateDatetime(s)
	default:
		return s.Normalized, nil
	}
}

func trimLeadingNewline(s string) string {
	if strings.HasPrefix(s, "\n") {
		return s[1:]
	}
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return s
}

// decodeBasicString processes \-escapes per TOML. When multiline is
// true, a backslash immediately followed by a newline (and any
// following run of spaces, tabs and newlines) is a line continuation
// that is elided entirely, per spec.md §4.F.
func decodeBasicString(s string, multiline bool) (string, error) {
	if multiline {
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\n' || (s[i+1] == '\r' && i+2 < len(s) && s[i+2] == '\n')) {
				i++
				if s[i] == '\r' {
					i++
				}
				for i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '\t' || s[i+1] == '\n' || s[i+1] == '\r') {
					i++
				}
				continue
			}
			b.WriteByte(s[i])
		}
		s = b.String()
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			out.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("invalid escape at end of string")
		}
		i++
		switch s[i] {
		case 'b':
			out.WriteByte('\b')
		case 't':
			out.WriteByte('\t')
		case 'n':
			out.WriteByte('\n')
		case 'f':
			out.WriteByte('\f')
		case 'r':
			out.WriteByte('\r')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("invalid \\u escape")
			}
			r, err := parseHexRune(s[i+1 : i+5])
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			i += 4
		case 'U':
			if i+8 >= len(s) {
				return "", fmt.Errorf("invalid \\U escape")
			}
			r, err := parseHexRune(s[i+1 : i+9])
			if err != nil {
				return "", err
			}
			out.WriteRune(r)
			i += 8
		default:
			return "", fmt.Errorf("unsupported escape '\\%c'", s[i])
		}
	}
	return out.String(), nil
}

func parseHexRune(h string) (rune, error) {
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}

func translateDecInt(s string) (string, error) {
	s = strings.ReplaceAll(s, "_", "")
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(i, 10), nil
}

// translateBaseInt normalizes binary/octal/hex integer literals to
// unsigned decimal text, stripping the base prefix and any digit
// separators.
func translateBaseInt(s string, base int) (string, error) {
	s = strings.ReplaceAll(s, "_", "")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	s = s[2:] // strip 0x / 0o / 0b
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return "", err
	}
	if neg {
		v = uint64(-int64(v))
	}
	return strconv.FormatUint(v, 10), nil
}

func translateFloat(s string) (string, error) {
	s = strings.ReplaceAll(s, "_", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

var (
	offsetDatetimeLayouts = []string{
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
	}
	localDatetimeLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
	}
	localTimeLayouts = []string{
		"15:04:05.999999999",
	}
)

// translateDatetime reformats any of the four datetime variants into a
// canonical RFC-3339-flavored form.
func translateDatetime(s Scalar) (string, error) {
	switch s.Kind {
	case KindDateLocalDate:
		t, err := time.Parse("2006-01-02", s.Normalized)
		if err != nil {
			return "", err
		}
		return t.Format("2006-01-02"), nil
	case KindDateLocalTime:
		t, err := parseWithLayouts(s.Normalized, localTimeLayouts)
		if err != nil {
			return "", err
		}
		return t.Format("15:04:05.999999999"), nil
	case KindDateLocalDatetime:
		t, err := parseWithLayouts(s.Normalized, localDatetimeLayouts)
		if err != nil {
			return "", err
		}
		return t.Format("2006-01-02T15:04:05.999999999"), nil
	case KindDateOffsetDatetime:
		t, err := parseWithLayouts(s.Normalized, offsetDatetimeLayouts)
		if err != nil {
			return "", err
		}
		return t.Format("2006-01-02T15:04:05.999999999Z07:00"), nil
	default:
		return s.Normalized, nil
	}
}

func parseWithLayouts(s string, layouts []string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
