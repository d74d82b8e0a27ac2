package driver

// ScalarKind tags every TOML literal kind the lexer can produce, per
// the scalar model of spec.md §3.
type ScalarKind int

const (
	KindStringBasic ScalarKind = iota
	KindStringLiteral
	KindStringMLBasic
	KindStringMLLiteral
	KindStringBare
	KindIntDec
	KindIntBin
	KindIntOct
	KindIntHex
	KindFloatNum
	KindFloatPosInf
	KindFloatNegInf
	KindFloatInf
	KindFloatPosNaN
	KindFloatNegNaN
	KindFloatNaN
	KindBoolean
	KindDateOffsetDatetime
	KindDateLocalDatetime
	KindDateLocalDate
	KindDateLocalTime
)

func (k ScalarKind) String() string {
	switch k {
	case KindStringBasic:
		return "string_basic"
	case KindStringLiteral:
		return "string_literal"
	case KindStringMLBasic:
		return "string_ml_basic"
	case KindStringMLLiteral:
		return "string_ml_literal"
	case KindStringBare:
		return "string_bare"
	case KindIntDec:
		return "int_dec"
	case KindIntBin:
		return "int_bin"
	case KindIntOct:
		return "int_oct"
	case KindIntHex:
		return "int_hex"
	case KindFloatNum:
		return "float_num"
	case KindFloatPosInf:
		return "float_pos_inf"
	case KindFloatNegInf:
		return "float_neg_inf"
	case KindFloatInf:
		return "float_inf"
	case KindFloatPosNaN:
		return "float_pos_nan"
	case KindFloatNegNaN:
		return "float_neg_nan"
	case KindFloatNaN:
		return "float_nan"
	case KindBoolean:
		return "boolean"
	case KindDateOffsetDatetime:
		return "date_offset_datetime"
	case KindDateLocalDatetime:
		return "date_local_datetime"
	case KindDateLocalDate:
		return "date_local_date"
	case KindDateLocalTime:
		return "date_local_time"
	default:
		return "unknown"
	}
}

// isString reports whether the kind is one of the four TOML string
// variants or the bare-string kind.
func (k ScalarKind) isString() bool {
	switch k {
	case KindStringBasic, KindStringLiteral, KindStringMLBasic, KindStringMLLiteral, KindStringBare:
		return true
	}
	return false
}

func (k ScalarKind) isMultilineString() bool {
	return k == KindStringMLBasic || k == KindStringMLLiteral
}

func (k ScalarKind) isFloat() bool {
	switch k {
	case KindFloatNum, KindFloatPosInf, KindFloatNegInf, KindFloatInf, KindFloatPosNaN, KindFloatNegNaN, KindFloatNaN:
		return true
	}
	return false
}

func (k ScalarKind) isDatetime() bool {
	switch k {
	case KindDateOffsetDatetime, KindDateLocalDatetime, KindDateLocalDate, KindDateLocalTime:
		return true
	}
	return false
}

func (k ScalarKind) isBinaryBaseInt() bool {
	return k == KindIntBin || k == KindIntOct || k == KindIntHex
}

// Scalar is a single TOML literal value, carrying both its lexer-level
// content (Normalized: quotes removed, escape sequences still in place;
// translateScalar decodes them) and its source text (Original), per
// spec.md §3.
type Scalar struct {
	Kind       ScalarKind
	Normalized string
	Original   string
	Line       int
}
