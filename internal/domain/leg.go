package domain

import "time"

// ContractMultiplier is the share count one option contract controls.
const ContractMultiplier = 100.0

// LegType identifies the instrument and side of a single trade leg
type LegType int

const (
	LongCall LegType = iota
	ShortCall
	LongPut
	ShortPut
	LongUnderlying
	ShortUnderlying
)

func (lt LegType) String() string {
	switch lt {
	case LongCall:
		return "long_call"
	case ShortCall:
		return "short_call"
	case LongPut:
		return "long_put"
	case ShortPut:
		return "short_put"
	case LongUnderlying:
		return "long_underlying"
	case ShortUnderlying:
		return "short_underlying"
	default:
		return "unknown"
	}
}

// IsOption reports whether the leg is an option (not stock)
func (lt LegType) IsOption() bool {
	return lt != LongUnderlying && lt != ShortUnderlying
}

// IsCall reports whether the leg is a call option
func (lt LegType) IsCall() bool {
	return lt == LongCall || lt == ShortCall
}

// IsPut reports whether the leg is a put option
func (lt LegType) IsPut() bool {
	return lt == LongPut || lt == ShortPut
}

// Sign returns +1 for long legs and -1 for short legs
func (lt LegType) Sign() float64 {
	switch lt {
	case LongCall, LongPut, LongUnderlying:
		return 1
	default:
		return -1
	}
}

// TradeLeg is one leg of a (possibly multi-leg) position.
// Strike and Expiration are meaningless for underlying legs.
// Immutable once created.
type TradeLeg struct {
	Type       LegType   `json:"type"`
	Strike     float64   `json:"strike"`
	Expiration time.Time `json:"expiration"`
	EntryPrice float64   `json:"entry_price"` // per-unit theoretical price at entry
}

// Direction is the directional bias of a signal or position
type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionNeutral Direction = "neutral"
)
