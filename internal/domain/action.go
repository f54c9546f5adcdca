package domain

// Action is the outcome of a position management check, ordered by severity.
// Everything except Hold closes the position; the engine settles
// CloseExpiration at intrinsic value and everything else at mark-to-market.
type Action int

const (
	Hold Action = iota
	CloseStopLoss
	CloseExpiration
	CloseEvent
	CloseTimeDecay
	CloseSignalExit
	CloseProfitTarget
)

func (a Action) String() string {
	switch a {
	case Hold:
		return "hold"
	case CloseStopLoss:
		return "stop_loss"
	case CloseExpiration:
		return "expiration"
	case CloseEvent:
		return "event"
	case CloseTimeDecay:
		return "time_decay"
	case CloseSignalExit:
		return "signal_exit"
	case CloseProfitTarget:
		return "profit_target"
	default:
		return "unknown"
	}
}

// Closes reports whether the action terminates a position
func (a Action) Closes() bool {
	return a != Hold
}
