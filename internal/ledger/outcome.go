package ledger

// Outcome is the result of a pay or cancel request.
type Outcome int

const (
	// OutcomeNone accompanies a non-nil error.
	OutcomeNone Outcome = iota
	// OutcomeRecorded means a payment was appended and the expense is still pending.
	OutcomeRecorded
	// OutcomeSettled means the payment completed the expense and it is now paid.
	OutcomeSettled
	// OutcomeCancelled means the expense moved from pending to cancelled.
	OutcomeCancelled
	// OutcomeNoSuchPendingExpense means nothing changed: the expense does not
	// exist or is already paid or cancelled.
	OutcomeNoSuchPendingExpense
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeSettled:
		return "settled"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNoSuchPendingExpense:
		return "no_such_pending_expense"
	}
	return "none"
}

// Err converts the no-op outcome into ErrNoSuchPendingExpense for callers
// that treat it as a failure.
func (o Outcome) Err() error {
	if o == OutcomeNoSuchPendingExpense {
		return ErrNoSuchPendingExpense
	}
	return nil
}
