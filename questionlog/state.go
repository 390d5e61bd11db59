package questionlog

import "fmt"

// State is a step of the record state machine.
type State int

const (
	// StateWriteAttempt reads the log, checks for a duplicate and appends.
	StateWriteAttempt State = iota
	// StateRetryWait sleeps for the retry delay before the next attempt.
	StateRetryWait
	// StateSpill appends the question to the overflow file.
	StateSpill
	// StateDone ends the sequence.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateWriteAttempt:
		return "write_attempt"
	case StateRetryWait:
		return "retry_wait"
	case StateSpill:
		return "spill"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Next returns the state following a write attempt. attempt counts the
// attempts made so far, starting at 1, and maxAttempts is the total budget.
// Lock contention and other failures share the budget, and an exhausted
// budget always ends in a spill.
func Next(attempt, maxAttempts int, err error) State {
	if err == nil {
		return StateDone
	}
	if attempt >= maxAttempts {
		return StateSpill
	}
	return StateRetryWait
}

// Outcome reports how a question was handled by Record.
type Outcome int

const (
	// OutcomeRecorded means a new row was appended to the log.
	OutcomeRecorded Outcome = iota
	// OutcomeDuplicate means the exact question was already logged.
	OutcomeDuplicate
	// OutcomeSpilled means the question went to the overflow file.
	OutcomeSpilled
	// OutcomeFailed means neither the log nor the overflow file accepted it.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSpilled:
		return "spilled"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}
