package aptos

import "fmt"

// TransactionState is where a single transaction is in its lifecycle
//
//	Built -> Simulated (optional) -> Signed -> Submitted -> Committed | Rejected
//
// Committed means the ledger executed the transaction successfully, Rejected that it was committed with a failed
// status.  Both are terminal.
type TransactionState string

const (
	StateBuilt     TransactionState = "built"
	StateSimulated TransactionState = "simulated"
	StateSigned    TransactionState = "signed"
	StateSubmitted TransactionState = "submitted"
	StateCommitted TransactionState = "committed"
	StateRejected  TransactionState = "rejected"
)

var stateTransitions = map[TransactionState][]TransactionState{
	"":             {StateBuilt},
	StateBuilt:     {StateSimulated, StateSigned},
	StateSimulated: {StateSigned},
	StateSigned:    {StateSubmitted},
	StateSubmitted: {StateCommitted, StateRejected},
}

// IsTerminal reports whether no further transition exists
func (s TransactionState) IsTerminal() bool {
	return s == StateCommitted || s == StateRejected
}

// CanTransition reports whether next may follow s
func (s TransactionState) CanTransition(next TransactionState) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StateHistory is the ordered list of states a transaction went through
type StateHistory []TransactionState

// Current is the latest state, empty before Built
func (h StateHistory) Current() TransactionState {
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1]
}

// Advance appends next if the transition is allowed
func (h *StateHistory) Advance(next TransactionState) error {
	current := h.Current()
	if !current.CanTransition(next) {
		return fmt.Errorf("invalid transaction state transition %q -> %q", current, next)
	}
	*h = append(*h, next)
	return nil
}
