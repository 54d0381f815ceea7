package checkout

import (
	"fmt"

	"github.com/tajirhq/storebackend/lib/myerrors"
)

// allowedTransitions is the full wizard transition table. Anything not
// listed here is rejected.
var allowedTransitions = map[Step][]Step{
	StepShipping:     {StepPayment},
	StepPayment:      {StepShipping, StepConfirmation},
	StepConfirmation: {StepPayment, StepSuccess},
	StepSuccess:      {},
}

// previousStep maps each step to the one "back" navigates to. StepShipping
// has no predecessor and StepSuccess is terminal, so neither appears.
var previousStep = map[Step]Step{
	StepPayment:      StepShipping,
	StepConfirmation: StepPayment,
}

// validateTransition checks whether the session may move from its current
// step to the target step. A stored session on a step outside the table is
// corrupt and reported as an internal error.
func validateTransition(from Step, to Step) error {
	targets, exists := allowedTransitions[from]
	if !exists {
		return myerrors.NewInternalError(fmt.Errorf("session is on unknown step '%s'", from))
	}

	for _, target := range targets {
		if target == to {
			return nil
		}
	}

	return myerrors.NewInvalidInputErrorf("transition from step '%s' to step '%s' is not allowed", from, to)
}
