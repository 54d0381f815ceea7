package checkout

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tajirhq/storebackend/lib/myerrors"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name       string
		from       Step
		to         Step
		wantStatus int
	}{
		{"shipping to payment", StepShipping, StepPayment, 0},
		{"payment to confirmation", StepPayment, StepConfirmation, 0},
		{"payment back to shipping", StepPayment, StepShipping, 0},
		{"confirmation to success", StepConfirmation, StepSuccess, 0},
		{"confirmation back to payment", StepConfirmation, StepPayment, 0},
		{"shipping cannot skip to confirmation", StepShipping, StepConfirmation, http.StatusBadRequest},
		{"shipping cannot skip to success", StepShipping, StepSuccess, http.StatusBadRequest},
		{"payment cannot skip to success", StepPayment, StepSuccess, http.StatusBadRequest},
		{"success is terminal", StepSuccess, StepConfirmation, http.StatusBadRequest},
		{"success cannot repeat", StepSuccess, StepSuccess, http.StatusBadRequest},
		{"unknown step is an internal error", Step("bogus"), StepPayment, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateTransition(tc.from, tc.to)
			if tc.wantStatus == 0 {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, tc.wantStatus, myerrors.GetHTTPStatus(err))
			}
		})
	}
}

func TestEveryStepHasATransitionEntry(t *testing.T) {
	for _, step := range []Step{StepShipping, StepPayment, StepConfirmation, StepSuccess} {
		_, exists := allowedTransitions[step]
		assert.True(t, exists, "step %s missing from transition table", step)
	}
}
