package schedule

import (
	"fmt"

	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
)

// allowedTransitions maps each status to the states it may move to.
// Completed and cancelled are terminal.
var allowedTransitions = map[model.TaskStatus][]model.TaskStatus{
	model.StatusPending:    {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusBlocked, model.StatusCancelled},
	model.StatusBlocked:    {model.StatusInProgress, model.StatusCancelled},
	model.StatusCompleted:  {},
	model.StatusCancelled:  {},
}

// ValidateTransition gates every status mutation. Setting a task to its
// current status is a no-op, not an error.
func ValidateTransition(from, to model.TaskStatus) error {
	if !from.Valid() || !to.Valid() {
		return customErrors.NewInvalidArgument("unknown task status")
	}
	if from == to {
		return nil
	}
	for _, allowed := range allowedTransitions[from] {
		if to == allowed {
			return nil
		}
	}
	return customErrors.NewInvalidArgument(
		fmt.Sprintf("invalid status transition from %s to %s", from, to))
}
