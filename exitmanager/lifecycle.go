package exitmanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

var ErrInvalidTransition = errors.New("invalid exit transition")

// Lifecycle events.
const (
	EventStartStandard = "start_standard"
	EventStartInFlight = "start_in_flight"
	EventPiggyback     = "piggyback"
	EventProcess       = "process"
)

// newLifecycle returns the exit state machine positioned at status:
//
//	unexited -> exit_queued -> exit_processed
//	unexited -> in_flight_started -> piggybacked -> exit_processed
func newLifecycle(status ExitStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(status),
		fsm.Events{
			{
				Name: EventStartStandard,
				Src:  []string{string(Unexited)},
				Dst:  string(ExitQueued),
			},
			{
				Name: EventStartInFlight,
				Src:  []string{string(Unexited)},
				Dst:  string(InFlightStarted),
			},
			{
				Name: EventPiggyback,
				Src:  []string{string(InFlightStarted)},
				Dst:  string(Piggybacked),
			},
			{
				Name: EventProcess,
				Src: []string{
					string(ExitQueued),
					string(Piggybacked),
				},
				Dst: string(ExitProcessed),
			},
		},
		fsm.Callbacks{},
	)
}

// advance applies event to exit, leaving it untouched when the transition is not allowed.
func advance(ctx context.Context, exit *Exit, event string) error {
	lifecycle := newLifecycle(exit.Status)
	if err := lifecycle.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %s from %s: %v", ErrInvalidTransition, event, exit.Status, err)
	}
	exit.Status = ExitStatus(lifecycle.Current())
	return nil
}

// canAdvance reports whether event is allowed from status.
func canAdvance(status ExitStatus, event string) bool {
	return newLifecycle(status).Can(event)
}
