package playback

import "fmt"

// State is the playback state machine. Every change of the local player's
// mode goes through Transition, replacing the ad-hoc boolean flags a naive
// implementation accumulates (sync-in-progress, player-state-changed, ...).
type State string

const (
	StateIdle    State = "IDLE"
	StatePlaying State = "PLAYING"
	StatePaused  State = "PAUSED"
	StateSeeking State = "SEEKING"
	StateEnded   State = "ENDED"
)

// Input is an event applied to the playback state machine.
type Input string

const (
	InputLoad        Input = "LOAD"
	InputPlay        Input = "PLAY"
	InputPause       Input = "PAUSE"
	InputSeekStart   Input = "SEEK_START"
	InputSeekCommit  Input = "SEEK_COMMIT"
	InputEnded       Input = "ENDED"
)

// Transition returns the state that follows s on the given input, or an
// error when the input is not legal in s. Illegal inputs are how player
// implementation artifacts get surfaced instead of silently absorbed.
func Transition(s State, in Input) (State, error) {
	switch in {
	case InputLoad:
		// A new media load is legal from any state and resets playback.
		return StateIdle, nil
	case InputPlay:
		switch s {
		case StateIdle, StatePaused, StateSeeking, StateEnded:
			return StatePlaying, nil
		case StatePlaying:
			return StatePlaying, nil
		}
	case InputPause:
		switch s {
		case StatePlaying, StateSeeking:
			return StatePaused, nil
		case StatePaused, StateIdle:
			return StatePaused, nil
		}
	case InputSeekStart:
		switch s {
		case StatePlaying, StatePaused, StateIdle:
			return StateSeeking, nil
		case StateSeeking:
			return StateSeeking, nil
		}
	case InputSeekCommit:
		if s == StateSeeking {
			return StatePaused, nil
		}
	case InputEnded:
		if s == StatePlaying || s == StateSeeking {
			return StateEnded, nil
		}
		if s == StateEnded {
			return StateEnded, nil
		}
	}
	return s, fmt.Errorf("playback: illegal input %s in state %s", in, s)
}
