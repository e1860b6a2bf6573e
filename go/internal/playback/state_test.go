package playback

import "testing"

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    State
		in      Input
		want    State
		wantErr bool
	}{
		{StateIdle, InputPlay, StatePlaying, false},
		{StatePlaying, InputPause, StatePaused, false},
		{StatePaused, InputPlay, StatePlaying, false},
		{StatePlaying, InputSeekStart, StateSeeking, false},
		{StateSeeking, InputSeekCommit, StatePaused, false},
		{StateSeeking, InputPlay, StatePlaying, false},
		{StatePlaying, InputEnded, StateEnded, false},
		{StateEnded, InputPlay, StatePlaying, false},
		{StateEnded, InputLoad, StateIdle, false},
		{StatePaused, InputEnded, StatePaused, true},
		{StateIdle, InputSeekCommit, StateIdle, true},
		{StateEnded, InputEnded, StateEnded, false},
	}

	for _, tc := range cases {
		got, err := Transition(tc.from, tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Transition(%s, %s): expected error", tc.from, tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Transition(%s, %s): %v", tc.from, tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Transition(%s, %s) = %s, want %s", tc.from, tc.in, got, tc.want)
		}
	}
}
