package keyed

import (
	"slices"
	"testing"
)

func TestActionString(t *testing.T) {
	tests := map[Action]string{
		ActionAdd:     "add",
		ActionRemove:  "remove",
		ActionReplace: "replace",
		ActionMove:    "move",
		ActionReset:   "reset",
		Action(42):    "invalid action 42",
	}
	for a, want := range tests {
		if got := a.String(); got != want {
			t.Errorf("Action(%d).String() = %q, expected %q", int(a), got, want)
		}
	}
}

func TestToChangeEvent(t *testing.T) {
	tests := []struct {
		name  string
		delta Delta[string]
		want  ChangeEvent[string]
	}{
		{
			name:  "Added",
			delta: Added[string]{Items: []string{"a", "b"}, StartIndex: 3},
			want:  ChangeEvent[string]{Action: ActionAdd, NewItems: []string{"a", "b"}, NewStartingIndex: 3, OldStartingIndex: -1},
		},
		{
			name:  "Removed",
			delta: Removed[string]{Items: []string{"c"}, StartIndex: 0},
			want:  ChangeEvent[string]{Action: ActionRemove, OldItems: []string{"c"}, NewStartingIndex: -1, OldStartingIndex: 0},
		},
		{
			name:  "Replaced",
			delta: Replaced[string]{NewItem: "new", OldItem: "old", Index: 2},
			want: ChangeEvent[string]{Action: ActionReplace, NewItems: []string{"new"}, OldItems: []string{"old"},
				NewStartingIndex: 2, OldStartingIndex: 2},
		},
		{
			name:  "Moved",
			delta: Moved[string]{Item: "m", NewIndex: 2, OldIndex: 0},
			want: ChangeEvent[string]{Action: ActionMove, NewItems: []string{"m"}, OldItems: []string{"m"},
				NewStartingIndex: 2, OldStartingIndex: 0},
		},
		{
			name:  "Reset",
			delta: Reset[string]{},
			want:  ChangeEvent[string]{Action: ActionReset, NewStartingIndex: -1, OldStartingIndex: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToChangeEvent(tt.delta)
			if got.Action != tt.want.Action ||
				got.NewStartingIndex != tt.want.NewStartingIndex ||
				got.OldStartingIndex != tt.want.OldStartingIndex ||
				!slices.Equal(got.NewItems, tt.want.NewItems) ||
				!slices.Equal(got.OldItems, tt.want.OldItems) {
				t.Errorf("ToChangeEvent(%v) = %+v, expected %+v", tt.delta, got, tt.want)
			}
			if got.Action != tt.delta.Action() {
				t.Errorf("Action %s does not match delta action %s", got.Action, tt.delta.Action())
			}
		})
	}
}

func TestDeltaString(t *testing.T) {
	tests := []struct {
		delta interface{ String() string }
		want  string
	}{
		{Added[int]{Items: []int{1, 2}, StartIndex: 0}, "add 2 item(s) at 0"},
		{Removed[int]{Items: []int{1}, StartIndex: 4}, "remove 1 item(s) at 4"},
		{Replaced[int]{Index: 1}, "replace item at 1"},
		{Moved[int]{NewIndex: 2, OldIndex: 0}, "move item 0 -> 2"},
		{Reset[int]{}, "reset"},
	}
	for _, tt := range tests {
		if got := tt.delta.String(); got != tt.want {
			t.Errorf("String() = %q, expected %q", got, tt.want)
		}
	}
}
