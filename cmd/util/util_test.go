package util

import (
	"slices"
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}

	if got := WrapString("  short   help "); got != "short help" {
		t.Errorf("WrapString collapsed to %q", got)
	}
	if got := WrapString(""); got != "" {
		t.Errorf("WrapString(\"\") = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" add, ,move,churn ,")
	if !slices.Equal(got, []string{"add", "move", "churn"}) {
		t.Errorf("SplitList = %v", got)
	}
	if SplitList("") != nil {
		t.Errorf("SplitList(\"\") should be nil")
	}
}
