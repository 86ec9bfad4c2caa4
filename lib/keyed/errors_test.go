package keyed

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesSentinelByCode(t *testing.T) {
	err := Errorf(RetCDuplicateKey, "item with key %v already exists in list", "a")

	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("Expected %v to match ErrDuplicateKey", err)
	}
	if errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Error with code DuplicateKey matched ErrKeyNotFound")
	}

	wrapped := fmt.Errorf("loading tasks: %w", err)
	if !errors.Is(wrapped, ErrDuplicateKey) {
		t.Errorf("Wrapped error should still match its sentinel")
	}

	var kerr *Error
	if !errors.As(wrapped, &kerr) || kerr.Code != RetCDuplicateKey {
		t.Errorf("errors.As did not recover the code: %v", kerr)
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(RetCIndexOutOfRange, "index 3 out of range [0, 2)")
	want := "keyed list error (code IndexOutOfRange): index 3 out of range [0, 2)"
	if err.Error() != want {
		t.Errorf("Error() = %q, expected %q", err.Error(), want)
	}

	if got := ErrNotImplemented.Error(); got != "keyed list error (code NotImplemented)" {
		t.Errorf("Sentinel message = %q", got)
	}
}

func TestRetCodeString(t *testing.T) {
	codes := map[RetCode]string{
		RetCSuccess:         "Success",
		RetCInvalidArgument: "InvalidArgument",
		RetCDuplicateKey:    "DuplicateKey",
		RetCKeyNotFound:     "KeyNotFound",
		RetCIndexOutOfRange: "IndexOutOfRange",
		RetCNotImplemented:  "NotImplemented",
		RetCode(99):         "Unknown(99)",
	}
	for c, want := range codes {
		if got := c.String(); got != want {
			t.Errorf("RetCode(%d).String() = %q, expected %q", uint64(c), got, want)
		}
	}
}
