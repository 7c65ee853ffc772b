package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsDomainRule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("chair 1: %w", ErrDuplicateChairNumber), true},
		{fmt.Errorf("delete: %w", ErrChairOccupied), true},
		{ErrChairOccupiedByPatient, true},
		{ErrNotFound, false},
		{fmt.Errorf("%w: boom", ErrStorageWrite), false},
		{errors.New("other"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsDomainRule(c.err); got != c.want {
			t.Fatalf("IsDomainRule(%v)=%v, want %v", c.err, got, c.want)
		}
	}
}

func TestStorageSentinels_WrapTogether(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := fmt.Errorf("%w: key %q: %w", ErrStorageWrite, "@chairs", cause)
	if !errors.Is(err, ErrStorageWrite) || !errors.Is(err, cause) {
		t.Fatalf("want both sentinel and cause in chain: %v", err)
	}
	if errors.Is(err, ErrStorageRead) {
		t.Fatalf("write error must not match read sentinel")
	}
}
