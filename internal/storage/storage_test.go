package storage

import (
	"errors"
	"testing"
)

func TestCheckKey(t *testing.T) {
	t.Parallel()

	for _, k := range []string{KeyUsers, KeyPatients, KeyChairs, KeyVisits, KeyMedications, KeyAppointments, KeyCurrentUser, KeySessionKey, KeySealSalt, "plain"} {
		if err := CheckKey(k); err != nil {
			t.Fatalf("CheckKey(%q): %v", k, err)
		}
	}
	for _, k := range []string{"", "  ", "a/b", `a\b`, "..", "x..y"} {
		if err := CheckKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CheckKey(%q)=%v, want ErrInvalidKey", k, err)
		}
	}
}
