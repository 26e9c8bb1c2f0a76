package game

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesSentinelByKey(t *testing.T) {
	err := ErrInstanceNotFound.WithMetadata("id", "abc")
	if !errors.Is(err, ErrInstanceNotFound) {
		t.Fatalf("expected instance-not-found to match its sentinel")
	}
	if errors.Is(err, ErrDefinitionNotFound) {
		t.Fatalf("distinct NOT_FOUND sentinels must not match each other")
	}
	if !errors.Is(err, &Error{Code: CodeNotFound}) {
		t.Fatalf("code-only target should match any NOT_FOUND error")
	}
	if err.Metadata["id"] != "abc" {
		t.Fatalf("metadata lost: %v", err.Metadata)
	}
	if ErrInstanceNotFound.Metadata != nil {
		t.Fatalf("WithMetadata must not mutate the sentinel")
	}
}

func TestErrorWrappedChain(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := fmt.Errorf("create: %w", ErrZoneExhausted.Wrap(cause))
	if !errors.Is(err, ErrZoneExhausted) {
		t.Fatalf("wrapped error should still match sentinel")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if CodeOf(err) != CodeResourceExhausted {
		t.Fatalf("CodeOf = %q", CodeOf(err))
	}
	if KeyOf(err) != "error.zone_exhausted" {
		t.Fatalf("KeyOf = %q", KeyOf(err))
	}
	if CodeOf(cause) != "" {
		t.Fatalf("plain errors carry no code")
	}
}
