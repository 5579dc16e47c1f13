package firebase

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"quadro-kanban/session"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(status.Error(codes.NotFound, "missing")) {
		t.Fatalf("expected NotFound to be detected")
	}
	if isNotFound(status.Error(codes.PermissionDenied, "nope")) {
		t.Fatalf("PermissionDenied is not NotFound")
	}
	if isNotFound(errors.New("plain")) {
		t.Fatalf("plain errors are not NotFound")
	}
}

func TestVerifierImplementsSessionInterfaces(t *testing.T) {
	var v interface{} = NewVerifier(nil)
	if _, ok := v.(session.Verifier); !ok {
		t.Fatalf("Verifier must implement session.Verifier")
	}
	if _, ok := v.(session.Revoker); !ok {
		t.Fatalf("Verifier must implement session.Revoker")
	}
}
