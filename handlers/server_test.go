package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quadro-kanban/database"
	"quadro-kanban/gateway"
	"quadro-kanban/kanban"
	"quadro-kanban/models"
	"quadro-kanban/session"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("quadro x: %w", gateway.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("quadro x: %w", gateway.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: t1", kanban.ErrTaskNotFound), http.StatusNotFound},
		{database.ErrUserNotFound, http.StatusNotFound},
		{kanban.ErrGestureInProgress, http.StatusConflict},
		{kanban.ErrViewNotFound, http.StatusConflict},
		{models.ErrTitleRequired, http.StatusBadRequest},
		{fmt.Errorf("%w: \"x\"", models.ErrInvalidStatus), http.StatusBadRequest},
		{fmt.Errorf("%w: rede", kanban.ErrCreateFailed), http.StatusBadGateway},
		{session.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.New("qualquer"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("senha do banco: hunter2"), "teste")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if body := rec.Body.String(); body != http.StatusText(http.StatusInternalServerError)+"\n" {
		t.Fatalf("internal error leaked: %q", body)
	}
}

type stubVerifier struct {
	sess session.Session
	err  error
}

func (v stubVerifier) Verify(context.Context, string) (session.Session, error) {
	return v.sess, v.err
}

func TestAuthMiddlewarePutsSessionInContext(t *testing.T) {
	s := &Server{Verifier: stubVerifier{sess: session.Session{UserID: "alpha"}}}
	var got session.Session
	h := s.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		got, _ = session.FromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/boards/list", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK || got.UserID != "alpha" {
		t.Fatalf("expected session alpha, got %+v (status %d)", got, rec.Code)
	}

	s.Verifier = stubVerifier{err: session.ErrUnauthenticated}
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/boards/list", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header should be 401, got %d", rec.Code)
	}
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	var captured int
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		captured = w.(*responseWriter).statusCode
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusTeapot || captured != http.StatusTeapot {
		t.Fatalf("unexpected status %d / %d", rec.Code, captured)
	}
}
