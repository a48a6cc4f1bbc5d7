package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrTransient, "perturb", "call model", "item dropped", cause)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	want := "transient failure: perturb: call model: item dropped: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := Wrap(nil, "validate", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrValidation, "", "", "", nil)
	if err.Error() != "validation error: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsTerminal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrConfiguration, "run", "load config", "api key missing", nil), true},
		{Wrap(ErrExhausted, "transcribe", "scan images", "no images", nil), true},
		{Wrap(ErrValidation, "perturb", "parse", "bad json", nil), false},
		{Wrap(ErrTransient, "validate", "call model", "http 500", nil), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := IsTerminal(tc.err); got != tc.want {
			t.Fatalf("IsTerminal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
