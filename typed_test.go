package store

import (
	"strings"
	"testing"
)

type sessionView struct {
	User     string `json:"user"`
	Attempts int    `json:"attempts"`
	Admin    bool   `json:"admin"`
}

func TestDecodeTypedView(t *testing.T) {
	state := State{
		"user":     "ada",
		"attempts": 3,
		"admin":    true,
	}

	view, err := Decode[sessionView](state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.User != "ada" || view.Attempts != 3 || !view.Admin {
		t.Fatalf("unexpected decode result: %+v", view)
	}
}

func TestDecodeIgnoresForeignKeysUnlessStrict(t *testing.T) {
	state := State{
		"user":     "ada",
		"ghost":    "ignored",
		"attempts": 1,
	}

	if _, err := Decode[sessionView](state); err != nil {
		t.Fatalf("loose decode should tolerate extra keys, got %v", err)
	}

	_, err := DecodeStrict[sessionView](state)
	if err == nil {
		t.Fatalf("expected strict decode to reject foreign keys")
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodePathSelectsSubtree(t *testing.T) {
	s := New(nil, State{
		"session": State{
			"user":     "ada",
			"attempts": 2,
			"admin":    false,
		},
		"flag": true,
	})

	view, err := DecodePath[sessionView](s, "session")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.User != "ada" || view.Attempts != 2 || view.Admin {
		t.Fatalf("unexpected decode result: %+v", view)
	}

	_, err = DecodePath[sessionView](s, "flag")
	if err == nil {
		t.Fatalf("expected scalar path to be rejected")
	}
	if !strings.Contains(err.Error(), `path "flag" does not hold a mapping`) {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = DecodePath[sessionView](s, "missing")
	if err == nil || !strings.Contains(err.Error(), `path "missing" does not hold a mapping`) {
		t.Fatalf("expected missing path rejection, got %v", err)
	}
}
