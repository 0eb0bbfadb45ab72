package store

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestGetWithTraceRecordsSteps(t *testing.T) {
	s := New(nil, State{
		"user": State{
			"profile": State{"name": "Ada"},
			"roles":   []any{"admin", "ops"},
		},
	})

	value, trace := s.GetWithTrace("user.profile.name")
	if value != "Ada" {
		t.Fatalf("expected Ada, got %v", value)
	}
	if !trace.Found || trace.Default {
		t.Fatalf("expected found trace without default, got %+v", trace)
	}
	if trace.Path != "user.profile.name" {
		t.Fatalf("expected original path on trace, got %q", trace.Path)
	}
	if len(trace.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %+v", trace.Steps)
	}
	first := trace.Steps[0]
	if first.Segment != "user" || first.Path != "user" || !first.Found || first.Value == nil {
		t.Fatalf("unexpected first step: %+v", first)
	}
	last := trace.Steps[2]
	if last.Segment != "name" || last.Path != "user.profile.name" || !last.Found {
		t.Fatalf("unexpected last step: %+v", last)
	}
	if last.Value != "Ada" {
		t.Fatalf("expected last step to carry the resolved value, got %v", last.Value)
	}

	value, trace = s.GetWithTrace("user.roles[1]")
	if value != "ops" {
		t.Fatalf("expected ops, got %v", value)
	}
	if len(trace.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %+v", trace.Steps)
	}
	index := trace.Steps[2]
	if index.Segment != "1" || index.Path != "user.roles.1" || index.Value != "ops" {
		t.Fatalf("unexpected index step: %+v", index)
	}
}

func TestGetWithTraceDefaultsOnMiss(t *testing.T) {
	s := New(nil, State{"user": State{"name": "Ada"}})

	value, trace := s.GetWithTrace("user.email", "unknown")
	if value != "unknown" {
		t.Fatalf("expected fallback value, got %v", value)
	}
	if trace.Found {
		t.Fatalf("expected unresolved trace, got %+v", trace)
	}
	if !trace.Default {
		t.Fatalf("expected default marker, got %+v", trace)
	}
	if len(trace.Steps) != 2 {
		t.Fatalf("expected walk to stop at the miss, got %+v", trace.Steps)
	}
	miss := trace.Steps[1]
	if miss.Found || miss.Segment != "email" || miss.Path != "user.email" {
		t.Fatalf("unexpected miss step: %+v", miss)
	}
	if miss.Value != nil {
		t.Fatalf("expected no value on the miss step, got %v", miss.Value)
	}

	value, trace = s.GetWithTrace("user.email")
	if value != nil {
		t.Fatalf("expected nil without a default, got %v", value)
	}
	if trace.Default {
		t.Fatalf("expected no default marker without a default argument")
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	s := New(nil, State{
		"features": State{"newUI": true},
	})
	_, trace := s.GetWithTrace("features.newUI")

	raw, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON returned error: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("expected valid JSON, got %s", raw)
	}

	decoded, err := TraceFromJSON(raw)
	if err != nil {
		t.Fatalf("TraceFromJSON returned error: %v", err)
	}
	if !reflect.DeepEqual(decoded, trace) {
		t.Fatalf("expected lossless round trip\nwant: %+v\ngot:  %+v", trace, decoded)
	}
}
