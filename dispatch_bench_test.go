package store

import (
	"fmt"
	"testing"
)

func BenchmarkDispatchMerge(b *testing.B) {
	s := New(map[string]Reducer{
		"increment": incrementReducer,
	}, State{"count": 0})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Dispatch("increment"); err != nil {
			b.Fatalf("dispatch: %v", err)
		}
	}
}

func BenchmarkGetWithTrace(b *testing.B) {
	state := State{}
	for i := 0; i < 10; i++ {
		state[fmt.Sprintf("section_%d", i)] = State{
			"limits": State{
				"daily":  100 - i,
				"weekly": 700 - i*10,
			},
		}
	}
	s := New(nil, state)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		value, trace := s.GetWithTrace("section_5.limits.weekly")
		if value == nil || !trace.Found {
			b.Fatalf("trace miss: %+v", trace)
		}
	}
}
