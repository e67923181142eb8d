package mocks

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-options/internal/types"
)

func smallConfig() ChainConfig {
	config := DefaultChainConfig()
	config.Days = 10

	return config
}

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := smallConfig()

	quotes := gen.Generate(config)
	if len(quotes) == 0 {
		t.Fatal("expected quotes to be generated")
	}

	dates := make(map[time.Time]bool)

	for i, q := range quotes {
		dates[q.Date] = true

		if q.Date.Weekday() == time.Saturday || q.Date.Weekday() == time.Sunday {
			t.Errorf("quote %d falls on a weekend: %s", i, q.Date)
		}

		if q.DTM() <= 0 || q.DTM() > config.MaxDTM {
			t.Errorf("quote %d has dtm %d outside (0, %d]", i, q.DTM(), config.MaxDTM)
		}

		if q.Bid > q.Ask {
			t.Errorf("quote %d has bid %f above ask %f", i, q.Bid, q.Ask)
		}

		if q.CallPut == types.OptionTypeCall && (q.Delta < 0 || q.Delta > 1) {
			t.Errorf("call quote %d has delta %f outside [0, 1]", i, q.Delta)
		}

		if q.CallPut == types.OptionTypePut && (q.Delta < -1 || q.Delta > 0) {
			t.Errorf("put quote %d has delta %f outside [-1, 0]", i, q.Delta)
		}

		if q.DayToEvent.IsSome() {
			t.Errorf("quote %d has day_to_event without an event date", i)
		}
	}

	if len(dates) != config.Days {
		t.Errorf("expected %d quote dates, got %d", config.Days, len(dates))
	}

	// Verify data is in chronological order
	for i := 1; i < len(quotes); i++ {
		if quotes[i].Date.Before(quotes[i-1].Date) {
			t.Errorf("quotes not in chronological order at index %d", i)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	// Same seed should produce same results
	first := NewDataGenerator(7).Generate(smallConfig())
	second := NewDataGenerator(7).Generate(smallConfig())

	if len(first) != len(second) {
		t.Fatalf("expected equal lengths, got %d and %d", len(first), len(second))
	}

	for i := range first {
		if first[i].UnderlyingPrice != second[i].UnderlyingPrice || first[i].Last != second[i].Last {
			t.Fatalf("quotes differ at index %d", i)
		}
	}
}

func TestDataGenerator_ContractsRecur(t *testing.T) {
	quotes := NewDataGenerator(1).Generate(smallConfig())

	observations := make(map[types.ContractKey]int)
	for _, q := range quotes {
		observations[q.Contract()]++
	}

	recurring := 0

	for _, n := range observations {
		if n > 1 {
			recurring++
		}
	}

	if recurring == 0 {
		t.Error("expected contracts to be quoted on more than one date")
	}
}

func TestDataGenerator_EventDate(t *testing.T) {
	config := smallConfig()
	event := config.StartDate.AddDate(0, 0, 5)
	config.EventDate = optional.Some(event)

	quotes := NewDataGenerator(3).Generate(config)

	for i, q := range quotes {
		expected := float64(types.DaysBetween(q.Date, event))
		if q.DayToEvent.IsNone() || q.DayToEvent.Unwrap() != expected {
			t.Fatalf("quote %d: expected day_to_event %v, got %v", i, expected, q.DayToEvent)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	quotes := NewDataGenerator(5).Generate(smallConfig())
	path := filepath.Join(t.TempDir(), "chain.csv")

	if err := WriteCSV(path, quotes); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
}

func BenchmarkDataGenerator_Generate(b *testing.B) {
	config := DefaultChainConfig()

	for i := 0; i < b.N; i++ {
		NewDataGenerator(42).Generate(config)
	}
}
