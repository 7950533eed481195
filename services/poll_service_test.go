package services

import (
	"sync"
	"testing"
)

func TestFlightTableSingleFlight(t *testing.T) {
	ft := flightTable{active: make(map[int]struct{})}

	if !ft.begin(1) {
		t.Fatal("first begin must succeed")
	}
	if ft.begin(1) {
		t.Fatal("second begin for the same tournament must be rejected")
	}
	// Другой турнир не затронут.
	if !ft.begin(2) {
		t.Fatal("begin for another tournament must succeed")
	}

	ft.end(1)
	if !ft.begin(1) {
		t.Fatal("begin must succeed again after end")
	}
}

func TestFlightTableConcurrentBegin(t *testing.T) {
	ft := flightTable{active: make(map[int]struct{})}

	const goroutines = 32
	var wg sync.WaitGroup
	admitted := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ft.begin(7) {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for range admitted {
		count++
	}
	if count != 1 {
		t.Fatalf("%d goroutines admitted for the same tournament, want exactly 1", count)
	}
}
