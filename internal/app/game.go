package app

import "time"

// Game wires the core components around one store, catalog and code index.
// Everything shares the per-session lock table, which is what serializes a
// session's state transitions.
type Game struct {
	Registry  *Registry
	Rounds    *Coordinator
	Ledger    *Ledger
	Boards    *Aggregator
	Broadcast *Broadcaster
}

func New(store GameStore, catalog QuizCatalog, codes CodeIndex) *Game {
	return NewWithClock(store, catalog, codes, time.Now)
}

// NewWithClock allows deterministic timestamps in tests.
func NewWithClock(store GameStore, catalog QuizCatalog, codes CodeIndex, now func() time.Time) *Game {
	locks := newSessionLocks()
	bc := NewBroadcaster()

	boards := &Aggregator{store: store, now: now}
	rounds := &Coordinator{
		store:   store,
		catalog: catalog,
		boards:  boards,
		bc:      bc,
		locks:   locks,
		now:     now,
		timers:  make(map[string]*time.Timer),
	}
	ledger := &Ledger{
		store:   store,
		catalog: catalog,
		rounds:  rounds,
		bc:      bc,
		locks:   locks,
		now:     now,
	}
	registry := &Registry{
		store:   store,
		catalog: catalog,
		codes:   codes,
		rounds:  rounds,
		bc:      bc,
		locks:   locks,
		now:     now,
	}

	return &Game{
		Registry:  registry,
		Rounds:    rounds,
		Ledger:    ledger,
		Boards:    boards,
		Broadcast: bc,
	}
}
