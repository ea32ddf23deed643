package sim

import "testing"

// wireTestBus builds n caches and a bus/dmq/stats triple fully wired
// together, the same way Simulator does, so bus.go can be exercised without
// standing up a full Simulator.
func wireTestBus(cfg Config, n int) (*Bus, []*Cache, *Statistics, *DMQ) {
	stats := NewStatistics(n)
	dmq := NewDMQ(memFetchCycles * 4)
	bus := NewBus(cfg)
	caches := make([]*Cache, n)
	for i := 0; i < n; i++ {
		caches[i] = NewCache(i, cfg)
		caches[i].wire(bus, dmq, stats)
	}
	bus.wire(caches, stats)
	return bus, caches, stats, dmq
}

func runBusUntilIdle(bus *Bus, caches []*Cache, dmq *DMQ, maxCycles uint64) {
	for cycle := uint64(1); cycle <= maxCycles; cycle++ {
		for _, c := range caches {
			c.Tick(cycle)
		}
		bus.Tick()
		dmq.DrainDue(cycle) // no processors in these bus-only tests; just drain to avoid stale-entry violations
		if bus.Idle() {
			return
		}
	}
}

func TestBus_Fairness_LowerIDGrantedFirstOnSimultaneousAcquire(t *testing.T) {
	// GIVEN two caches that both miss on the same address in the same cycle,
	// requesting the bus in ascending id order (the order the simulator's
	// fixed processor-tick order always produces for same-cycle acquires)
	cfg := Config{Protocol: ProtocolMESI, CacheSize: 16, Associativity: 2, BlockSize: 4}
	bus, caches, _, dmq := wireTestBus(cfg, 2)

	caches[0].OnPrSig(1, SigRead, 0x00)
	caches[1].OnPrSig(1, SigRead, 0x00)

	// WHEN the bus ticks once
	bus.Tick()

	// THEN cache 0 is granted first: the bus is owned by 0, and 1 is still queued
	if bus.state.kind != busAcquiredBy || bus.state.owner != 0 {
		t.Fatalf("expected bus AcquiredBy(0), got kind=%v owner=%d", bus.state.kind, bus.state.owner)
	}
	if bus.acquirers.Len() != 1 {
		t.Errorf("expected cache 1 still queued, acquirers.Len()=%d", bus.acquirers.Len())
	}

	// AND cache 1 is eventually granted after cache 0 releases
	runBusUntilIdle(bus, caches, dmq, 500)
	if !bus.Idle() {
		t.Fatal("expected bus idle after both requests resolve")
	}
}

func TestBus_ShareQuery_TrueWhenAnotherCacheHoldsBlock(t *testing.T) {
	cfg := Config{Protocol: ProtocolMESI, CacheSize: 16, Associativity: 2, BlockSize: 4}
	bus, caches, _, _ := wireTestBus(cfg, 2)
	caches[1].install(0x00, StateExclusive)

	if !bus.ShareQuery(0, 0x00) {
		t.Error("expected ShareQuery(origin=0, 0x00) true: cache 1 holds it")
	}
	if bus.ShareQuery(1, 0x00) {
		t.Error("expected ShareQuery(origin=1, 0x00) false: no other cache holds it")
	}
}

func TestBus_Idle_FalseWhileAcquirerQueued(t *testing.T) {
	cfg := Config{Protocol: ProtocolMESI, CacheSize: 16, Associativity: 2, BlockSize: 4}
	bus, caches, _, _ := wireTestBus(cfg, 1)

	if !bus.Idle() {
		t.Fatal("expected idle before any request")
	}
	caches[0].OnPrSig(1, SigRead, 0x00)
	if bus.Idle() {
		t.Error("expected not idle once a cache is waiting for the bus")
	}
}

func TestBus_Transmit_PanicsWhenNotOwnerOrTransmitting(t *testing.T) {
	cfg := Config{Protocol: ProtocolMESI, CacheSize: 16, Associativity: 2, BlockSize: 4}
	bus, _, _, _ := wireTestBus(cfg, 2)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on transmit while bus is Free")
		}
	}()
	bus.Transmit(0, BusSignal{Kind: BusRd, Address: 0x00, Origin: 0})
}
