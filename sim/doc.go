// Package sim provides the core discrete-event simulation engine for the
// snooping cache-coherence simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - types.go: the instruction, signal, and block-state vocabulary shared by every component
//   - dmq.go: the delayed message queue that gives components a consistent notion of time
//   - bus.go, cache.go, processor.go: the three component state machines
//   - simulator.go: the per-cycle tick order and termination check
//
// # Architecture
//
// Trace parsing lives in sim/trace (an external collaborator producing a lazy,
// restartable instruction stream per processor); report formatting lives in
// sim/report. Everything else — the bus, the caches, the processors, the DMQ,
// and the MESI/Dragon transition tables — lives in this package because they
// share tight, synchronous call paths (on_bus_granted, on_bus_signal) that
// would only be obscured by a package boundary.
package sim
