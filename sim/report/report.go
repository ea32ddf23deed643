// Package report formats a completed run's Statistics into a textual
// report: a per-processor table and an aggregate summary.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/coherence-sim/coherence-sim/sim"
)

// Write renders the standard report: cycle count, per-processor table, and
// the aggregate miss-rate mean/stddev across processors.
func Write(w io.Writer, protocol sim.Protocol, cycles uint64, s *sim.Statistics, detailed bool) error {
	fmt.Fprintf(w, "protocol: %s\n", protocol)
	fmt.Fprintf(w, "total cycles: %d\n\n", cycles)

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "proc\tcompute\tmem-stall\tidle\tloads\tstores\tmisses\tmiss%\tprivate\tshared\tinvalidations\twritebacks")
	for i, p := range s.Proc {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%d\t%d\t%d\t%d\n",
			i, p.ComputeCycles, p.MemStallCycles, p.IdleCycles,
			p.Loads, p.Stores, p.Misses, p.MissRate()*100,
			p.PrivateAccesses, p.SharedAccesses, p.Invalidations, p.Writebacks)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	missRates := make([]float64, len(s.Proc))
	for i, p := range s.Proc {
		missRates[i] = p.MissRate()
	}
	mean := stat.Mean(missRates, nil)
	stddev := stat.StdDev(missRates, nil)
	fmt.Fprintf(w, "\nmiss rate across processors: mean=%.4f stddev=%.4f\n", mean, stddev)
	fmt.Fprintf(w, "bus traffic: %d bytes, %d invalidations, %d updates\n",
		s.Bus.TrafficBytes, s.Bus.Invalidations, s.Bus.Updates)

	if detailed {
		writeDetailed(w, s)
	}
	return nil
}

func writeDetailed(w io.Writer, s *sim.Statistics) {
	fmt.Fprintln(w, "\nbus traffic by signal:")
	for _, kind := range []sim.BusSignalKind{sim.BusRd, sim.BusRdX, sim.BusUpd, sim.Flush} {
		fmt.Fprintf(w, "  %-7s count=%-6d bytes=%d\n", kind, s.Bus.CountBySignal[kind], s.Bus.BytesBySignal[kind])
	}
}
