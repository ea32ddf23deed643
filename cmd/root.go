package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coherence-sim/coherence-sim/sim"
	"github.com/coherence-sim/coherence-sim/sim/report"
	"github.com/coherence-sim/coherence-sim/sim/trace"
)

var (
	protocolFlag   string
	tracePrefix    string
	cacheSize      int
	associativity  int
	blockSize      int
	logLevel       string
	chargeExclFlag bool
	detailed       bool
	verifyDeterm   bool
	scenarioFile   string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "coherence-sim",
	Short: "Cycle-accurate snooping cache-coherence simulator",
}

// runCmd executes one simulation from flags, or, with positional arguments,
// from a protocol/prefix/cache-size/associativity/block-size order accepted
// as an alternative to flags.
var runCmd = &cobra.Command{
	Use:   "run [protocol] [trace-prefix] [cache-size] [associativity] [block-size]",
	Short: "Run a simulation and print the report",
	Args:  cobra.MaximumNArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		applyPositionalArgs(args)

		if scenarioFile != "" {
			if err := runScenarioFile(scenarioFile); err != nil {
				logrus.Fatalf("scenario run failed: %v", err)
			}
			return
		}

		if err := runOnce(os.Stdout); err != nil {
			exitForError(err)
		}
	},
}

// applyPositionalArgs overlays any positional form onto the already-parsed
// flag values — either form is acceptable, and whichever supplies a value
// wins, with positional arguments taking precedence
// since they are the more specific, later-evaluated form.
func applyPositionalArgs(args []string) {
	fields := []*string{&protocolFlag, &tracePrefix}
	for i, a := range args {
		if i < len(fields) {
			*fields[i] = a
			continue
		}
		var target *int
		switch i {
		case 2:
			target = &cacheSize
		case 3:
			target = &associativity
		case 4:
			target = &blockSize
		}
		if target != nil {
			n, err := fmt.Sscanf(a, "%d", target)
			if err != nil || n != 1 {
				logrus.Fatalf("invalid numeric argument %q", a)
			}
		}
	}
}

// runOnce builds a Simulator from the current flag values, runs it, and
// writes the report to w. With --verify-determinism it runs a second,
// independent Simulator over freshly-loaded trace readers and requires the
// two reports to be byte-identical, operationalizing determinism as a
// CLI-level check rather than only a test.
func runOnce(w *os.File) error {
	cfg, traceFiles, err := buildConfig()
	if err != nil {
		return err
	}

	sources, err := loadTraceSources(traceFiles)
	if err != nil {
		return err
	}

	sm := sim.NewSimulator(cfg, sources)
	stats, cycles := sm.Run()

	if verifyDeterm {
		buf1, err := renderReport(cfg, cycles, stats)
		if err != nil {
			return err
		}

		sources2, err := loadTraceSources(traceFiles)
		if err != nil {
			return err
		}
		sm2 := sim.NewSimulator(cfg, sources2)
		stats2, cycles2 := sm2.Run()
		buf2, err := renderReport(cfg, cycles2, stats2)
		if err != nil {
			return err
		}
		if string(buf1) != string(buf2) {
			return &sim.InvariantViolation{Ident: "determinism-check-failed", Detail: "two runs over identical inputs produced different reports"}
		}
		logrus.Info("determinism check passed: two runs produced byte-identical reports")
	}

	return report.Write(w, cfg.Protocol, cycles, stats, detailed)
}

func loadTraceSources(prefix string) ([]sim.TraceSource, error) {
	readers, err := loadTraces(prefix)
	if err != nil {
		return nil, err
	}
	sources := make([]sim.TraceSource, len(readers))
	for i, r := range readers {
		sources[i] = r
	}
	return sources, nil
}

func renderReport(cfg sim.Config, cycles uint64, stats *sim.Statistics) ([]byte, error) {
	var sb fmtBuffer
	if err := report.Write(&sb, cfg.Protocol, cycles, stats, detailed); err != nil {
		return nil, err
	}
	return sb.buf, nil
}

// fmtBuffer is a minimal io.Writer sink, avoiding a bytes.Buffer import just
// to capture report output for the determinism comparison.
type fmtBuffer struct{ buf []byte }

func (b *fmtBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func buildConfig() (sim.Config, string, error) {
	protocol, err := sim.ParseProtocol(protocolFlag)
	if err != nil {
		return sim.Config{}, "", err
	}
	cfg := sim.Config{
		Protocol:                     protocol,
		CacheSize:                    cacheSize,
		Associativity:                associativity,
		BlockSize:                    blockSize,
		ChargeExclusiveToSharedFlush: chargeExclFlag,
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, "", err
	}
	return cfg, tracePrefix, nil
}

// loadTraces resolves a trace prefix into one Reader per processor: if the
// prefix names a directory, every regular file inside it (sorted
// lexically) is one processor's trace; otherwise every file matching
// prefix+"*" is, in the same order — either way, file order fixes processor
// id, so the lower-id-first bus fairness tie-break is reproducible from the
// filesystem alone.
func loadTraces(prefix string) ([]*trace.Reader, error) {
	files, err := resolveTraceFiles(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no trace files found for prefix %q", prefix)
	}
	readers := make([]*trace.Reader, len(files))
	for i, f := range files {
		r, err := trace.Load(f)
		if err != nil {
			return nil, err
		}
		readers[i] = r
	}
	return readers, nil
}

func resolveTraceFiles(prefix string) ([]string, error) {
	if info, err := os.Stat(prefix); err == nil && info.IsDir() {
		entries, err := os.ReadDir(prefix)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(prefix, e.Name()))
			}
		}
		sort.Strings(files)
		return files, nil
	}
	matches, err := filepath.Glob(prefix + "*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// exitForError maps the error taxonomy onto distinct process exit codes:
// configuration and trace errors are user errors (exit 1), invariant
// violations are engine bugs (exit 2).
func exitForError(err error) {
	switch err.(type) {
	case *sim.InvariantViolation:
		logrus.Error(err)
		os.Exit(2)
	default:
		logrus.Error(err)
		os.Exit(1)
	}
}

// Execute runs the CLI root command.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(*sim.InvariantViolation); ok {
				logrus.Errorf("%v", iv)
				os.Exit(2)
			}
			panic(r)
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&protocolFlag, "protocol", "MESI", "Coherence protocol: MESI or Dragon")
	runCmd.Flags().StringVar(&tracePrefix, "trace", "", "Trace input: a directory, or a filename-stem prefix, of per-processor trace files")
	runCmd.Flags().IntVar(&cacheSize, "cache-size", 4096, "Cache size in bytes (power of two)")
	runCmd.Flags().IntVar(&associativity, "associativity", 2, "Associativity, in ways (power of two)")
	runCmd.Flags().IntVar(&blockSize, "block-size", 32, "Block size in bytes (power of two)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().BoolVar(&chargeExclFlag, "charge-exclusive-flush", false, "Charge a flush when MESI's Exclusive state snoops a BusRd (Open Question default: off)")
	runCmd.Flags().BoolVar(&detailed, "detailed", false, "Include the per-signal-kind bus traffic breakdown in the report")
	runCmd.Flags().BoolVar(&verifyDeterm, "verify-determinism", false, "Run the simulation twice and require byte-identical reports")
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "Path to a YAML file describing a batch of runs (see cmd/scenario.go)")

	rootCmd.AddCommand(runCmd)
}
