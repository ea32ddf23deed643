package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/coherence-sim/coherence-sim/sim"
	"github.com/coherence-sim/coherence-sim/sim/report"
)

// scenarioRun is one entry of a --scenario batch file: a protocol, geometry
// and trace prefix, with defaults for any field left unset mirroring the
// run subcommand's own flag defaults.
type scenarioRun struct {
	Name                         string `yaml:"name"`
	Protocol                     string `yaml:"protocol"`
	Trace                        string `yaml:"trace"`
	CacheSize                    int    `yaml:"cache_size"`
	Associativity                int    `yaml:"associativity"`
	BlockSize                    int    `yaml:"block_size"`
	ChargeExclusiveToSharedFlush bool   `yaml:"charge_exclusive_flush"`
	Detailed                     bool   `yaml:"detailed"`
}

type scenarioFileSpec struct {
	Runs []scenarioRun `yaml:"runs"`
}

func (r scenarioRun) withDefaults() scenarioRun {
	if r.Protocol == "" {
		r.Protocol = "MESI"
	}
	if r.CacheSize == 0 {
		r.CacheSize = 4096
	}
	if r.Associativity == 0 {
		r.Associativity = 2
	}
	if r.BlockSize == 0 {
		r.BlockSize = 32
	}
	return r
}

// runScenarioFile decodes a YAML batch file and drives the engine once per
// entry, printing one labeled report per run — the declarative counterpart
// to the run subcommand's single-run flags.
func runScenarioFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading scenario file %s: %w", path, err)
	}

	var doc scenarioFileSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing scenario file %s: %w", path, err)
	}
	if len(doc.Runs) == 0 {
		return fmt.Errorf("scenario file %s defines no runs", path)
	}

	for i, run := range doc.Runs {
		run = run.withDefaults()
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run-%d", i)
		}
		logrus.Infof("scenario: starting %s (protocol=%s trace=%s)", name, run.Protocol, run.Trace)

		protocol, err := sim.ParseProtocol(run.Protocol)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
		cfg := sim.Config{
			Protocol:                     protocol,
			CacheSize:                    run.CacheSize,
			Associativity:                run.Associativity,
			BlockSize:                    run.BlockSize,
			ChargeExclusiveToSharedFlush: run.ChargeExclusiveToSharedFlush,
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}

		sources, err := loadTraceSources(run.Trace)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}

		sm := sim.NewSimulator(cfg, sources)
		stats, cycles := sm.Run()

		fmt.Fprintf(os.Stdout, "=== %s ===\n", name)
		if err := report.Write(os.Stdout, cfg.Protocol, cycles, stats, run.Detailed); err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}
