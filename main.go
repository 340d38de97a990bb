package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarimi/mips-emulator/config"
	"github.com/mkarimi/mips-emulator/debugger"
	"github.com/mkarimi/mips-emulator/loader"
	"github.com/mkarimi/mips-emulator/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mips-emu",
		Short:         "Cycle-driven five-stage MIPS pipeline simulator with an MSI write-back data cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newDebugCmd(), newVersionCmd())
	return root
}

// simFlags are the options shared by the run and debug subcommands.
type simFlags struct {
	configPath string
	cacheSize  int
	blockSize  int
	ways       int
	memWords   int
}

func (f *simFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (default: platform config path)")
	cmd.Flags().IntVar(&f.cacheSize, "cache-size", 0, "Cache size in bytes (overrides config)")
	cmd.Flags().IntVar(&f.blockSize, "block-size", 0, "Cache line size in bytes (overrides config)")
	cmd.Flags().IntVar(&f.ways, "ways", 0, "Cache associativity (overrides config)")
	cmd.Flags().IntVar(&f.memWords, "mem-words", 0, "Data/instruction memory size in words (overrides config)")
}

// loadConfig resolves the effective configuration: file values first, then
// flag overrides.
func (f *simFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if f.cacheSize > 0 {
		cfg.Cache.Size = f.cacheSize
	}
	if f.blockSize > 0 {
		cfg.Cache.BlockSize = f.blockSize
	}
	if f.ways > 0 {
		cfg.Cache.Ways = f.ways
	}
	if f.memWords > 0 {
		cfg.Memory.DataWords = f.memWords
		cfg.Memory.InstructionWords = f.memWords
	}
	return cfg, nil
}

func newSimulator(cfg *config.Config, traceFile *os.File) (*vm.Simulator, error) {
	opts := vm.Options{
		MemoryWords: cfg.Memory.DataWords,
		CacheSize:   cfg.Cache.Size,
		BlockSize:   cfg.Cache.BlockSize,
		CacheWays:   cfg.Cache.Ways,
	}
	if cfg.Trace.Enabled {
		if traceFile != nil {
			opts.TraceWriter = traceFile
		} else {
			opts.TraceWriter = os.Stdout
		}
	}
	return vm.New(opts)
}

func newRunCmd() *cobra.Command {
	var flags simFlags
	var noTrace bool
	var traceFile string
	var statsFile string
	var statsFormat string
	var dumpRegs bool

	cmd := &cobra.Command{
		Use:   "run <instruction-file>",
		Short: "Run a binary instruction file through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if noTrace {
				cfg.Trace.Enabled = false
			}
			if statsFormat != "" {
				cfg.Statistics.Format = statsFormat
			}
			if dumpRegs {
				cfg.Display.DumpRegisters = true
			}

			if traceFile == "" {
				traceFile = cfg.Trace.OutputFile
			}
			var tf *os.File
			if traceFile != "" {
				tf, err = os.Create(traceFile)
				if err != nil {
					return fmt.Errorf("cannot create trace file: %w", err)
				}
				defer tf.Close()
			}

			sim, err := newSimulator(cfg, tf)
			if err != nil {
				return err
			}
			if err := loader.LoadProgramIntoSimulator(sim, args[0]); err != nil {
				return err
			}
			if err := sim.Run(); err != nil {
				return err
			}

			if cfg.Statistics.Enabled {
				out := os.Stdout
				if statsFile != "" || cfg.Statistics.OutputFile != "" {
					path := statsFile
					if path == "" {
						path = cfg.Statistics.OutputFile
					}
					f, err := os.Create(path)
					if err != nil {
						return fmt.Errorf("cannot create statistics file: %w", err)
					}
					defer f.Close()
					out = f
				}
				if err := sim.Stats.Write(out, cfg.Statistics.Format); err != nil {
					return err
				}
			}
			if cfg.Display.DumpRegisters {
				fmt.Print(sim.Regs.Dump())
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noTrace, "no-trace", false, "Disable the per-cycle trace")
	cmd.Flags().StringVar(&traceFile, "trace-file", "", "Write the trace to a file instead of stdout")
	cmd.Flags().StringVar(&statsFile, "stats-file", "", "Write statistics to a file instead of stdout")
	cmd.Flags().StringVar(&statsFormat, "stats-format", "", "Statistics format: json, csv or text")
	cmd.Flags().BoolVar(&dumpRegs, "dump-regs", false, "Dump the register file after the run")
	return cmd
}

func newDebugCmd() *cobra.Command {
	var flags simFlags

	cmd := &cobra.Command{
		Use:   "debug <instruction-file>",
		Short: "Run the simulator interactively in the TUI debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			cfg.Trace.Enabled = false // the TUI renders stage state itself
			sim, err := newSimulator(cfg, nil)
			if err != nil {
				return err
			}
			if err := loader.LoadProgramIntoSimulator(sim, args[0]); err != nil {
				return err
			}
			dbg := debugger.New(sim)
			return debugger.NewTUI(dbg).Run()
		},
	}
	flags.register(cmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("MIPS Pipeline Simulator %s\n", Version)
			if Commit != "unknown" {
				fmt.Printf("Commit: %s\n", Commit)
			}
			if Date != "unknown" {
				fmt.Printf("Built: %s\n", Date)
			}
		},
	}
}
