// Lutra is the driver for the RAM mid-end: it reads a JSON-serialized
// RAM program, runs the optimization pipeline over it, and writes the
// result in canonical text or JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lutradb/lutra/compiler/optimizer"
	"github.com/lutradb/lutra/compiler/ram"
	"github.com/lutradb/lutra/compiler/ramfmt"
)

var (
	flagJSON   bool
	flagDebug  bool
	flagSkip   []string
	flagConfig string
)

type config struct {
	Debug bool     `yaml:"debug"`
	Skip  []string `yaml:"skip"`
}

func main() {
	root := &cobra.Command{
		Use:           "lutra",
		Short:         "RAM program optimizer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opt := &cobra.Command{
		Use:   "opt [file]",
		Short: "optimize a RAM program",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOpt,
	}
	opt.Flags().BoolVarP(&flagJSON, "json", "J", false, "write JSON instead of canonical text")
	opt.Flags().BoolVar(&flagDebug, "debug", false, "log before/after snapshots of each pass")
	opt.Flags().StringSliceVar(&flagSkip, "skip", nil, "passes to skip by name")
	opt.Flags().StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	fmtCmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "print a RAM program in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFmt,
	}
	root.AddCommand(opt, fmtCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lutra: %s\n", err)
		os.Exit(1)
	}
}

func loadProgram(args []string) (*ram.Program, error) {
	var r io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ram.UnmarshalProgram(buf)
}

func runOpt(cmd *cobra.Command, args []string) error {
	if flagConfig != "" {
		buf, err := os.ReadFile(flagConfig)
		if err != nil {
			return err
		}
		var c config
		if err := yaml.Unmarshal(buf, &c); err != nil {
			return err
		}
		flagDebug = flagDebug || c.Debug
		flagSkip = append(flagSkip, c.Skip...)
	}
	program, err := loadProgram(args)
	if err != nil {
		return err
	}
	logger := zap.NewNop()
	if flagDebug {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}
	var passes []optimizer.Transformer
	for _, t := range optimizer.NewDefaultPipeline().Transformers() {
		if !slices.Contains(flagSkip, t.Name()) {
			passes = append(passes, t)
		}
	}
	pipeline := optimizer.NewPipeline(passes...)
	if flagDebug {
		pipeline = pipeline.Debug()
	}
	unit := optimizer.NewTranslationUnit(program, nil, nil, logger)
	pipeline.Apply(unit)
	return write(cmd.OutOrStdout(), unit.Program())
}

func runFmt(cmd *cobra.Command, args []string) error {
	program, err := loadProgram(args)
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), program)
}

func write(w io.Writer, program *ram.Program) error {
	if flagJSON {
		buf, err := json.MarshalIndent(program, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", buf)
		return err
	}
	_, err := io.WriteString(w, ramfmt.Program(program))
	return err
}
