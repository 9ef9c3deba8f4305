package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/panelmix/panelmix/panel"
	"github.com/panelmix/panelmix/panel/compose"
	"github.com/panelmix/panelmix/panel/manifest"
	"github.com/panelmix/panelmix/panel/trace"
)

// composeOptions are the inputs of one compose invocation.
type composeOptions struct {
	manifestPath   string // composition manifest YAML
	policyPath     string // optional policy YAML overlaid on the defaults
	output         string // "text" or "json"
	spikeInDir     string // where new spike-in designs are written; empty = not written
	traceLevel     string // decision trace verbosity
	summarizeTrace bool   // print a trace summary with the report
}

var composeOpts composeOptions

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a target panel and compute its raw material volumes",
	Long: "Load a composition manifest, reuse compatible inventoried designs, pack the remaining primer pairs " +
		"into new spike-ins and print the GSP1/GSP2 raw material volumes.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCompose(os.Stdout, composeOpts); err != nil {
			logrus.Fatalf("Compose failed: %v", err)
		}
	},
}

func loadPolicy(path string) (*panel.Policy, error) {
	if path == "" {
		return panel.DefaultPolicy(), nil
	}
	return panel.LoadPolicy(path)
}

func runCompose(w io.Writer, opts composeOptions) error {
	if !trace.IsValidTraceLevel(opts.traceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, decisions", opts.traceLevel)
	}
	if opts.output != outputText && opts.output != outputJSON {
		return fmt.Errorf("unknown output format %q; valid: %s, %s", opts.output, outputText, outputJSON)
	}
	policy, err := loadPolicy(opts.policyPath)
	if err != nil {
		return err
	}
	m, err := manifest.Load(opts.manifestPath)
	if err != nil {
		return err
	}

	req := m.Request(policy)
	level := trace.TraceLevel(opts.traceLevel)
	if level == "" {
		level = trace.TraceLevelNone
	}
	if level != trace.TraceLevelNone || opts.summarizeTrace {
		if level == trace.TraceLevelNone {
			logrus.Warnf("--summarize-trace has no effect without --trace-level decisions")
		}
		req.Trace = trace.NewCompositionTrace(level)
	}

	res, err := compose.Compose(req)
	if err != nil {
		return err
	}

	var written []string
	if opts.spikeInDir != "" {
		for _, d := range res.NewSpikeIns {
			// <target>_<id>.yaml keeps library files of the same id intact
			path := filepath.Join(opts.spikeInDir, m.Target.ID+"_"+d.ID+".yaml")
			if err := manifest.WriteDesign(path, d); err != nil {
				return err
			}
			written = append(written, path)
		}
		logrus.Infof("Wrote %d spike-in designs to %s", len(written), opts.spikeInDir)
	}

	report := newReport(m, res, policy.Precision, written)
	if opts.summarizeTrace {
		report.Trace = trace.Summarize(req.Trace)
	}
	if opts.output == outputJSON {
		return writeJSON(w, report)
	}
	return writeText(w, report)
}

func init() {
	composeCmd.Flags().StringVar(&composeOpts.manifestPath, "manifest", "", "Path to the composition manifest YAML")
	composeCmd.Flags().StringVar(&composeOpts.policyPath, "policy", "", "Path to a policy YAML overriding the built-in manufacturing constants")
	composeCmd.Flags().StringVar(&composeOpts.output, "output", outputText, "Report format (text, json)")
	composeCmd.Flags().StringVar(&composeOpts.spikeInDir, "spike-in-dir", "", "Directory to write new spike-in designs to")
	composeCmd.Flags().StringVar(&composeOpts.traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	composeCmd.Flags().BoolVar(&composeOpts.summarizeTrace, "summarize-trace", false, "Include a decision trace summary in the report")
	_ = composeCmd.MarkFlagRequired("manifest")

	rootCmd.AddCommand(composeCmd)
}
