/*
Copyright 2025 The RAMSTK Allocator Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command allocate runs reliability allocation plans.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/ramstk/reliability-allocator/api/v1alpha1"
	"github.com/ramstk/reliability-allocator/internal/config"
	"github.com/ramstk/reliability-allocator/internal/logging"
	"github.com/ramstk/reliability-allocator/internal/metrics"
	"github.com/ramstk/reliability-allocator/internal/plan"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configFile string
	planFile   string
	outputFile string
	metricsOut string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "allocate",
		Short:         "Apportion reliability goals over a hardware hierarchy",
		Long:          `Reads an AllocationPlan document, builds its hardware hierarchy and runs its allocation requests, writing the plan back with a filled status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "configuration file (YAML)")
	config.BindFlags(root.PersistentFlags())

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the allocation requests of a plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd, opts)
		},
	}
	runCmd.Flags().StringVarP(&opts.planFile, "plan", "f", "", "allocation plan file (YAML or JSON)")
	runCmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "write the plan with its status here instead of stdout")
	runCmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "write allocation metrics in the Prometheus text format to this file")
	_ = runCmd.MarkFlagRequired("plan")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a plan decodes and its hierarchy builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := readPlan(opts.planFile)
			if err != nil {
				return err
			}
			m, err := plan.Build(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "plan %q is valid: %d hardware items, %d allocation requests\n",
				p.Name, m.Len(), len(p.Spec.Allocations))
			return err
		},
	}
	validateCmd.Flags().StringVarP(&opts.planFile, "plan", "f", "", "allocation plan file (YAML or JSON)")
	_ = validateCmd.MarkFlagRequired("plan")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	root.AddCommand(runCmd, validateCmd, configCmd)
	return root
}

func runPlan(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Development)

	reg := prometheus.NewRegistry()
	recorder, err := metrics.New(reg)
	if err != nil {
		return err
	}
	allocCfg, err := cfg.AllocatorConfig(logger, recorder)
	if err != nil {
		return err
	}

	p, err := readPlan(opts.planFile)
	if err != nil {
		logger.Error(err, "Failed to read allocation plan", "file", opts.planFile)
		return err
	}
	runner, err := plan.NewRunner(allocCfg)
	if err != nil {
		return err
	}
	runErr := runner.Run(p)
	if runErr != nil {
		logger.Error(runErr, "Allocation plan failed", "plan", p.Name)
	}

	// The plan is written even when a request failed so the status can be inspected.
	if err := writePlan(cmd.OutOrStdout(), opts.outputFile, p); err != nil {
		return err
	}
	if opts.metricsOut != "" {
		if err := writeMetrics(reg, opts.metricsOut); err != nil {
			return err
		}
	}
	return runErr
}

func readPlan(path string) (*v1alpha1.AllocationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}
	return plan.Decode(data)
}

func writePlan(stdout io.Writer, path string, p *v1alpha1.AllocationPlan) error {
	data, err := plan.Encode(p)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeMetrics(g prometheus.Gatherer, path string) (err error) {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

