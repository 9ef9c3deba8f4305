package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var policyPath string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective manufacturing policy",
	Long:  "Print the built-in manufacturing constants, overlaid with --policy if given, as policy YAML. Output is written to stdout.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPolicy(os.Stdout, policyPath); err != nil {
			logrus.Fatalf("Policy failed: %v", err)
		}
	},
}

func runPolicy(w io.Writer, path string) error {
	policy, err := loadPolicy(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(policy)
	if err != nil {
		return fmt.Errorf("YAML marshal failed: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func init() {
	policyCmd.Flags().StringVar(&policyPath, "policy", "", "Path to a policy YAML overriding the built-in manufacturing constants")

	rootCmd.AddCommand(policyCmd)
}
