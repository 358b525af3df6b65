package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
Summary
Backend engineer building distributed systems.
Skills
Python, Docker, Kubernetes, AWS, Postgres, Redis
Experience
Increased API throughput by 40% using Python and Redis on AWS.
Reduced deployment time by 35% with Docker and Kubernetes.
Education
BSc Computer Science`

// runCLI executes the root command in-process with clean flags and no
// external backends configured
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"ANALYZER_DATABASE_URL", "ANALYZER_REDIS_ADDR", "ANALYZER_MONGO_URI", "ANALYZER_DEV_MODE", "ANALYZER_RULES_PATH"} {
		t.Setenv(key, "")
	}

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
