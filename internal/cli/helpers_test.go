package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/temporal-htn/internal/chronicle"
	"github.com/valter-silva-au/temporal-htn/internal/core"
)

const (
	moveFile     = "../problemfile/testdata/move.yaml"
	deliveryFile = "../problemfile/testdata/delivery.yaml"
)

// withPipeline installs a conversion pipeline writing to a temp directory
// for the duration of the test and returns that directory.
func withPipeline(t *testing.T, s chronicle.Solver) string {
	t.Helper()
	orig := Pipeline
	t.Cleanup(func() { Pipeline = orig })

	out := t.TempDir()
	Pipeline = core.NewConversionService(core.PipelineOptions{OutputDir: out}, s, nil)
	return out
}

// captureOutput points cmd's output at a buffer for the duration of the test.
func captureOutput(t *testing.T, cmd *cobra.Command) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	return &buf
}
