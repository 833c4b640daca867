// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"wheelwright": func() { os.Exit(Run()) },
	})
}

// TestCLI runs the testscript scenarios in testdata against the CLI,
// executed in-process.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("SOURCE_DATE_EPOCH", "1580601600")
			env.Setenv("NO_COLOR", "1")
			return nil
		},
	})
}
