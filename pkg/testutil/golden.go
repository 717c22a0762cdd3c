// Package testutil contains helpers for golden-file based tests.
package testutil

import (
	"encoding/json"
	"flag"
	"os"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

var updateGolden = flag.Bool("update-golden", false,
	"update golden files instead of comparing them")

// AssertGolden tests whether the content of filename matches data. On
// mismatch the test fails with a unified diff. Running the tests with
// `-update-golden` rewrites the file so the change can be reviewed via VCS
// diff.
func AssertGolden(t *testing.T, filename string, data []byte) {
	t.Helper()

	if *updateGolden {
		err := os.WriteFile(filename, data, 0o644)
		if err != nil {
			t.Error(err)
			return
		}
	}

	golden, err := os.ReadFile(filename)
	if err != nil {
		t.Error(err)
		return
	}

	if string(golden) == string(data) {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(golden)),
		B:        difflib.SplitLines(string(data)),
		FromFile: filename,
		ToFile:   "generated",
		Context:  3,
	})
	if err != nil {
		t.Error(err)
		return
	}

	t.Errorf("generated data does not match golden file %s; "+
		"update with `-update-golden`:\n%s", filename, diff)
}

// AssertGoldenYAML works like AssertGolden, but encodes data as YAML first.
func AssertGoldenYAML(t *testing.T, filename string, data any) {
	t.Helper()

	generated, err := yaml.Marshal(data)
	if err != nil {
		t.Error(err)
		return
	}

	AssertGolden(t, filename, generated)
}

// AssertGoldenJSON works like AssertGolden, but encodes data as indented
// JSON first.
func AssertGoldenJSON(t *testing.T, filename string, data any) {
	t.Helper()

	generated, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		t.Error(err)
		return
	}

	generated = append(generated, '\n')

	AssertGolden(t, filename, generated)
}
