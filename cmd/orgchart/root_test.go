package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

const (
	orgSnapshot    = "testdata/org.yaml"
	cyclicSnapshot = "testdata/cyclic.yaml"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTree_TextFromSnapshot(t *testing.T) {
	out, err := run(t, "tree", "--snapshot", orgSnapshot)
	require.NoError(t, err)
	require.Contains(t, out, "Alice [101]")
	require.Contains(t, out, "\n  Bob [102]")
	require.Contains(t, out, "\n    Carol [103]")
	require.Contains(t, out, "\n    Dan [104]")
}

func TestTree_JSONSubtree(t *testing.T) {
	out, err := run(t, "tree", "--snapshot", orgSnapshot, "--root", "102", "--format", "json")
	require.NoError(t, err)

	var roots []struct {
		ID           int64 `json:"id"`
		Subordinates []struct {
			ID int64 `json:"id"`
		} `json:"subordinates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &roots))
	require.Len(t, roots, 1)
	require.Equal(t, int64(102), roots[0].ID)
	require.Len(t, roots[0].Subordinates, 2)
}

func TestTree_XLSXToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org.xlsx")
	_, err := run(t, "tree", "--snapshot", orgSnapshot, "--format", "xlsx", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestTree_RejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "tree", "--snapshot", orgSnapshot, "--format", "pdf")
	require.Error(t, err)
	require.Equal(t, exitUsage, exitCode(err))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		employee string
		manager  string
		code     int
		reason   string
	}{
		{"descendant", "101", "103", exitRejected, services.ReasonDescendant},
		{"self", "102", "102", exitRejected, services.ReasonSelf},
		{"lateral", "104", "101", exitOK, ""},
		{"to root", "103", "none", exitOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, "validate", "--snapshot", orgSnapshot, "--employee", tc.employee, "--manager", tc.manager)
			require.Equal(t, tc.code, exitCode(err))

			var res services.ManagerValidation
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			require.Equal(t, tc.code == exitOK, res.Valid)
			require.Equal(t, tc.reason, res.Reason)
		})
	}

	_, err := run(t, "validate", "--snapshot", orgSnapshot, "--employee", "101", "--manager", "boss")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestAncestorsAndDescendants(t *testing.T) {
	var res employeeListOutput

	out, err := run(t, "ancestors", "104", "--snapshot", orgSnapshot)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	ids := make([]int64, 0, len(res.Employees))
	for _, e := range res.Employees {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []int64{104, 102, 101}, ids)

	out, err = run(t, "descendants", "101", "--snapshot", orgSnapshot)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Employees, 3)

	_, err = run(t, "ancestors", "999", "--snapshot", orgSnapshot)
	require.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, "descendants", "abc", "--snapshot", orgSnapshot)
	require.Equal(t, exitUsage, exitCode(err))
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", "--snapshot", orgSnapshot)
	require.NoError(t, err)
	var report services.IntegrityReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.True(t, report.Consistent)
	require.Equal(t, 4, report.Employees)
	require.Equal(t, 1, report.Roots)

	out, err = run(t, "check", "--snapshot", cyclicSnapshot)
	require.Equal(t, exitRejected, exitCode(err))
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.False(t, report.Consistent)
	require.NotEmpty(t, report.Kind)
}

func TestSnapshotErrors(t *testing.T) {
	_, err := run(t, "tree", "--snapshot", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Equal(t, exitUsage, exitCode(err))
}

func TestMigrate_RejectsUnknownCommand(t *testing.T) {
	_, err := run(t, "migrate", "sideways")
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
}
