package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/pipewright/cmd/internal/clierr"
	"github.com/bartekus/pipewright/internal/check"
)

func init() {
	color.NoColor = true
}

func TestChecks_DefaultSuitePasses(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "[       OK ] HelloTest.BasicAssertions")
	assert.Contains(t, out.String(), "[  PASSED  ] 1 test case(s).")
}

func TestChecks_FailureExitCode(t *testing.T) {
	cmd := newRootCmd(func() *check.Suite {
		s := &check.Suite{}
		s.Register("Broken", check.Equal(1, 2), check.NotEqual(4, 5))
		return s
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, clierr.ExitCodeOf(err))
	assert.EqualError(t, err, "1 of 1 test case(s) failed")
	assert.Contains(t, out.String(), "[   FAIL   ] EXPECT_EQ(1, 2)")
	assert.Contains(t, out.String(), "[   PASS   ] EXPECT_NE(4, 5)")
}

func TestChecks_JSON(t *testing.T) {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--json"})

	require.NoError(t, cmd.Execute())

	var report check.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Cases, 1)
	assert.Equal(t, "HelloTest.BasicAssertions", report.Cases[0].Name)
	assert.Len(t, report.Cases[0].Assertions, 2)
	assert.True(t, report.Passed())
	assert.Contains(t, errOut.String(), "[ RUN      ] HelloTest.BasicAssertions")
}
