package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueError(t *testing.T) {
	is := Errorf(StageClassify, 12, "malformed number").
		WithField("baseline", "12,3,4").
		WithRaw([]string{"", "3", "28.01.01"})

	assert.Equal(t, "[ERROR] classify, row 12, field 'baseline': malformed number (value: '12,3,4')", is.Error())
	assert.Equal(t,
		`[ERROR] classify, row 12, field 'baseline': malformed number (value: '12,3,4') raw=["", "3", "28.01.01"]`,
		is.String())
}

func TestIssueWithoutRow(t *testing.T) {
	is := Warnf(StageSummary, 0, "unrecognized extras key")
	assert.Equal(t, "[WARNING] summary: unrecognized extras key", is.Error())
	assert.Equal(t, is.Error(), is.String())
}

func TestWithRawCopies(t *testing.T) {
	raw := []string{"a", "b"}
	is := Infof(StageRollup, 1, "x").WithRaw(raw)
	raw[0] = "changed"
	assert.Equal(t, "a", is.Raw[0])
}

func TestResult(t *testing.T) {
	var r Result
	assert.True(t, r.Clean())

	r.Add(
		Errorf(StageClassify, 2, "a"),
		Warnf(StageHierarchy, 3, "b"),
		Infof(StageRollup, 0, "c"),
		Infof(StageRollup, 0, "d"),
	)

	assert.Equal(t, 1, r.ErrorCount)
	assert.Equal(t, 1, r.WarningCount)
	assert.Equal(t, 2, r.InfoCount)
	assert.False(t, r.Clean())
	assert.Len(t, r.ByStage(StageRollup), 2)
	assert.Empty(t, r.ByStage(StageReport))
}

func TestFormatIssues(t *testing.T) {
	assert.Equal(t, "No issues.", FormatIssues(nil))

	out := FormatIssues([]Issue{Warnf(StageReport, 0, "divergent cut percentage")})
	assert.Contains(t, out, "Build completed with 1 issue(s)")
	assert.Contains(t, out, "1. [WARNING] report: divergent cut percentage")
}
