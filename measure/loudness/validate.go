package loudness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-mastering/profile"
)

// Compliance margins around the profile targets.
const (
	loudnessLowMarginLU  = 1.5
	loudnessHighMarginLU = 1.0
	peakMarginDB         = 0.1

	densityMinDB = 0.4
	densityMaxDB = 3.5
)

// IssueCode identifies one class of compliance failure.
type IssueCode string

const (
	IssueBelowLoudnessWindow IssueCode = "below-target-loudness-window"
	IssueAboveLoudnessWindow IssueCode = "above-target-loudness-window"
	IssueExceedsCeiling      IssueCode = "exceeds-compliance-ceiling"
	IssueDensityOutOfRange   IssueCode = "density-out-of-range"
)

// Issue is one itemized compliance failure.
type Issue struct {
	Code    IssueCode
	Message string
}

// Report is the result of validating a rendered master against a profile.
type Report struct {
	OK     bool
	Issues []Issue
}

// Err returns nil for a passing report, or an error joining every issue.
// This is the export-time "ensure compliance" conversion; the live path only
// ever reads the structured report.
func (r Report) Err() error {
	if r.OK {
		return nil
	}
	msgs := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		msgs[i] = issue.Message
	}
	return errors.New("loudness: compliance failed: " + strings.Join(msgs, "; "))
}

// Validate classifies measured metrics against a profile's delivery
// constraints. The loudness window is asymmetric: undershoot up to 1.5 LU is
// tolerated, overshoot only 1 LU.
func Validate(m Metrics, p profile.Profile) Report {
	var issues []Issue

	if m.IntegratedLUFS < p.TargetLUFS-loudnessLowMarginLU {
		issues = append(issues, Issue{
			Code: IssueBelowLoudnessWindow,
			Message: fmt.Sprintf("integrated %.1f LUFS below target window [%.1f, %.1f]",
				m.IntegratedLUFS, p.TargetLUFS-loudnessLowMarginLU, p.TargetLUFS+loudnessHighMarginLU),
		})
	}
	if m.IntegratedLUFS > p.TargetLUFS+loudnessHighMarginLU {
		issues = append(issues, Issue{
			Code: IssueAboveLoudnessWindow,
			Message: fmt.Sprintf("integrated %.1f LUFS above target window [%.1f, %.1f]",
				m.IntegratedLUFS, p.TargetLUFS-loudnessLowMarginLU, p.TargetLUFS+loudnessHighMarginLU),
		})
	}
	if m.TruePeakDB > p.TruePeakCeilingDB+peakMarginDB {
		issues = append(issues, Issue{
			Code: IssueExceedsCeiling,
			Message: fmt.Sprintf("true peak %.2f dBFS exceeds ceiling %.2f dBFS",
				m.TruePeakDB, p.TruePeakCeilingDB),
		})
	}

	density := m.ShortTermLUFS - m.MomentaryLUFS
	if density < densityMinDB || density > densityMaxDB {
		issues = append(issues, Issue{
			Code: IssueDensityOutOfRange,
			Message: fmt.Sprintf("density %.2f dB outside [%.1f, %.1f]",
				density, densityMinDB, densityMaxDB),
		})
	}

	return Report{OK: len(issues) == 0, Issues: issues}
}
