// mastergate renders a synthetic test program through the mastering chain
// for a chosen profile, then prints the measured loudness, the resolved
// stage bindings, and a compliance checklist. It exits non-zero when the
// rendered master fails its profile's delivery checks, so it can gate an
// export step in scripts.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/chain"
	"github.com/cwbudde/algo-mastering/dsp/stage"
	"github.com/cwbudde/algo-mastering/measure/loudness"
	"github.com/cwbudde/algo-mastering/profile"
)

const blockSize = 128

var (
	accentColor = lipgloss.Color("#5FD75F")
	failColor   = lipgloss.Color("#D75F5F")
	mutedColor  = lipgloss.Color("#888888")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)
	keyStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	valueStyle = lipgloss.NewStyle().Bold(true)
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(failColor)
)

type cli struct {
	Profile    string   `short:"p" default:"streaming" help:"Mastering profile key."`
	Duration   float64  `short:"d" default:"8" help:"Test program length in seconds."`
	SampleRate float64  `default:"48000" help:"Render sample rate in Hz."`
	Trim       float64  `default:"0" help:"Master trim in dB."`
	Ceiling    *float64 `help:"Override the profile's true-peak ceiling in dBFS."`
	Fallback   bool     `help:"Force node-graph stage bindings."`
	List       bool     `short:"l" help:"List available profiles and exit."`
}

func main() {
	args := &cli{}
	kong.Parse(args,
		kong.Name("mastergate"),
		kong.Description("Render a test program through the mastering chain and check compliance."),
		kong.UsageOnError(),
	)

	if args.List {
		listProfiles()

		return
	}

	if err := run(args); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("mastergate:"), err)
		os.Exit(1)
	}
}

func listProfiles() {
	fmt.Println(titleStyle.Render("Profiles"))

	for _, key := range profile.Keys() {
		p := profile.MustLookup(key)
		fmt.Printf("  %-12s %s\n", valueStyle.Render(string(key)),
			keyStyle.Render(fmt.Sprintf("%.0f LUFS, ceiling %.1f dBTP", p.TargetLUFS, p.TruePeakCeilingDB)))
	}
}

func run(args *cli) error {
	p, err := profile.Lookup(profile.Key(args.Profile))
	if err != nil {
		return err
	}

	if args.Fallback {
		accel.ForceFallback(true)
		defer accel.ForceFallback(false)
	}

	c, err := chain.Build(args.SampleRate, p)
	if err != nil {
		return err
	}
	defer c.Dispose()

	if args.Trim != 0 {
		c.SetMasterTrim(args.Trim)
	}

	ceiling := p.TruePeakCeilingDB
	if args.Ceiling != nil {
		ceiling = *args.Ceiling
		c.SetOutputCeiling(ceiling)
	}

	left, right := renderProgram(c, args.SampleRate, args.Duration)

	m, err := loudness.MeasureBuffer(left, right, args.SampleRate)
	if err != nil {
		return err
	}

	report := loudness.Validate(m, p)

	printHeader(p, args)
	printBindings(c)
	printMetrics(m)
	printChecklist(p, ceiling, report)

	if !report.OK {
		return fmt.Errorf("master failed %d compliance check(s)", len(report.Issues))
	}

	return nil
}

// renderProgram runs a program-like signal through the chain: a chord of
// detuned partials under a slow amplitude envelope, so momentary and
// short-term loudness separate the way real program material does.
func renderProgram(c *chain.MasterChain, sampleRate, seconds float64) (left, right []float64) {
	total := int(seconds * sampleRate)
	left = make([]float64, 0, total)
	right = make([]float64, 0, total)

	blockL := make([]float64, blockSize)
	blockR := make([]float64, blockSize)

	partials := []struct{ freq, amp float64 }{
		{110, 0.30},
		{220, 0.22},
		{554, 0.14},
		{1108, 0.08},
		{3520, 0.04},
	}

	for start := 0; start < total; start += blockSize {
		for i := 0; i < blockSize; i++ {
			tm := float64(start+i) / sampleRate

			// Envelope swells at 0.7Hz over a base level, with a slower
			// phrase shape underneath.
			env := 0.55 + 0.45*math.Abs(math.Sin(2*math.Pi*0.7*tm))
			env *= 0.8 + 0.2*math.Sin(2*math.Pi*0.11*tm)

			var s float64
			for _, pt := range partials {
				s += pt.amp * math.Sin(2*math.Pi*pt.freq*tm)
			}

			blockL[i] = env * s
			blockR[i] = env * s * 0.97
		}

		c.ProcessBlock(blockL, blockR)

		left = append(left, blockL...)
		right = append(right, blockR...)
	}

	return left, right
}

func printHeader(p profile.Profile, args *cli) {
	fmt.Println(titleStyle.Render("mastergate"))
	printKV("Profile", fmt.Sprintf("%s (%s)", p.Name, p.Key))
	printKV("Target", fmt.Sprintf("%.1f LUFS", p.TargetLUFS))
	printKV("Ceiling", fmt.Sprintf("%.1f dBTP", p.TruePeakCeilingDB))
	printKV("Program", fmt.Sprintf("%.1fs at %.0f Hz", args.Duration, args.SampleRate))
	fmt.Println()
}

func printBindings(c *chain.MasterChain) {
	fmt.Println(valueStyle.Render("Stage bindings"))

	for _, b := range c.Bindings() {
		marker := keyStyle.Render("node-graph")
		if b.Binding == stage.BindingAccelerated {
			marker = passStyle.Render("accelerated")
		}

		fmt.Printf("  %-18s %s\n", b.Name, marker)
	}

	fmt.Println()
}

func printMetrics(m loudness.Metrics) {
	fmt.Println(valueStyle.Render("Measured"))
	printKV("Momentary", formatLUFS(m.MomentaryLUFS))
	printKV("Short-term", formatLUFS(m.ShortTermLUFS))
	printKV("Integrated", formatLUFS(m.IntegratedLUFS))
	printKV("True peak", fmt.Sprintf("%.2f dBTP", m.TruePeakDB))
	fmt.Println()
}

func printChecklist(p profile.Profile, ceiling float64, report loudness.Report) {
	fmt.Println(valueStyle.Render("Compliance"))

	failed := make(map[loudness.IssueCode]string, len(report.Issues))
	for _, issue := range report.Issues {
		failed[issue.Code] = issue.Message
	}

	printCheck("Loudness window", fmt.Sprintf("[%.1f, %.1f] LUFS", p.TargetLUFS-1.5, p.TargetLUFS+1),
		failed[loudness.IssueBelowLoudnessWindow]+failed[loudness.IssueAboveLoudnessWindow])
	printCheck("True-peak ceiling", fmt.Sprintf("%.1f dBTP", ceiling),
		failed[loudness.IssueExceedsCeiling])
	printCheck("Density", "[0.4, 3.5] dB", failed[loudness.IssueDensityOutOfRange])

	fmt.Println()

	if report.OK {
		fmt.Println(passStyle.Render("PASS"), keyStyle.Render("master is deliverable"))
	} else {
		fmt.Println(failStyle.Render("FAIL"), keyStyle.Render("see failed checks above"))
	}
}

func printCheck(name, bound, failure string) {
	if failure == "" {
		fmt.Printf("  %s %-18s %s\n", passStyle.Render("✓"), name, keyStyle.Render(bound))

		return
	}

	fmt.Printf("  %s %-18s %s\n", failStyle.Render("✗"), name, failStyle.Render(failure))
}

func printKV(key, value string) {
	fmt.Printf("  %s %s\n", keyStyle.Render(fmt.Sprintf("%-11s", key+":")), valueStyle.Render(value))
}

func formatLUFS(v float64) string {
	if math.IsInf(v, -1) {
		return "-inf LUFS"
	}

	return fmt.Sprintf("%.2f LUFS", v)
}
