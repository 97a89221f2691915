package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/sourcedeps/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLink    = lipgloss.NewStyle().Foreground(colorBlue)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "    "+styleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "    "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+styleValue.Render(value))
}

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, styleTitle.Render(title))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// Run Summary
// =============================================================================

// printResult renders a pipeline result: every manifest with its reason and
// record count, every dependency with its outcome, then the tally.
func printResult(w io.Writer, res *pipeline.Result) {
	printKeyValue(w, "root", res.Root)
	printKeyValue(w, "output", res.OutputDir)
	fmt.Fprintln(w)
	if len(res.Manifests) == 0 {
		printWarning(w, "no manifests found under %s", res.Root)
	}
	for _, m := range res.Manifests {
		printManifest(w, m)
	}
	fmt.Fprintln(w)
	printStats(w, res.Stats)
}

func printManifest(w io.Writer, m pipeline.ManifestReport) {
	head := styleValue.Render(m.Path) + " " + styleDim.Render("("+string(m.Reason)+")")
	if m.Err != nil {
		printInfo(w, "%s", head)
		printDetail(w, "%s", m.Err)
		return
	}
	printInfo(w, "%s %s", head, styleDim.Render(fmt.Sprintf("%d records via %s", len(m.Dependencies), m.Strategy)))
	for _, d := range m.Dependencies {
		printDependency(w, d)
	}
}

func printDependency(w io.Writer, d pipeline.DependencyReport) {
	name := d.Name + "@" + d.Version
	switch {
	case d.Status == pipeline.StatusPlanned:
		fmt.Fprintln(w, "  "+styleIconInfo.Render(iconInfo)+" "+name+" "+styleDim.Render(string(d.Status)))
	case d.OK():
		fmt.Fprintln(w, "  "+styleIconSuccess.Render(iconSuccess)+" "+name+" "+styleDim.Render(string(d.Status)))
		if d.Status == pipeline.StatusDownloaded && len(d.Attempts) > 0 {
			printDetail(w, "from %s", styleLink.Render(d.Attempts[len(d.Attempts)-1].URL))
		}
		if d.Path != "" {
			printFile(w, d.Path)
		}
	default:
		fmt.Fprintln(w, "  "+styleIconError.Render(iconError)+" "+name+" "+styleDim.Render(fmt.Sprintf("%s after %d attempts", d.Status, len(d.Attempts))))
		if d.Err != nil {
			printDetail(w, "%s", d.Err)
		}
	}
}

// printStats prints run counters on a single line.
func printStats(w io.Writer, s pipeline.Stats) {
	parts := []string{
		count(s.Candidates, "candidate"),
		count(s.Manifests, "manifest"),
		count(s.Dependencies, "dependency"),
		styleIconSuccess.Render(fmt.Sprintf("%d ok", s.Downloaded)),
	}
	if s.Failed > 0 {
		parts = append(parts, styleIconError.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	parts = append(parts, (s.ScanTime + s.ResolveTime).Round(time.Millisecond).String())
	fmt.Fprintln(w, "  "+strings.Join(parts, styleDim.Render(" · ")))
}

func count(n int, noun string) string {
	if n != 1 {
		if strings.HasSuffix(noun, "y") {
			noun = strings.TrimSuffix(noun, "y") + "ie"
		}
		noun += "s"
	}
	return styleNumber.Render(fmt.Sprint(n)) + " " + noun
}
