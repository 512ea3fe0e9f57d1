package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

// DisplayResult formats and displays one analysis
func DisplayResult(w io.Writer, r domain.Result, format string) error {
	switch format {
	case "json":
		return displayJSON(w, r)
	case "yaml":
		return displayYAML(w, r)
	case "human", "":
		displayHuman(w, r)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (human, json, yaml)", format)
	}
}

func displayJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// displayYAML goes through JSON first so keys keep their wire names.
func displayYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	output, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(output))
	return err
}

func displayHuman(w io.Writer, r domain.Result) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(w)
	if r.Degraded() {
		red.Fprintf(w, "✗ %s\n", r.Error)
		fmt.Fprintf(w, "   %s\n", r.Summary)
		return
	}

	bold.Fprintf(w, "%s\n", r.ProductName)
	verdictColor(r.Verdict).Fprintf(w, "Verdict: %s", strings.ToUpper(string(r.Verdict)))
	fmt.Fprintf(w, "   Health score: %s\n", scoreColor(r.HealthScore).Sprintf("%d/100", r.HealthScore))
	fmt.Fprintf(w, "%s\n\n", wrapText(r.Summary, 80, "   "))

	if len(r.AllergyAlerts) > 0 {
		red.Fprintln(w, "⚠ ALLERGY ALERT:")
		fmt.Fprintf(w, "   %s\n\n", strings.Join(r.AllergyAlerts, ", "))
	}

	c := r.Composition
	cyan.Fprintln(w, "Composition:")
	fmt.Fprintf(w, "   %s  %s  %s\n\n",
		color.GreenString("safe %d%%", c.Safe),
		color.YellowString("questionable %d%%", c.Questionable),
		color.RedString("harmful %d%%", c.Harmful),
	)

	n := r.Nutrition
	cyan.Fprintln(w, "Nutrition (per serving):")
	fmt.Fprintf(w, "   %.0f kcal · protein %.1fg · carbs %.1fg · fats %.1fg · sugar %.1fg\n\n",
		n.Calories, n.Protein, n.Carbs, n.Fats, n.Sugar)

	if len(r.Ingredients) > 0 {
		yellow.Fprintln(w, "Ingredients:")
		for i, ing := range r.Ingredients {
			fmt.Fprintf(w, "   %d. %s %s\n", i+1, riskIcon(ing.Risk), ing.Name)
			if ing.Impact != "" {
				fmt.Fprintf(w, "      %s\n", ing.Impact)
			}
			if len(ing.Tags) > 0 {
				fmt.Fprintf(w, "      Tags: %s\n", color.HiBlackString(strings.Join(ing.Tags, ", ")))
			}
			if ing.Alternative != nil {
				fmt.Fprintf(w, "      Swap: %s\n", color.GreenString(*ing.Alternative))
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "%s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

// DisplayAllergies prints the option list one per line.
func DisplayAllergies(w io.Writer, options []string, format string) error {
	switch format {
	case "json":
		return displayJSON(w, options)
	case "yaml":
		return displayYAML(w, options)
	}
	for _, o := range options {
		fmt.Fprintf(w, "• %s\n", o)
	}
	return nil
}

func verdictColor(v domain.Verdict) *color.Color {
	switch v {
	case domain.VerdictSafe:
		return color.New(color.FgGreen, color.Bold)
	case domain.VerdictAvoid:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 70:
		return color.New(color.FgGreen)
	case score >= 40:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func riskIcon(r domain.Risk) string {
	switch r {
	case domain.RiskHigh:
		return "🔴"
	case domain.RiskMedium:
		return "🟡"
	case domain.RiskLow:
		return "🟢"
	default:
		return "⚪"
	}
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			} else if currentLine == indent {
				currentLine += word
			} else {
				currentLine += " " + word
			}
		}
		if currentLine != indent {
			result.WriteString(currentLine + "\n")
		}
	}
	return strings.TrimSuffix(result.String(), "\n")
}
