package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fundmatch/lendmatch/internal/model"
)

// RenderMatchResults writes a styled per-lender breakdown of an
// application's match results.
func RenderMatchResults(w io.Writer, app *model.LoanApplication, results []model.MatchResult) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Match results for %s", app.ApplicantName)))
	fmt.Fprintln(w, SubtleStyle.Render(fmt.Sprintf("application %s, batch %s", app.ID, app.Status)))
	fmt.Fprintln(w)

	if len(results) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("no lender verdicts recorded yet"))
		return
	}

	for _, result := range results {
		header := fmt.Sprintf("%s / %s (policy v%d)", result.LenderName, result.PolicyName, result.PolicyVersion)
		switch result.Outcome {
		case model.OutcomeApproved:
			score := ""
			if result.FitScore != nil {
				score = fmt.Sprintf("  fit %d/100", *result.FitScore)
			}
			fmt.Fprintln(w, SuccessStyle.Render("✓ approved")+score+"  "+BoldStyle.Render(header))
		case model.OutcomeDeclined:
			summary := ""
			if failed := result.FailedEligibility(); len(failed) > 0 {
				summary = SubtleStyle.Render(fmt.Sprintf("  (%d eligibility rules not met)", len(failed)))
			}
			fmt.Fprintln(w, ErrorStyle.Render("✗ declined")+"  "+BoldStyle.Render(header)+summary)
		}

		for _, ev := range result.Evaluations {
			fmt.Fprintln(w, "    "+renderEvaluation(ev))
		}
		fmt.Fprintln(w)
	}
}

func renderEvaluation(ev model.RuleEvaluation) string {
	var marker string
	switch ev.Status {
	case model.EvalPass:
		marker = SuccessStyle.Render("pass")
	case model.EvalFail:
		marker = ErrorStyle.Render("fail")
	case model.EvalIndeterminate:
		marker = WarningStyle.Render("indeterminate")
	}
	return fmt.Sprintf("%-6s %s %s", string(ev.Kind), marker, ev.Explanation)
}

// RenderParameterTable writes the registry catalog as an aligned table.
func RenderParameterTable(w io.Writer, defs []model.ParameterDefinition) {
	fmt.Fprintln(w, TitleStyle.Render("Parameter registry"))
	if len(defs) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("no parameters registered"))
		return
	}

	fmt.Fprintln(w, TableHeaderStyle.Render(fmt.Sprintf("%-24s %-14s %-12s %s", "NAME", "TYPE", "CATEGORY", "LABEL")))
	for _, def := range defs {
		row := fmt.Sprintf("%-24s %-14s %-12s %s", def.Name, def.Type, def.Category, def.Label)
		if len(def.AllowedValues) > 0 {
			row += SubtleStyle.Render(" [" + strings.Join(def.AllowedValues, ", ") + "]")
		}
		fmt.Fprintln(w, TableCellStyle.Render(row))
	}
}
