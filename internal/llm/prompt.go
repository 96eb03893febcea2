package llm

import (
	"fmt"
	"strings"

	"bilancio/internal/core"
)

// TaxPrompt builds the prompt for the structured net-income estimation call.
// The response shape itself is constrained by the request's JSON schema, not
// by prompt text.
func TaxPrompt(req EstimationRequest) string {
	var b strings.Builder
	b.WriteString("Estimate the monthly net income after all applicable taxes for the following person.\n")
	fmt.Fprintf(&b, "Gross monthly income: %s\n", req.GrossMonthlyIncome)
	fmt.Fprintf(&b, "Location: %s\n", req.Location)
	fmt.Fprintf(&b, "Filing status: %s\n", req.FilingStatus)
	b.WriteString("Use typical current tax rates for that location. ")
	b.WriteString("Respond with the estimated monthly net income, the estimated total monthly tax, and a one-sentence disclaimer that this is an estimate, not tax advice.")
	return b.String()
}

// AnalysisPrompt builds the free-text prompt for the narrative budget
// analysis. Every forwarded expense becomes one itemization line; monetary
// summaries are formatted to two decimal places.
func AnalysisPrompt(req AnalysisRequest) string {
	var b strings.Builder
	b.WriteString("You are a personal budget advisor. Write a short, friendly analysis of this monthly budget.\n\n")
	fmt.Fprintf(&b, "Gross monthly income: %s\n", req.GrossIncome)
	fmt.Fprintf(&b, "Estimated net monthly income: %s\n", req.NetIncome.Decimal())
	fmt.Fprintf(&b, "Location: %s\n", req.Location)
	b.WriteString("Monthly expenses:\n")
	if len(req.ValidExpenses) == 0 {
		b.WriteString("- none listed\n")
	}
	for _, e := range req.ValidExpenses {
		fmt.Fprintf(&b, "- %s: %s\n", e.Name, formatExpenseAmount(e.Amount))
	}
	fmt.Fprintf(&b, "Total expenses: %s\n", req.TotalExpenses.Decimal())
	fmt.Fprintf(&b, "Remaining balance: %s\n\n", req.RemainingBalance.Decimal())
	b.WriteString("Comment on whether the budget is sustainable, point out the largest expenses, and suggest one concrete improvement. Keep it under 150 words. Plain text only.")
	return b.String()
}

// formatExpenseAmount renders a raw amount string to two decimals when it
// parses, and passes it through untouched when it does not. The analysis
// stage itemizes entries the numeric filter would have excluded.
func formatExpenseAmount(raw string) string {
	cents, err := core.ParseSignedCents(raw)
	if err != nil {
		return raw
	}
	return core.Money{Cents: cents}.Decimal()
}
