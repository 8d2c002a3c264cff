package reasoning

import (
	"fmt"
	"strings"
)

// RepairDirective is appended to the user prompt on every attempt after the
// first.
const RepairDirective = "REPAIR MODE: Your last output failed structure/depth/completeness checks. " +
	"Regenerate all 6 lines in exact format with complete sentences and no truncation."

const systemPrompt = `You are a senior internal medicine consultant producing structured, high-fidelity clinical reasoning.

Behavior constraints:
- Prioritize synthesis over enumeration.
- For every major finding, connect finding -> mechanism -> syndrome/diagnosis.
- Integrate all abnormal labs explicitly, especially in DOMINANT SYNDROME.
- Avoid generic textbook lists or unanchored differentials.
- Prioritize diagnoses using case-discriminating clues and clinical risk.
- Use concise but complete sentences only.
- Do not output chain-of-thought.

Internal quality checks before finalizing (do not reveal):
1) All 6 required headings are present exactly once and in order.
2) No section is empty or truncated.
3) Problem representation explicitly integrates key clues and abnormal labs.
4) TOP 3 DIFFERENTIALS has exactly 3 differentials, each linked to at least 3 major findings.
5) Final output ends with a complete sentence.

Output rules:
- Return only the 6 required lines.
- No bullets, no preface, no postscript.
`

// PromptBuilder renders the system and user prompts for one schema version.
type PromptBuilder struct {
	schema SchemaVersion
}

func NewPromptBuilder(schema SchemaVersion) PromptBuilder {
	if schema == "" {
		schema = DefaultSchema
	}
	return PromptBuilder{schema: schema}
}

func (p PromptBuilder) System() string {
	return systemPrompt
}

// User embeds the headings, line rules and the differential template around
// the case description.
func (p PromptBuilder) User(caseText string) string {
	var b strings.Builder
	b.WriteString("Generate a structured clinical reasoning summary with EXACTLY these headings in this exact order:\n\n")
	for _, h := range Headings {
		b.WriteString(string(h) + " - \n")
	}
	b.WriteString(`
Formatting requirements:
- Exactly 6 lines total (one line per heading).
- Each line must contain 1-3 complete sentences.
- No extra headings, no bullets, no numbering.
- End every line with sentence punctuation.

Clinical depth requirements:
- PROBLEM REPRESENTATION: concise synthesis of acuity + key positives + discriminative clues + unifying concern.
- DOMINANT SYNDROME: explicitly integrate abnormal labs and explain lab -> mechanism -> syndrome.
`)
	b.WriteString("- TOP 3 DIFFERENTIALS: exactly 3 diagnoses in this strict single-line template:\n")
	fmt.Fprintf(&b, "  %q\n", p.schema.Template())
	if p.schema == SchemaPosterior {
		b.WriteString("  Posteriors are decimals between 0 and 1 and must strictly decrease from Dx1 to Dx3.\n")
		fmt.Fprintf(&b, "  Hierarchy must be %s for Dx1, %s for Dx2 and %s for Dx3.\n",
			RootCause, IntermediateMechanism, DownstreamComplication)
		b.WriteString("  Give at least 3 supporting clues (for) and at least 1 opposing clue (against), separated by semicolons.\n")
	}
	b.WriteString(`- RED FLAGS: immediate deterioration risks linked to this case.
- BROAD MANAGEMENT PRINCIPLES: stabilization, targeted diagnostics, and early risk-mitigation priorities.
- CRITICAL MISSING INFORMATION: highest-yield data that would change diagnosis or management now.

Completeness requirements:
- Internally verify all abnormal labs are integrated.
- Internally verify each differential explains at least 3 major findings.
- Internally verify no section is incomplete.
- Internally verify final word completes a sentence.

CASE DATA:
`)
	b.WriteString(caseText)
	return b.String()
}

// UserWithRepair is the user prompt with the repair directive appended.
func (p PromptBuilder) UserWithRepair(caseText string) string {
	return p.User(caseText) + "\n\n" + RepairDirective
}

// Repair builds the dedicated repair request that carries the failing
// candidate verbatim.
func (p PromptBuilder) Repair(caseText, failing, reason string) string {
	var b strings.Builder
	b.WriteString(p.User(caseText))
	b.WriteString("\n\n")
	b.WriteString(RepairDirective)
	b.WriteString("\n\nThe previous output is reproduced verbatim between the markers below.")
	if reason != "" {
		fmt.Fprintf(&b, " It was rejected because: %s.", reason)
	}
	b.WriteString(" Rewrite it so that it satisfies every requirement above, keeping the clinical content where it is correct.\n")
	b.WriteString("<<<PREVIOUS OUTPUT\n")
	b.WriteString(failing)
	b.WriteString("\nPREVIOUS OUTPUT>>>\n")
	return b.String()
}
