package reasoning

import "strings"

const validDifferentialsV2 = "Dx1: Urosepsis | posterior: 0.6 | hierarchy: root-cause | for: dysuria; fever; pyuria | against: no flank pain" +
	" || Dx2: Septic shock | posterior: 45% | hierarchy: intermediate mechanism | for: hypotension; lactate 4.2; tachycardia | against: warm peripheries" +
	" || Dx3: Acute kidney injury | posterior: 20 | hierarchy: complication | for: creatinine rise; oliguria; hypoperfusion | against: normal baseline function."

const validDifferentialsV1 = "Dx1: Urosepsis (links: dysuria; fever; pyuria)" +
	" | Dx2: Septic shock (links: hypotension; lactate 4.2; tachycardia)" +
	" | Dx3: Acute kidney injury (links: creatinine rise; oliguria; hypoperfusion)."

func outputWith(differentials string) string {
	return strings.Join([]string{
		"PROBLEM REPRESENTATION - A 67-year-old man presents with acute fever, hypotension and confusion with lactate of 4.2.",
		"DOMINANT SYNDROME - Septic shock with lactic acidosis and kidney injury from hypoperfusion.",
		"TOP 3 DIFFERENTIALS - " + differentials,
		"RED FLAGS - Refractory hypotension and rising lactate signal imminent deterioration.",
		"BROAD MANAGEMENT PRINCIPLES - Resuscitate with fluids, obtain cultures and start early broad-spectrum antibiotics.",
		"CRITICAL MISSING INFORMATION - Urine culture results and baseline creatinine are needed now.",
	}, "\n")
}

var (
	validOutputV2 = outputWith(validDifferentialsV2)
	validOutputV1 = outputWith(validDifferentialsV1)
)
