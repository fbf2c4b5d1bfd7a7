package remediation

import (
	"fmt"
	"strings"

	"custodia/internal/risk/models"
)

// notificationBody lists the actions the policy requires of reviewers.
func notificationBody(record *models.TreatmentRecord, policy models.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Treatment record %s", record.ID)
	if record.PurposeText != "" {
		fmt.Fprintf(&b, " (%s)", record.PurposeText)
	}
	fmt.Fprintf(&b, " was classified %s.\n", policy.Tier)

	var actions []string
	if policy.RequiresEIPD {
		actions = append(actions, "complete or confirm the impact assessment (EIPD)")
	}
	if policy.RequiresDPIA {
		actions = append(actions, "complete the algorithmic impact assessment (DPIA)")
	}
	if policy.RequiresPriorConsultation {
		actions = append(actions, "prepare the prior consultation with the supervisory authority")
	}
	if len(actions) == 0 {
		b.WriteString("No remediation is required.\n")
	} else {
		b.WriteString("Required actions:\n")
		for _, a := range actions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	if policy.TaskDeadlineDays > 0 {
		fmt.Fprintf(&b, "Deadline: %d days.\n", policy.TaskDeadlineDays)
	}
	if policy.Escalation != "" && policy.Escalation != models.EscalationNone {
		fmt.Fprintf(&b, "Escalation: %s.\n", policy.Escalation)
	}
	fmt.Fprintf(&b, "Next review in %d days.", policy.ReviewCadenceDays)
	return b.String()
}
