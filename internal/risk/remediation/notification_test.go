package remediation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"custodia/internal/risk/classify"
	"custodia/internal/risk/models"
	id "custodia/pkg/domain"
)

func TestNotificationBody(t *testing.T) {
	record := &models.TreatmentRecord{ID: id.RecordID(uuid.New()), PurposeText: "Videovigilancia"}

	critical := notificationBody(record, classify.PolicyFor(models.TierCritical))
	assert.Contains(t, critical, "classified CRITICAL")
	assert.Contains(t, critical, "(Videovigilancia)")
	assert.Contains(t, critical, "EIPD")
	assert.Contains(t, critical, "DPIA")
	assert.Contains(t, critical, "prior consultation")
	assert.Contains(t, critical, "Deadline: 10 days.")
	assert.Contains(t, critical, "Escalation: executive.")

	high := notificationBody(record, classify.PolicyFor(models.TierHigh))
	assert.NotContains(t, high, "DPIA")
	assert.Contains(t, high, "Next review in 60 days.")

	minimal := notificationBody(&models.TreatmentRecord{ID: record.ID}, classify.PolicyFor(models.TierMinimal))
	assert.Contains(t, minimal, "No remediation is required.")
	assert.NotContains(t, minimal, "Escalation")
	assert.NotContains(t, minimal, "()")
}
