package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodia/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	parsers := map[string]func(string) (string, error){
		"tenant ID": func(s string) (string, error) {
			id, err := ParseTenantID(s)
			return id.String(), err
		},
		"record ID": func(s string) (string, error) {
			id, err := ParseRecordID(s)
			return id.String(), err
		},
		"evaluation ID": func(s string) (string, error) {
			id, err := ParseEvaluationID(s)
			return id.String(), err
		},
		"artifact ID": func(s string) (string, error) {
			id, err := ParseArtifactID(s)
			return id.String(), err
		},
	}

	for label, parse := range parsers {
		t.Run(label, func(t *testing.T) {
			rejected := map[string]string{
				"":                    label + " cannot be empty",
				"RUT-76.086.428-5":    "invalid " + label + " format",
				uuid.Nil.String():     label + " cannot be nil",
				" " + uuid.NewString(): "invalid " + label + " format",
			}
			for in, msg := range rejected {
				_, err := parse(in)
				require.Error(t, err, in)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), in)
				assert.EqualError(t, err, msg)
			}

			raw := uuid.NewString()
			got, err := parse(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}
}

func TestGeneratedIDs(t *testing.T) {
	assert.NotEqual(t, NewArtifactID(), NewArtifactID())
	assert.NotEqual(t, NewEvaluationID(), NewEvaluationID())
	assert.False(t, NewTaskID().IsNil())
	assert.False(t, NewNotificationID().IsNil())
	assert.True(t, RecordID{}.IsNil())
	assert.True(t, TenantID(uuid.Nil).IsNil())
}
