//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
	"custodia/pkg/testutil/containers"
)

func TestPostgresAdvisoryLock(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	l := NewPostgres(pg.DB, nil)
	recordID := id.RecordID(uuid.New())

	release, err := l.Acquire(context.Background(), recordID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, recordID)
	assert.ErrorIs(t, err, sentinel.ErrTimeout)

	other, err := l.Acquire(context.Background(), id.RecordID(uuid.New()))
	require.NoError(t, err, "different records do not contend")
	other()

	release()
	again, err := l.Acquire(context.Background(), recordID)
	require.NoError(t, err)
	again()
}
