package operator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestCreateAndListActive(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	a, err := svc.Create(ctx, "Ops@TriadBlue.com", "Ops")
	require.NoError(t, err)
	assert.Equal(t, "ops@triadblue.com", a.Email)
	assert.True(t, a.Active)
	assert.Equal(t, "admin", a.Role)

	b, err := svc.Create(ctx, "dev@triadblue.com", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, b.ID, false))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)
}

func TestCreateRejectsDuplicatesAndBadEmail(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, "ops@triadblue.com", "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "ops@triadblue.com", "")
	assert.True(t, errors.HasCode(err, errors.EConflict))

	_, err = svc.Create(ctx, "nobody", "")
	assert.True(t, errors.HasCode(err, errors.EValidation))
}

func TestSetActiveUnknown(t *testing.T) {
	svc := NewService(setupTestDB(t))

	err := svc.SetActive(context.Background(), 99, true)
	assert.True(t, errors.HasCode(err, errors.ENotFound))
}
