package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/TRIADBLUE/consoleblue/internal/db"
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

func TestRecordAndList(t *testing.T) {
	svc := NewService(setupTestDB(t), nil)
	ctx := context.Background()

	svc.Record(ctx, Entry{
		Action:     ActionCreate,
		EntityType: EntitySharedDoc,
		EntityID:   7,
		EntitySlug: "brand",
		NewValue:   map[string]string{"title": "Brand"},
	})
	svc.Record(ctx, Entry{
		Action:     ActionReorder,
		EntityType: EntityProjectDoc,
		Metadata:   map[string]any{"projectId": 1},
	})

	all, err := svc.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ActionReorder, all[0].Action)
	assert.Equal(t, float64(1), all[0].Metadata["projectId"])

	shared, err := svc.List(ctx, EntitySharedDoc, 10)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "brand", shared[0].EntitySlug)
	assert.Equal(t, int64(7), shared[0].EntityID)
	assert.JSONEq(t, `{"title":"Brand"}`, string(shared[0].NewValue.(json.RawMessage)))
}

func TestRecordFailureIsLoggedOnly(t *testing.T) {
	database := setupTestDB(t)
	var buf bytes.Buffer
	svc := NewService(database, slog.New(slog.NewTextHandler(&buf, nil)))

	database.Close()

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), Entry{Action: ActionDelete, EntityType: EntityProject, EntitySlug: "acme"})
	})
	assert.Contains(t, buf.String(), "audit record failed")
	assert.Contains(t, buf.String(), "slug=acme")
}

func TestRecordTakesUserFromContext(t *testing.T) {
	database := setupTestDB(t)
	_, err := database.Exec(`INSERT INTO admin_users (email) VALUES ('ops@triadblue.com')`)
	require.NoError(t, err)

	svc := NewService(database, nil)
	ctx := WithUser(context.Background(), 1)
	assert.Equal(t, int64(1), UserFrom(ctx))
	assert.Zero(t, UserFrom(context.Background()))

	svc.Record(ctx, Entry{Action: ActionUpdate, EntityType: EntityProject, EntityID: 3})

	entries, err := svc.List(context.Background(), EntityProject, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].UserID)
}
