package draftstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairosacademy/enrollment/core/enrollment"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client, time.Hour), mr
}

func sampleApp() enrollment.Application {
	app := enrollment.NewApplication()
	app.StudentInfo.FirstName = "Ada"
	app.StudentInfo.LastName = "Lovelace"
	app.MedicalInfo.Medications = []enrollment.Medication{{Name: "Albuterol", Dosage: "90mcg"}}
	app.ReligiousInfo.FatherChristian = enrollment.TriYes
	app.CurrentStep = enrollment.StepMedicalInfo
	return app
}

func TestRedisStore_roundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)
	app := sampleApp()

	require.NoError(t, store.Save(ctx, "d1", app))

	loaded, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, app, loaded)

	// drafts expire with the configured TTL
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"d1"))
}

func TestRedisStore_missingDraft(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.Equal(t, enrollment.ErrDraftNotFound, err)
}

func TestRedisStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	require.NoError(t, store.Save(ctx, "d1", sampleApp()))
	require.NoError(t, store.Clear(ctx, "d1"))

	_, err := store.Load(ctx, "d1")
	assert.Equal(t, enrollment.ErrDraftNotFound, err)

	// clearing an unknown draft is not an error
	assert.NoError(t, store.Clear(ctx, "nope"))
}

func TestInMemStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStore()
	app := sampleApp()

	require.NoError(t, store.Save(ctx, "d1", app))

	loaded, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, app, loaded)

	// the stored copy is isolated from later mutation
	app.StudentInfo.FirstName = "Grace"
	loaded, err = store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", loaded.StudentInfo.FirstName)

	_, err = store.Load(ctx, "nope")
	assert.Equal(t, enrollment.ErrDraftNotFound, err)

	require.NoError(t, store.Clear(ctx, "d1"))
	_, err = store.Load(ctx, "d1")
	assert.Equal(t, enrollment.ErrDraftNotFound, err)
}
