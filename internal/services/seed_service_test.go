package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"seedling/internal/repository"
	"seedling/internal/seed"
	"seedling/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, files map[string]string) (*SeedService, *repository.MemoryStore) {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "test")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	store := repository.NewMemoryStore()
	reg := repository.NewRegistry(store,
		models.ModelDefinition{Identity: "user"},
		models.ModelDefinition{Identity: "post", Associations: []models.Association{
			{Alias: "tags", Type: models.AssociationCollection, Collection: "tag"},
		}},
		models.ModelDefinition{Identity: "tag"},
	)
	seeder := seed.New(seed.Options{
		Environment: "test",
		Loader:      seed.NewLoader(nil, base, nil, nil),
		Lookup: func(name string) (seed.ModelHandle, bool) {
			m, ok := reg.Lookup(name)
			if !ok {
				return nil, false
			}
			return m, true
		},
	})
	return NewSeedService(seeder), store
}

func TestSeedServiceLastBeforeRun(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Last()
	assert.ErrorIs(t, err, ErrNotRun)
}

func TestSeedServiceRun(t *testing.T) {
	svc, store := newTestService(t, map[string]string{
		"UserSeed.json": `[{"name":"Ann"},{"name":"Bob"}]`,
		"PostSeed.json": `{"title":"Hi","tags":["t1"]}`,
	})
	ctx := context.Background()

	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Records)

	_, err = svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Count("user"))
	assert.Equal(t, 1, store.Count("tag"))

	status, err := svc.Last()
	require.NoError(t, err)
	assert.Empty(t, status.Error)
	assert.Equal(t, "test", status.Result.Environment)
	assert.False(t, status.Finished.IsZero())
}

func TestSeedServiceRecordsFailure(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{"CommentSeed.json": `{"body":"x"}`})

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, seed.ErrModelNotFound)

	status, err := svc.Last()
	require.NoError(t, err)
	assert.Nil(t, status.Result)
	assert.Contains(t, status.Error, "comment")
}

func TestSeedServiceRecordExternalRun(t *testing.T) {
	svc, _ := newTestService(t, nil)
	svc.Record(nil, errors.New("wait for startup: context canceled"))

	status, err := svc.Last()
	require.NoError(t, err)
	assert.Equal(t, "wait for startup: context canceled", status.Error)
}

func TestSeedServiceList(t *testing.T) {
	svc, store := newTestService(t, map[string]string{
		"UserSeed.yaml": "- name: Ann\n- name: Bob\n",
		"PostSeed.json": `{"title":"Hi"}`,
	})

	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []SeedInfo{
		{Key: "PostSeed", Model: "post", Kind: "record", Records: 1},
		{Key: "UserSeed", Model: "user", Kind: "sequence", Records: 2},
	}, infos)
	assert.Zero(t, store.Count("user"))
}
