package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"seedling/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedUsersTwiceIsIdempotent(t *testing.T) {
	base := t.TempDir()
	writeSeed(t, filepath.Join(base, "test"), "UserSeed.json", `[{"name":"Ann"},{"name":"Bob"}]`)
	store, reg := newBlog(t)

	s := New(Options{
		Environment: "test",
		Loader:      NewLoader(nil, base, nil, &NoOpLogger{}),
		Lookup:      registryLookup(reg),
		Logger:      &NoOpLogger{},
	})

	for i := 0; i < 2; i++ {
		res, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "test", res.Environment)
		assert.Equal(t, 2, res.Records)
	}

	users := store.All("user")
	require.Len(t, users, 2)
	assert.ElementsMatch(t, []interface{}{"Ann", "Bob"}, []interface{}{users[0]["name"], users[1]["name"]})
}

func TestSeedPostWithTags(t *testing.T) {
	base := t.TempDir()
	writeSeed(t, filepath.Join(base, "test"), "PostSeed.json", `{"title":"Hi","tags":["t1","t2"]}`)
	store, reg := newBlog(t)
	ctx := context.Background()

	s := New(Options{Environment: "test", Loader: NewLoader(nil, base, nil, nil), Lookup: registryLookup(reg)})
	res, err := s.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Data, 1)

	posts := store.All("post")
	require.Len(t, posts, 1)
	assert.NotContains(t, posts[0], "tags")

	tag, _ := reg.Lookup("tag")
	t1, err := tag.FindOrCreate(ctx, models.Record{"name": "t1"}, models.Record{"name": "t1"})
	require.NoError(t, err)
	t2, err := tag.FindOrCreate(ctx, models.Record{"name": "t2"}, models.Record{"name": "t2"})
	require.NoError(t, err)

	post, _ := reg.Lookup("post")
	got, err := post.FindOne(ctx, posts[0].ID(), "tags")
	require.NoError(t, err)
	tags := got["tags"].([]models.Record)
	require.Len(t, tags, 2)
	assert.Equal(t, []string{t1.ID(), t2.ID()}, []string{tags[0].ID(), tags[1].ID()})

	_, err = s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Count("post"))
	assert.Equal(t, 2, store.Count("tag"))
}

func TestSeedPhaseOrdering(t *testing.T) {
	_, reg := newBlog(t)
	log := &callLog{}
	lookup, _ := recordingLookup(reg, log, map[string]time.Duration{
		"post": 10 * time.Millisecond,
		"user": 30 * time.Millisecond,
	})

	s := New(Options{Environment: "test", Lookup: lookup})
	_, err := s.Seed(context.Background(), Seeds{
		"PostSeed": Records(
			models.Record{"title": "A", "tags": []interface{}{"t1"}},
			models.Record{"title": "B", "tags": []interface{}{"t2", "t3"}},
		),
		"UserSeed": Records(models.Record{"name": "Ann"}, models.Record{"name": "Bob"}),
	})
	require.NoError(t, err)

	events := log.snapshot()
	lastBase, firstAssoc := -1, len(events)
	for i, e := range events {
		switch {
		case strings.HasPrefix(e, "findOne:"):
			lastBase = i
		case e == "findOrCreate:tag" || strings.HasPrefix(e, "addToCollection:"):
			if i < firstAssoc {
				firstAssoc = i
			}
		}
	}
	require.Equal(t, 4, countPrefix(events, "findOne:"))
	require.Equal(t, 3, countPrefix(events, "findOrCreate:tag"))
	assert.Less(t, lastBase, firstAssoc, "association work started before base records finished: %v", events)
}

func countPrefix(events []string, prefix string) int {
	n := 0
	for _, e := range events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func TestSeedUnknownModelFailsRun(t *testing.T) {
	_, reg := newBlog(t)
	s := New(Options{Lookup: registryLookup(reg)})

	_, err := s.Seed(context.Background(), Seeds{"CommentSeed": Record(models.Record{"body": "x"})})
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestSeedNothingToDo(t *testing.T) {
	_, reg := newBlog(t)
	s := New(Options{Lookup: registryLookup(reg), Loader: NewLoader(nil, t.TempDir(), nil, nil)})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultEnvironment, res.Environment)
	assert.Zero(t, res.Records)
	assert.Empty(t, res.Data)
}

func TestSeedStrictProducerFailure(t *testing.T) {
	_, reg := newBlog(t)
	failing := Seeds{"UserSeed": Deferred(func(ctx context.Context) (Payload, error) {
		return Payload{}, errors.New("feed offline")
	})}

	res, err := New(Options{Lookup: registryLookup(reg)}).Seed(context.Background(), failing)
	require.NoError(t, err)
	assert.Zero(t, res.Records)

	_, err = New(Options{Lookup: registryLookup(reg), Strict: true}).Seed(context.Background(), failing)
	assert.ErrorContains(t, err, "feed offline")
}

func TestRunWithoutLoader(t *testing.T) {
	_, err := New(Options{}).Run(context.Background())
	assert.Error(t, err)
}

func TestRunPropagatesLoadErrors(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "test"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "test", "UserSeed.yaml"), []byte("- 1\n"), 0o644))
	_, reg := newBlog(t)

	_, err := New(Options{Environment: "test", Loader: NewLoader(nil, base, nil, nil), Lookup: registryLookup(reg)}).Run(context.Background())
	assert.ErrorContains(t, err, "load seeds")
}
