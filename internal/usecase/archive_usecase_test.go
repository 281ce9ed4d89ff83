package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/user/deadpage-hunter/internal/adapter/redis"
	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

type fakeSnapshots struct {
	snaps     map[string]*entity.Snapshot
	texts     map[string]string
	lookupErr error
}

func (f *fakeSnapshots) Closest(ctx context.Context, url string) (*entity.Snapshot, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	s, ok := f.snaps[url]
	if !ok {
		return nil, repository.ErrNoSnapshot
	}
	return s, nil
}

func (f *fakeSnapshots) FetchText(ctx context.Context, snap *entity.Snapshot) (string, error) {
	t, ok := f.texts[snap.URL]
	if !ok {
		return "", errors.New("snapshot returned status 503")
	}
	return t, nil
}

type fakeDocs struct {
	batches [][]*entity.ArchivedDocument
	err     error
}

func (f *fakeDocs) UpsertBatch(ctx context.Context, docs []*entity.ArchivedDocument) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.batches = append(f.batches, docs)
	return len(docs), nil
}

func TestArchiver_Run(t *testing.T) {
	queue := &fakeQueue{items: []string{
		"https://a.example/old",
		"https://b.example/never",
		"https://c.example/recent",
		"https://d.example/broken",
	}}
	visited := newFakeVisited("https://c.example/recent")
	snaps := &fakeSnapshots{
		snaps: map[string]*entity.Snapshot{
			"https://a.example/old":    {URL: "http://web.archive.org/web/20190504102030/https://a.example/old", Timestamp: "20190504102030"},
			"https://d.example/broken": {URL: "http://web.archive.org/web/20200101000000/https://d.example/broken", Timestamp: "20200101000000"},
		},
		texts: map[string]string{
			"http://web.archive.org/web/20190504102030/https://a.example/old": "Old article text",
		},
	}
	docs := &fakeDocs{}

	sum, err := NewArchiver(queue, visited, snaps, docs, 48*time.Hour, 0).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ArchiveSummary{Processed: 4, Archived: 2, NoSnapshot: 1, Skipped: 1}, sum)
	require.Len(t, docs.batches, 1)
	batch := docs.batches[0]
	require.Len(t, batch, 2)

	assert.Equal(t, "https://a.example/old", batch[0].OriginalURL)
	assert.Equal(t, "Old article text", batch[0].CleanedText)
	require.NotNil(t, batch[0].ArchiveTimestamp)
	assert.Equal(t, time.Date(2019, 5, 4, 10, 20, 30, 0, time.UTC), *batch[0].ArchiveTimestamp)

	// A capture that could not be downloaded is still recorded.
	assert.Equal(t, "https://d.example/broken", batch[1].OriginalURL)
	assert.Empty(t, batch[1].CleanedText)

	assert.Equal(t, 48*time.Hour, visited.marked["https://a.example/old"])
	assert.Contains(t, visited.marked, "https://b.example/never")
	assert.Empty(t, queue.items)
}

func TestArchiver_EmptyQueue(t *testing.T) {
	docs := &fakeDocs{}
	sum, err := NewArchiver(&fakeQueue{}, newFakeVisited(), &fakeSnapshots{}, docs, time.Hour, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ArchiveSummary{}, sum)
	assert.Empty(t, docs.batches)
}

func TestArchiver_LookupErrorIsCounted(t *testing.T) {
	queue := &fakeQueue{items: []string{"https://a.example"}}
	visited := newFakeVisited()
	snaps := &fakeSnapshots{lookupErr: errors.New("availability API returned status 429")}

	sum, err := NewArchiver(queue, visited, snaps, &fakeDocs{}, time.Hour, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Errors)
	assert.NotContains(t, visited.marked, "https://a.example")
	// Pushed back once, after the drain, for the next run.
	assert.Equal(t, []string{"https://a.example"}, queue.items)
}

func TestArchiver_FailedBatchIsRequeued(t *testing.T) {
	queue := &fakeQueue{items: []string{"https://a.example/old"}}
	visited := newFakeVisited()
	snaps := &fakeSnapshots{
		snaps: map[string]*entity.Snapshot{"https://a.example/old": {URL: "snap", Timestamp: "20190504102030"}},
		texts: map[string]string{"snap": "text"},
	}
	docs := &fakeDocs{err: errors.New("relation does not exist")}

	_, err := NewArchiver(queue, visited, snaps, docs, time.Hour, 0).Run(context.Background())
	assert.ErrorContains(t, err, "relation does not exist")
	assert.Equal(t, []string{"https://a.example/old"}, queue.items)
	assert.NotContains(t, visited.marked, "https://a.example/old")
}

func TestArchiver_PopError(t *testing.T) {
	queue := &fakeQueue{popErr: errors.New("READONLY")}
	_, err := NewArchiver(queue, newFakeVisited(), &fakeSnapshots{}, &fakeDocs{}, time.Hour, 0).Run(context.Background())
	assert.ErrorContains(t, err, "READONLY")
}

func newRedisQueue(t *testing.T) (*redisadapter.QueueRepoImpl, *redisadapter.VisitedRepoImpl) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisadapter.NewQueueRepo(client), redisadapter.NewVisitedRepo(client)
}

func drain(t *testing.T, q repository.QueueRepository) []string {
	t.Helper()
	var urls []string
	for {
		u, err := q.Pop(context.Background())
		if errors.Is(err, goredis.Nil) {
			return urls
		}
		require.NoError(t, err)
		urls = append(urls, u)
	}
}

func TestArchiver_CancelledRunRequeuesRetrievedDocs(t *testing.T) {
	queue, visited := newRedisQueue(t)
	bg := context.Background()
	require.NoError(t, queue.Push(bg, "https://a.example/old"))
	require.NoError(t, queue.Push(bg, "https://b.example/old"))

	snaps := &fakeSnapshots{
		snaps: map[string]*entity.Snapshot{
			"https://a.example/old": {URL: "snap-a", Timestamp: "20190504102030"},
			"https://b.example/old": {URL: "snap-b", Timestamp: "20190504102030"},
		},
		texts: map[string]string{"snap-a": "a", "snap-b": "b"},
	}
	docs := &fakeDocs{}

	ctx, cancel := context.WithTimeout(bg, 50*time.Millisecond)
	defer cancel()
	sum, err := NewArchiver(queue, visited, snaps, docs, time.Hour, time.Hour).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, 1, sum.Processed)
	assert.Empty(t, docs.batches)
	assert.ElementsMatch(t, []string{"https://a.example/old", "https://b.example/old"}, drain(t, queue))

	seen, err := visited.IsVisited(bg, "https://a.example/old")
	require.NoError(t, err)
	assert.False(t, seen, "marker must be cleared so the next run retrieves it")
}

func TestArchiver_CancelledRunRequeuesFailedLookups(t *testing.T) {
	queue, visited := newRedisQueue(t)
	bg := context.Background()
	require.NoError(t, queue.Push(bg, "https://a.example"))
	require.NoError(t, queue.Push(bg, "https://b.example"))
	snaps := &fakeSnapshots{lookupErr: errors.New("availability API returned status 429")}

	ctx, cancel := context.WithTimeout(bg, 50*time.Millisecond)
	defer cancel()
	sum, err := NewArchiver(queue, visited, snaps, &fakeDocs{}, time.Hour, time.Hour).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, 1, sum.Errors)
	assert.ElementsMatch(t, []string{"https://a.example", "https://b.example"}, drain(t, queue))
}
