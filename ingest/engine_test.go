package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/Luismorlan/birdbrain/model"
	"github.com/Luismorlan/birdbrain/twitter"
	"github.com/Luismorlan/birdbrain/utils"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a canned timeline, applying the since cursor and limit
// the way the remote service does.
type fakeSource struct {
	profile     twitter.Profile
	tweets      []twitter.Tweet // newest first
	userErr     error
	timelineErr error

	lastSince *int64
}

func (f *fakeSource) GetUser(ctx context.Context, username string) (*twitter.Profile, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	profile := f.profile
	return &profile, nil
}

func (f *fakeSource) GetTimeline(ctx context.Context, userID int64, sinceID *int64, limit int) ([]twitter.Tweet, error) {
	if f.timelineErr != nil {
		return nil, f.timelineErr
	}
	f.lastSince = sinceID
	var res []twitter.Tweet
	for _, tweet := range f.tweets {
		if sinceID != nil && tweet.ID <= *sinceID {
			continue
		}
		res = append(res, tweet)
		if len(res) == limit {
			break
		}
	}
	return res, nil
}

// stubEmbedder embeds any text into a fixed-dimension vector derived from
// its length. failAfter > 0 makes the (failAfter+1)-th call fail, to
// exercise mid-batch rollback.
type stubEmbedder struct {
	calls     int
	failAfter int
}

func (s *stubEmbedder) Embed(text string) ([]float64, error) {
	s.calls++
	if s.failAfter > 0 && s.calls > s.failAfter {
		return nil, errors.New("embedder exploded")
	}
	return []float64{float64(len(text)), 1, 0}, nil
}

func (s *stubEmbedder) Dimension() int { return 3 }

func newTestEngine(t *testing.T, source twitter.Source) (*Engine, *stubEmbedder) {
	t.Helper()
	db, _ := utils.CreateTempDB(t)
	embedder := &stubEmbedder{}
	return NewEngine(db, source, embedder), embedder
}

func loadUserAndPosts(t *testing.T, e *Engine, id int64) (model.User, []model.Post) {
	t.Helper()
	var user model.User
	require.Nil(t, e.db.First(&user, "id = ?", id).Error)
	var posts []model.Post
	require.Nil(t, e.db.Order("id").Find(&posts, "user_id = ?", id).Error)
	return user, posts
}

func TestSyncUserCreatesUserAndPosts(t *testing.T) {
	source := &fakeSource{
		profile: twitter.Profile{ID: 7, Username: "ryan"},
		tweets: []twitter.Tweet{
			{ID: 30, Text: "third"},
			{ID: 20, Text: "second"},
			{ID: 10, Text: "first"},
		},
	}
	engine, _ := newTestEngine(t, source)

	require.Nil(t, engine.SyncUser(context.Background(), "ryan"))

	user, posts := loadUserAndPosts(t, engine, 7)
	assert.Equal(t, "ryan", user.Username)
	require.NotNil(t, user.NewestPostId)
	assert.Equal(t, int64(30), *user.NewestPostId)

	var texts []string
	for _, post := range posts {
		texts = append(texts, post.Text)
		vec, err := post.Vector()
		require.Nil(t, err)
		assert.Len(t, vec, 3)
	}
	assert.Empty(t, cmp.Diff([]string{"first", "second", "third"}, texts))
}

func TestSyncUserIsIdempotent(t *testing.T) {
	source := &fakeSource{
		profile: twitter.Profile{ID: 7, Username: "ryan"},
		tweets:  []twitter.Tweet{{ID: 20, Text: "b"}, {ID: 10, Text: "a"}},
	}
	engine, _ := newTestEngine(t, source)

	require.Nil(t, engine.SyncUser(context.Background(), "ryan"))
	require.Nil(t, engine.SyncUser(context.Background(), "ryan"))

	// The second call passed the high-water mark as since cursor and saw
	// nothing new.
	require.NotNil(t, source.lastSince)
	assert.Equal(t, int64(20), *source.lastSince)

	user, posts := loadUserAndPosts(t, engine, 7)
	assert.Equal(t, int64(20), *user.NewestPostId)
	assert.Len(t, posts, 2)
}

func TestSyncUserIngestsIncrementally(t *testing.T) {
	source := &fakeSource{
		profile: twitter.Profile{ID: 7, Username: "ryan"},
		tweets:  []twitter.Tweet{{ID: 20, Text: "b"}, {ID: 10, Text: "a"}},
	}
	engine, _ := newTestEngine(t, source)
	require.Nil(t, engine.SyncUser(context.Background(), "ryan"))

	// New remote activity shows up on top of the timeline.
	source.tweets = append([]twitter.Tweet{
		{ID: 50, Text: "d"},
		{ID: 40, Text: "c"},
	}, source.tweets...)
	require.Nil(t, engine.SyncUser(context.Background(), "ryan"))

	user, posts := loadUserAndPosts(t, engine, 7)
	assert.Equal(t, int64(50), *user.NewestPostId)
	require.Len(t, posts, 4)

	// The high-water mark is non-decreasing and no two posts share an id.
	seen := map[int64]bool{}
	for _, post := range posts {
		assert.False(t, seen[post.Id])
		seen[post.Id] = true
	}
}

func TestSyncUserRollsBackOnEmbedFailure(t *testing.T) {
	source := &fakeSource{
		profile: twitter.Profile{ID: 7, Username: "ryan"},
		tweets: []twitter.Tweet{
			{ID: 30, Text: "third"},
			{ID: 20, Text: "second"},
			{ID: 10, Text: "first"},
		},
	}
	engine, embedder := newTestEngine(t, source)
	embedder.failAfter = 1

	err := engine.SyncUser(context.Background(), "ryan")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "embedder exploded")

	// Nothing from the batch is persisted, not even the user row created in
	// the same transaction.
	var count int64
	require.Nil(t, engine.db.Model(&model.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.Nil(t, engine.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSyncUserKeepsHighWaterMarkOnFailedIncrement(t *testing.T) {
	source := &fakeSource{
		profile: twitter.Profile{ID: 7, Username: "ryan"},
		tweets:  []twitter.Tweet{{ID: 20, Text: "b"}, {ID: 10, Text: "a"}},
	}
	engine, embedder := newTestEngine(t, source)
	require.Nil(t, engine.SyncUser(context.Background(), "ryan"))

	source.tweets = append([]twitter.Tweet{{ID: 40, Text: "c"}}, source.tweets...)
	embedder.failAfter = embedder.calls // next embed call fails

	require.NotNil(t, engine.SyncUser(context.Background(), "ryan"))

	user, posts := loadUserAndPosts(t, engine, 7)
	assert.Equal(t, int64(20), *user.NewestPostId)
	assert.Len(t, posts, 2)
}

func TestSyncUserPropagatesRemoteErrors(t *testing.T) {
	source := &fakeSource{userErr: twitter.ErrNotFound}
	engine, _ := newTestEngine(t, source)

	err := engine.SyncUser(context.Background(), "nobody")
	assert.True(t, errors.Is(err, twitter.ErrNotFound))

	source = &fakeSource{
		profile:     twitter.Profile{ID: 7, Username: "ryan"},
		timelineErr: twitter.ErrRateLimited,
	}
	engine, _ = newTestEngine(t, source)

	err = engine.SyncUser(context.Background(), "ryan")
	assert.True(t, errors.Is(err, twitter.ErrRateLimited))

	var count int64
	require.Nil(t, engine.db.Model(&model.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSyncUserTruncatesLongText(t *testing.T) {
	long := strings.Repeat("héllo ", 100) // 600 code points
	source := &fakeSource{
		profile: twitter.Profile{ID: 7, Username: "ryan"},
		tweets:  []twitter.Tweet{{ID: 10, Text: long}},
	}
	engine, _ := newTestEngine(t, source)

	require.Nil(t, engine.SyncUser(context.Background(), "ryan"))

	_, posts := loadUserAndPosts(t, engine, 7)
	require.Len(t, posts, 1)
	assert.Equal(t, model.MaxPostTextLength, len([]rune(posts[0].Text)))
}
