package ingest

import (
	"context"
	"sync"

	"github.com/Luismorlan/birdbrain/embedding"
	"github.com/Luismorlan/birdbrain/model"
	"github.com/Luismorlan/birdbrain/twitter"
	Logger "github.com/Luismorlan/birdbrain/utils/log"
	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// TimelineBatchSize bounds how many new tweets a single sync ingests.
const TimelineBatchSize = 200

const uniqueViolationCode = "23505"

// ErrStoreConflict indicates an insert hit an id that already exists. The
// since cursor should make this impossible, so seeing it means an invariant
// was violated upstream.
var ErrStoreConflict = errors.New("ingest: duplicate post id")

// Engine synchronizes remote timelines into the content store. All
// collaborators are injected; the engine itself holds no state besides the
// per-username locks.
type Engine struct {
	db       *gorm.DB
	source   twitter.Source
	embedder embedding.Embedder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(db *gorm.DB, source twitter.Source, embedder embedding.Embedder) *Engine {
	return &Engine{
		db:       db,
		source:   source,
		embedder: embedder,
		locks:    make(map[string]*sync.Mutex),
	}
}

// SyncUser ingests all tweets of username newer than the stored high-water
// mark. The whole sync commits atomically: on any remote, embedding or
// store failure nothing is persisted and the error propagates. Calling it
// again with no new remote activity is a no-op.
//
// Syncs for the same username are serialized on a per-username lock so two
// concurrent calls cannot both read a stale high-water mark and
// double-insert. Syncs for different usernames run in parallel.
//
// Note the local user is resolved by the remote numeric id, while Compare
// matches by username string. If a username is reassigned upstream the two
// paths can target different records. Inherited behavior, kept as-is.
func (e *Engine) SyncUser(ctx context.Context, username string) error {
	lock := e.usernameLock(username)
	lock.Lock()
	defer lock.Unlock()

	profile, err := e.source.GetUser(ctx, username)
	if err != nil {
		return err
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := model.User{Id: profile.ID, Username: username}
		res := tx.Find(&user, "id = ?", profile.ID)
		if res.Error != nil {
			return errors.Wrap(res.Error, "fail to look up user")
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&user).Error; err != nil {
				return wrapStoreError(err, "fail to create user")
			}
		}

		tweets, err := e.source.GetTimeline(ctx, user.Id, user.NewestPostId, TimelineBatchSize)
		if err != nil {
			return err
		}
		if len(tweets) == 0 {
			Logger.Log.Infof("no new tweets for user %s", username)
			return nil
		}

		// The timeline is newest first: the first id is the new high-water
		// mark.
		newest := tweets[0].ID
		user.NewestPostId = &newest
		if err := tx.Save(&user).Error; err != nil {
			return wrapStoreError(err, "fail to update high-water mark")
		}

		posts := make([]*model.Post, 0, len(tweets))
		for _, tweet := range tweets {
			post := &model.Post{
				Id:     tweet.ID,
				Text:   model.TruncateText(tweet.Text),
				UserID: user.Id,
			}
			vec, err := e.embedder.Embed(post.Text)
			if err != nil {
				return errors.Wrapf(err, "fail to embed tweet %d", tweet.ID)
			}
			if err := post.SetVector(vec); err != nil {
				return errors.Wrapf(err, "fail to encode embedding for tweet %d", tweet.ID)
			}
			posts = append(posts, post)
		}
		if err := tx.Create(&posts).Error; err != nil {
			return wrapStoreError(err, "fail to insert posts")
		}

		Logger.Log.Infof("ingested %d new tweets for user %s", len(posts), username)
		return nil
	})
}

func (e *Engine) usernameLock(username string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[username]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[username] = lock
	}
	return lock
}

func wrapStoreError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return errors.Wrap(ErrStoreConflict, msg)
	}
	return errors.Wrap(err, msg)
}
