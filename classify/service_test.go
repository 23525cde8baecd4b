package classify

import (
	"context"
	"testing"

	"github.com/Luismorlan/birdbrain/model"
	"github.com/Luismorlan/birdbrain/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubEmbedder maps exact texts to canned vectors; anything unmapped embeds
// to the zero vector, mirroring the all-out-of-vocabulary case.
type stubEmbedder struct {
	vectors map[string][]float64
}

func (s *stubEmbedder) Embed(text string) ([]float64, error) {
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return make([]float64, s.Dimension()), nil
}

func (s *stubEmbedder) Dimension() int { return 2 }

var testEmbedder = &stubEmbedder{vectors: map[string][]float64{
	"alice one":   {0.9, 0.1},
	"alice two":   {1.0, 0.0},
	"alice three": {0.8, 0.2},
	"bob one":     {0.1, 0.9},
	"bob two":     {0.0, 1.0},
	"bob three":   {0.2, 0.8},
	"alice query": {0.85, 0.15},
	"bob query":   {0.15, 0.85},
}}

func seedUser(t *testing.T, db *gorm.DB, id int64, username string, texts []string) {
	t.Helper()
	require.Nil(t, db.Create(&model.User{Id: id, Username: username}).Error)
	for i, text := range texts {
		post := model.Post{Id: id*1000 + int64(i), Text: text, UserID: id}
		vec, err := testEmbedder.Embed(text)
		require.Nil(t, err)
		require.Nil(t, post.SetVector(vec))
		require.Nil(t, db.Create(&post).Error)
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, _ := utils.CreateTempDB(t)
	seedUser(t, db, 1, "alice", []string{"alice one", "alice two", "alice three"})
	seedUser(t, db, 2, "bob", []string{"bob one", "bob two", "bob three"})
	return NewService(db, testEmbedder)
}

func TestCompareIdentifiesLikelierAuthor(t *testing.T) {
	service := newTestService(t)

	label, err := service.Compare(context.Background(), "alice", "bob", "alice query")
	require.Nil(t, err)
	assert.Equal(t, 0, label)
	assert.Equal(t, "alice", Winner("alice", "bob", label))

	label, err = service.Compare(context.Background(), "alice", "bob", "bob query")
	require.Nil(t, err)
	assert.Equal(t, 1, label)
	assert.Equal(t, "bob", Winner("alice", "bob", label))
}

func TestCompareIsSymmetric(t *testing.T) {
	service := newTestService(t)

	forward, err := service.Compare(context.Background(), "alice", "bob", "alice query")
	require.Nil(t, err)
	backward, err := service.Compare(context.Background(), "bob", "alice", "alice query")
	require.Nil(t, err)

	// Labels are canonical regardless of argument order, so both calls
	// designate the same winner.
	assert.Equal(t, forward, backward)
	assert.Equal(t, Winner("alice", "bob", forward), Winner("bob", "alice", backward))
}

func TestCompareIsDeterministic(t *testing.T) {
	service := newTestService(t)

	first, err := service.Compare(context.Background(), "alice", "bob", "alice query")
	require.Nil(t, err)
	for i := 0; i < 3; i++ {
		again, err := service.Compare(context.Background(), "alice", "bob", "alice query")
		require.Nil(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompareRejectsSameUser(t *testing.T) {
	service := newTestService(t)

	_, err := service.Compare(context.Background(), "alice", "alice", "whatever")
	assert.True(t, errors.Is(err, ErrSameUser))
}

func TestCompareRejectsUserWithoutPosts(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	seedUser(t, db, 1, "alice", []string{"alice one"})
	require.Nil(t, db.Create(&model.User{Id: 3, Username: "mallory"}).Error)
	service := NewService(db, testEmbedder)

	_, err := service.Compare(context.Background(), "alice", "mallory", "whatever")
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = service.Compare(context.Background(), "mallory", "alice", "whatever")
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestCompareUnknownUser(t *testing.T) {
	service := newTestService(t)

	_, err := service.Compare(context.Background(), "alice", "nobody", "whatever")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair("bob", "alice")
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)

	a, b = CanonicalPair("alice", "bob")
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)
}
