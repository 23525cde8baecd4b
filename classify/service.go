package classify

import (
	"context"

	"github.com/Luismorlan/birdbrain/embedding"
	"github.com/Luismorlan/birdbrain/model"
	Logger "github.com/Luismorlan/birdbrain/utils/log"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gorm.io/gorm"
)

var (
	// ErrSameUser indicates a comparison of a user against itself.
	ErrSameUser = errors.New("classify: cannot compare a user to itself")
	// ErrInsufficientData indicates one of the compared users has no stored
	// posts to train on.
	ErrInsufficientData = errors.New("classify: user has no stored posts")
)

// Service answers which of two ingested users more plausibly wrote a given
// text. Every call trains a fresh model from the stored embeddings: nothing
// is cached across calls, so each answer is reproducible from the store
// alone.
type Service struct {
	db       *gorm.DB
	embedder embedding.Embedder
}

func NewService(db *gorm.DB, embedder embedding.Embedder) *Service {
	return &Service{db: db, embedder: embedder}
}

// Compare returns 0 when text reads more like the lexicographically smaller
// of the two usernames, 1 for the larger. Argument order never affects which
// username a label designates. Use Winner to map the label back to a name.
func (s *Service) Compare(ctx context.Context, userA, userB, text string) (int, error) {
	if userA == userB {
		return 0, errors.Wrapf(ErrSameUser, "got %s twice", userA)
	}
	userA, userB = CanonicalPair(userA, userB)

	vecsA, err := s.loadVectors(ctx, userA)
	if err != nil {
		return 0, err
	}
	vecsB, err := s.loadVectors(ctx, userB)
	if err != nil {
		return 0, err
	}

	dim := s.embedder.Dimension()
	n := len(vecsA) + len(vecsB)
	X := mat.NewDense(n, dim, nil)
	y := make([]float64, n)
	for i, vec := range vecsA {
		X.SetRow(i, vec)
	}
	for i, vec := range vecsB {
		X.SetRow(len(vecsA)+i, vec)
		y[len(vecsA)+i] = 1
	}

	lr := FitLogistic(X, y)

	queryVec, err := s.embedder.Embed(text)
	if err != nil {
		return 0, errors.Wrap(err, "fail to embed query text")
	}

	label := lr.Predict(queryVec)
	Logger.Log.Infof("compared %s (0) vs %s (1) on %d examples: label %d",
		userA, userB, n, label)
	return label, nil
}

// Winner maps a Compare label back to the username it designates.
func Winner(userA, userB string, label int) string {
	userA, userB = CanonicalPair(userA, userB)
	if label == 1 {
		return userB
	}
	return userA
}

// CanonicalPair sorts the two usernames lexicographically so label 0 always
// means the smaller one, regardless of the caller's argument order.
func CanonicalPair(userA, userB string) (string, string) {
	if userB < userA {
		return userB, userA
	}
	return userA, userB
}

func (s *Service) loadVectors(ctx context.Context, username string) ([][]float64, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, errors.Wrapf(err, "fail to look up user %s", username)
	}

	var posts []model.Post
	if err := s.db.WithContext(ctx).Find(&posts, "user_id = ?", user.Id).Error; err != nil {
		return nil, errors.Wrapf(err, "fail to load posts of user %s", username)
	}
	if len(posts) == 0 {
		return nil, errors.Wrapf(ErrInsufficientData, "user %s", username)
	}

	dim := s.embedder.Dimension()
	vecs := make([][]float64, 0, len(posts))
	for _, post := range posts {
		vec, err := post.Vector()
		if err != nil {
			return nil, errors.Wrapf(err, "fail to decode embedding of post %d", post.Id)
		}
		if len(vec) != dim {
			return nil, errors.Errorf(
				"stored embedding of post %d has dimension %d, embedder produces %d",
				post.Id, len(vec), dim)
		}
		vecs = append(vecs, vec)
	}
	return vecs, nil
}
