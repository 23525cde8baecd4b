package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// MaxPostTextLength bounds the stored text, counted in code points so that
// emojis and CJK text are not cut mid-rune.
const MaxPostTextLength = 300

/*

Post is a single ingested tweet.

Id: primary key, the id assigned by Twitter
CreatedAt: time when entity is created
Text: tweet text in plain text, truncated to MaxPostTextLength code points
Embedding: JSON-encoded []float64 produced by the embedder at ingestion
time. Stored alongside the text so a comparison never has to re-embed
historical content.
UserID:
User: the account that authored the tweet, "belongs-to" relation. Deleting
a user cascades to its posts; a post never exists without its owner.

Posts are insert-only: once written they are never mutated or deleted
outside of the owner cascade.
*/
type Post struct {
	Id        int64 `gorm:"primaryKey"`
	CreatedAt time.Time
	Text      string
	Embedding datatypes.JSON
	UserID    int64
	User      User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// SetVector encodes vec into the Embedding column.
func (p *Post) SetVector(vec []float64) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	p.Embedding = datatypes.JSON(raw)
	return nil
}

// Vector decodes the Embedding column back into a float vector.
func (p *Post) Vector() ([]float64, error) {
	var vec []float64
	if err := json.Unmarshal(p.Embedding, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// TruncateText cuts text to at most MaxPostTextLength code points.
func TruncateText(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxPostTextLength {
		return text
	}
	return string(runes[:MaxPostTextLength])
}
