// Seeds the content store with two demo users and a handful of posts, so
// the compare endpoint can be exercised locally without Twitter access.
package main

import (
	"os"

	"github.com/Luismorlan/birdbrain/embedding"
	"github.com/Luismorlan/birdbrain/model"
	"github.com/Luismorlan/birdbrain/utils"
	"github.com/Luismorlan/birdbrain/utils/dotenv"
	. "github.com/Luismorlan/birdbrain/utils/flag"
	. "github.com/Luismorlan/birdbrain/utils/log"
	"gorm.io/gorm"
)

type seedUser struct {
	id       int64
	username string
	posts    map[int64]string
}

var seedUsers = []seedUser{
	{
		id:       1,
		username: "ryan",
		posts: map[int64]string{
			101: "shipping the new release today, unit tests are all green",
			102: "spent the evening profiling the database layer",
			103: "code review culture is the best predictor of code quality",
		},
	},
	{
		id:       2,
		username: "julian",
		posts: map[int64]string{
			201: "sunrise hike this morning, the view was unreal",
			202: "tried a new ramen place downtown, absolutely worth it",
			203: "weekend plans: surfing and a very long nap",
		},
	},
}

func main() {
	Parse()
	InitLogger()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatalf("fail to connect to database: %v", err)
	}
	utils.DatabaseSetupAndMigration(db)

	embedder, err := embedding.LoadWordVectors(os.Getenv("WORDVEC_PATH"))
	if err != nil {
		Log.Fatalf("fail to load word vectors: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, seed := range seedUsers {
			user := model.User{Id: seed.id, Username: seed.username}
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
			for id, text := range seed.posts {
				post := model.Post{Id: id, Text: model.TruncateText(text), UserID: seed.id}
				vec, err := embedder.Embed(post.Text)
				if err != nil {
					return err
				}
				if err := post.SetVector(vec); err != nil {
					return err
				}
				if err := tx.Save(&post).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		Log.Fatalf("fail to seed database: %v", err)
	}
	Log.Infof("seeded %d users", len(seedUsers))
}
