package main

import (
	"net/http"
	"os"
	"time"

	"github.com/Luismorlan/birdbrain/classify"
	"github.com/Luismorlan/birdbrain/embedding"
	"github.com/Luismorlan/birdbrain/ingest"
	"github.com/Luismorlan/birdbrain/server"
	"github.com/Luismorlan/birdbrain/server/middlewares"
	"github.com/Luismorlan/birdbrain/twitter"
	"github.com/Luismorlan/birdbrain/utils"
	"github.com/Luismorlan/birdbrain/utils/dotenv"
	. "github.com/Luismorlan/birdbrain/utils/flag"
	. "github.com/Luismorlan/birdbrain/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const remoteTimeout = 10 * time.Second

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

	// Loading the word vector table is the one-time process-wide model
	// initialization. Without it neither sync nor compare can run.
	embedder, err := embedding.LoadWordVectors(os.Getenv("WORDVEC_PATH"))
	if err != nil {
		Log.Fatalf("fail to load word vectors: %v", err)
	}
	Log.Infof("loaded %d-dimensional word vectors", embedder.Dimension())

	var source twitter.Source
	if token := os.Getenv("TWITTER_BEARER_TOKEN"); token != "" {
		source = twitter.NewClient(&http.Client{Timeout: remoteTimeout}, token)
	} else {
		Log.Info("no bearer token configured, falling back to the scraper source")
		source = twitter.NewScraperSource()
	}

	engine := ingest.NewEngine(db, source, embedder)
	service := classify.NewService(db, embedder)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(middlewares.RequestId())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/users", server.ListUsersHandler(db))
	router.POST("/users/:username/sync", server.SyncUserHandler(engine))
	router.POST("/compare", server.CompareHandler(service))
	if IsDevelopment {
		router.POST("/reset", server.ResetHandler(db))
	}

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	Log.Info("api server starts up")
	router.Run(addr)
}
