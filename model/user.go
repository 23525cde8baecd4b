package model

import "time"

/*

User is a tracked Twitter account whose timeline we ingest.

Id: primary key, the numeric id assigned by Twitter. We key on the external
id instead of the screen name because the remote service is the source of
truth for identity.
CreatedAt: time when entity is created
Username: screen name observed at sync time, unique in practice
NewestPostId: high-water mark, id of the most recent successfully ingested
post. Nil before the first sync stores anything. Timeline fetches pass it
as the since cursor so already-ingested posts are never refetched.
*/
type User struct {
	Id           int64 `gorm:"primaryKey"`
	CreatedAt    time.Time
	Username     string `gorm:"uniqueIndex"`
	NewestPostId *int64
}
