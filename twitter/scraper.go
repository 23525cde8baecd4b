package twitter

import (
	"context"
	"strconv"
	"strings"
	"sync"

	twitterscraper "github.com/n0madic/twitter-scraper"
	"github.com/pkg/errors"
)

// ScraperSource implements Source on top of the public web frontend, for
// running without API credentials. Unlike the API, the scraper cannot apply
// a since cursor remotely, so the cursor is enforced here before tweets
// reach the caller; already-ingested content is refetched but never
// returned.
type ScraperSource struct {
	scraper *twitterscraper.Scraper

	// Cache the profile result to avoid fetching static profile information
	// multiple times, which can introduce extreme latency. Also serves as the
	// id -> username reverse lookup GetTimeline needs, since the scraper is
	// addressed by username.
	mu        sync.Mutex
	profiles  map[string]*Profile
	usernames map[int64]string
}

func NewScraperSource() *ScraperSource {
	return &ScraperSource{
		scraper:   twitterscraper.New(),
		profiles:  make(map[string]*Profile),
		usernames: make(map[int64]string),
	}
}

func (s *ScraperSource) GetUser(ctx context.Context, username string) (*Profile, error) {
	s.mu.Lock()
	cached, ok := s.profiles[username]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	raw, err := s.scraper.GetProfile(username)
	if err != nil {
		return nil, scrapeProfileError(username, err)
	}
	id, err := strconv.ParseInt(raw.UserID, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed scraped user id %q", raw.UserID)
	}

	profile := &Profile{ID: id, Username: raw.Username}
	s.mu.Lock()
	s.profiles[username] = profile
	s.usernames[id] = raw.Username
	s.mu.Unlock()
	return profile, nil
}

// scrapeProfileError classifies a profile scrape failure the same way the
// API client's status mapping does: only a missing account is ErrNotFound,
// anything else (transport failures, throttling pages) is transient.
func scrapeProfileError(username string, err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "not found") {
		return errors.Wrapf(ErrNotFound, "fail to scrape profile %s: %v", username, err)
	}
	return errors.Wrapf(ErrUnavailable, "fail to scrape profile %s: %v", username, err)
}

func (s *ScraperSource) GetTimeline(ctx context.Context, userID int64, sinceID *int64, limit int) ([]Tweet, error) {
	s.mu.Lock()
	username, ok := s.usernames[userID]
	s.mu.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown user id %d: resolve the profile first", userID)
	}

	var tweets []Tweet
	for res := range s.scraper.GetTweets(ctx, username, limit) {
		if res.Error != nil {
			return nil, errors.Wrapf(ErrUnavailable, "fail to scrape tweets of %s: %v", username, res.Error)
		}
		if res.IsRetweet || res.IsReply {
			continue
		}
		id, err := strconv.ParseInt(res.ID, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed scraped tweet id %q", res.ID)
		}
		// Tweets arrive newest first, so everything from here on is already
		// ingested.
		if sinceID != nil && id <= *sinceID {
			break
		}
		tweets = append(tweets, Tweet{ID: id, Text: RemoveTwitterLink(res.Text)})
		if len(tweets) == limit {
			break
		}
	}
	return tweets, nil
}
