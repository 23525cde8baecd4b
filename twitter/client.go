package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultApiBase   = `https://api.twitter.com`
	ShowUserPath     = `/1.1/users/show.json`
	UserTimelinePath = `/1.1/statuses/user_timeline.json`
)

// Client is a thin wrapper upon http.Client to make requests to the Twitter
// v1.1 REST API. The injected http.Client's timeout bounds every remote
// call.
type Client struct {
	client *http.Client

	// Bearer token used to actually make Twitter request
	bearerToken string

	apiBase string
}

func NewClient(client *http.Client, bearerToken string) *Client {
	return &Client{
		client:      client,
		bearerToken: bearerToken,
		apiBase:     DefaultApiBase,
	}
}

type showUserResponse struct {
	Id         int64  `json:"id"`
	ScreenName string `json:"screen_name"`
}

type timelineTweet struct {
	Id       int64  `json:"id"`
	FullText string `json:"full_text"`
}

// GetUser resolves a screen name to its numeric identity.
func (t *Client) GetUser(ctx context.Context, username string) (*Profile, error) {
	params := url.Values{}
	params.Set("screen_name", username)

	body, err := t.get(ctx, ShowUserPath, params)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to look up user %s", username)
	}

	res := &showUserResponse{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, errors.Wrap(err, "fail to parse show user response")
	}
	return &Profile{ID: res.Id, Username: res.ScreenName}, nil
}

// GetTimeline fetches up to limit original tweets authored by the user,
// newest first. Replies and retweets are excluded remotely, and so are all
// tweets with id <= sinceID when sinceID is non-nil.
func (t *Client) GetTimeline(ctx context.Context, userID int64, sinceID *int64, limit int) ([]Tweet, error) {
	params := url.Values{}
	params.Set("user_id", fmt.Sprint(userID))
	params.Set("count", fmt.Sprint(limit))
	params.Set("exclude_replies", "true")
	params.Set("include_rts", "false")
	params.Set("tweet_mode", "extended")
	params.Set("trim_user", "true")
	if sinceID != nil {
		params.Set("since_id", fmt.Sprint(*sinceID))
	}

	body, err := t.get(ctx, UserTimelinePath, params)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to fetch timeline for user %d", userID)
	}

	var raw []timelineTweet
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrap(err, "fail to parse user timeline response")
	}

	tweets := make([]Tweet, 0, len(raw))
	for _, tweet := range raw {
		tweets = append(tweets, Tweet{ID: tweet.Id, Text: RemoveTwitterLink(tweet.FullText)})
	}
	return tweets, nil
}

func (t *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", t.apiBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	// add authorization header to the req
	req.Header.Add("Authorization", "Bearer "+t.bearerToken)

	res, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer res.Body.Close()

	if err := statusToError(res.StatusCode); err != nil {
		return nil, err
	}

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	return body, nil
}

// statusToError maps a Twitter response status to one of the typed source
// errors. 420 is Twitter's legacy enhance-your-calm throttling status.
func statusToError(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == 420 || status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrUnavailable
	default:
		return errors.Errorf("unexpected twitter response status %d", status)
	}
}

var twitterLinkRegex = regexp.MustCompile(`https:\/\/t.co\/[A-Za-z0-9]*`)

// Sometimes Twitter content would return links directly in text, in which
// case we want to remove.
// e.g. "https://t.co/sIGZPDyx76"
func RemoveTwitterLink(content string) string {
	linkRemoved := twitterLinkRegex.ReplaceAllString(content, "")
	return strings.TrimSpace(strings.ReplaceAll(linkRemoved, "  ", " "))
}
