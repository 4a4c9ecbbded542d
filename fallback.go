package xboard

import (
	"time"

	"xboard/models"
)

// Same shape as created_at on X API posts.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

var sampleProfiles = map[string]models.TweetUser{
	"elonmusk": {
		ID:              "44196397",
		Username:        "elonmusk",
		Name:            "Elon Musk",
		ProfileImageURL: "https://pbs.twimg.com/profile_images/1683325380441128960/yRsRRjGO_normal.jpg",
	},
	"twitter": {
		ID:              "783214",
		Username:        "twitter",
		Name:            "Twitter",
		ProfileImageURL: "https://pbs.twimg.com/profile_images/1488548719062654976/u6qfBBkF_normal.jpg",
	},
}

// Sample tweets, newest first. age is subtracted from the serving time.
var sampleTweets = []struct {
	id      string
	handle  string
	text    string
	age     time.Duration
	metrics models.TweetMetrics
}{
	{"1", "elonmusk", "Excited to announce our new AI features! The future of technology is here. #AI #Innovation", 0, models.TweetMetrics{RetweetCount: 15420, LikeCount: 89532, ReplyCount: 3241}},
	{"2", "twitter", "Working on making the internet a better place for everyone 🌍 #OpenSource #WebDevelopment", 1 * time.Hour, models.TweetMetrics{RetweetCount: 8934, LikeCount: 45621, ReplyCount: 1820}},
	{"3", "elonmusk", "Beautiful morning! Time to build something amazing 🚀 #MondayMotivation #Startup", 2 * time.Hour, models.TweetMetrics{RetweetCount: 2341, LikeCount: 12890, ReplyCount: 567}},
	{"4", "twitter", "Thrilled to see developers building amazing things with our API! Keep innovating 💡 #DeveloperCommunity", 3 * time.Hour, models.TweetMetrics{RetweetCount: 5632, LikeCount: 23145, ReplyCount: 891}},
}

// FallbackTweets returns the first limit sample tweets, stamped relative to now.
// The set is never padded beyond its fixed size.
func FallbackTweets(limit int, now time.Time) []models.Tweet {
	if limit <= 0 {
		return []models.Tweet{}
	}
	n := min(limit, len(sampleTweets))

	tweets := make([]models.Tweet, 0, n)
	for _, s := range sampleTweets[:n] {
		metrics := s.metrics
		tweets = append(tweets, models.Tweet{
			ID:        s.id,
			Text:      s.text,
			CreatedAt: now.Add(-s.age).UTC().Format(createdAtLayout),
			User:      sampleProfiles[s.handle],
			Metrics:   &metrics,
		})
	}
	return tweets
}
