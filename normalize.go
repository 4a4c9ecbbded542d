package xboard

import "xboard/models"

const (
	unknownUsername = "unknown"
	unknownName     = "Unknown User"
)

// NormalizeTimeline maps a user timeline page to Tweets, keeping upstream order.
func NormalizeTimeline(resp TwitterResponse) []models.Tweet {
	tweets := make([]models.Tweet, 0, len(resp.Data))
	for _, t := range resp.Data {
		tweets = append(tweets, NormalizeTweet(t, resp.Includes.Users))
	}
	return tweets
}

// NormalizeTweet converts one upstream post. An author missing from users
// becomes a placeholder user, and metrics stay nil unless the post had them.
func NormalizeTweet(t TwitterTweet, users []TwitterUser) models.Tweet {
	user := models.TweetUser{
		ID:       t.AuthorID,
		Username: unknownUsername,
		Name:     unknownName,
	}
	for _, u := range users {
		if u.ID == t.AuthorID {
			user = models.TweetUser{
				ID:              u.ID,
				Username:        u.Username,
				Name:            u.Name,
				ProfileImageURL: u.ProfileImageURL,
			}
			break
		}
	}

	tweet := models.Tweet{
		ID:        t.ID,
		Text:      t.Text,
		CreatedAt: t.CreatedAt,
		User:      user,
	}
	if t.PublicMetrics != nil {
		tweet.Metrics = &models.TweetMetrics{
			RetweetCount: t.PublicMetrics.RetweetCount,
			LikeCount:    t.PublicMetrics.LikeCount,
			ReplyCount:   t.PublicMetrics.ReplyCount,
		}
	}
	return tweet
}
