package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://store.steampowered.com"

// startCursor is the sentinel value that requests the first page.
const startCursor = "*"

// RawReview is one review payload as returned by the appreviews API.
type RawReview struct {
	RecommendationID string
	Language         string
	Text             string
	CreatedAt        time.Time
	VotedUp          bool
	VotesUp          int64
	WeightedScore    float64
}

// Client fetches reviews from the Steam appreviews API, one cursor-chained
// page at a time.
type Client struct {
	baseURL  string
	client   *http.Client
	language string
	filter   string
	pageSize int
	delay    time.Duration
}

// NewClient creates a Steam review client. pageSize is capped at the API
// maximum of 100.
func NewClient(language, filter string, pageSize int, delay time.Duration) *Client {
	if pageSize > 100 {
		pageSize = 100
	}
	if pageSize < 1 {
		pageSize = 100
	}
	return &Client{
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		language: language,
		filter:   filter,
		pageSize: pageSize,
		delay:    delay,
	}
}

// FetchReviews accumulates up to target recent reviews for an app. The cursor
// makes pages a chained dependency, so fetching is strictly sequential. Any
// failure mid-way (transport, decode, success=0) ends the fetch for this app
// and returns what was accumulated so far; a short result is the complete
// available set, not an error.
func (c *Client) FetchReviews(ctx context.Context, appID int64, target int) []RawReview {
	var accumulated []RawReview
	cursor := startCursor

	for len(accumulated) < target {
		if len(accumulated) > 0 {
			if !c.pause(ctx) {
				break
			}
		}

		reviews, nextCursor, err := c.fetchPage(ctx, appID, cursor)
		if err != nil {
			log.Printf("Steam fetch for app %d stopped after %d reviews: %v", appID, len(accumulated), err)
			break
		}
		if len(reviews) == 0 {
			break
		}

		accumulated = append(accumulated, reviews...)

		// Steam signals exhaustion by repeating the cursor.
		if nextCursor == "" || nextCursor == cursor {
			break
		}
		cursor = nextCursor
	}

	// Pages only round up to page boundaries; trim any overshoot.
	if len(accumulated) > target {
		accumulated = accumulated[:target]
	}

	log.Printf("Fetched %d reviews for app %d", len(accumulated), appID)
	return accumulated
}

// pause waits the configured inter-request delay, honoring cancellation.
func (c *Client) pause(ctx context.Context) bool {
	if c.delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(c.delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) fetchPage(ctx context.Context, appID int64, cursor string) ([]RawReview, string, error) {
	params := url.Values{
		"json":          {"1"},
		"language":      {c.language},
		"filter":        {c.filter},
		"num_per_page":  {fmt.Sprintf("%d", c.pageSize)},
		"purchase_type": {"all"},
		"cursor":        {cursor},
	}
	reqURL := fmt.Sprintf("%s/appreviews/%d?%s", c.baseURL, appID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var page struct {
		Success int `json:"success"`
		Reviews []struct {
			RecommendationID string      `json:"recommendationid"`
			Language         string      `json:"language"`
			Review           string      `json:"review"`
			TimestampCreated int64       `json:"timestamp_created"`
			VotedUp          bool        `json:"voted_up"`
			VotesUp          int64       `json:"votes_up"`
			WeightedScore    json.Number `json:"weighted_vote_score"`
		} `json:"reviews"`
		Cursor string `json:"cursor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("decoding page: %w", err)
	}

	// success=0 means the API refused the query; treat it like an empty page.
	if page.Success != 1 {
		return nil, "", nil
	}

	reviews := make([]RawReview, 0, len(page.Reviews))
	for _, r := range page.Reviews {
		if r.RecommendationID == "" {
			continue
		}
		// Steam sends weighted_vote_score as a string on some endpoints.
		weighted, _ := r.WeightedScore.Float64()
		reviews = append(reviews, RawReview{
			RecommendationID: r.RecommendationID,
			Language:         r.Language,
			Text:             r.Review,
			CreatedAt:        time.Unix(r.TimestampCreated, 0).UTC(),
			VotedUp:          r.VotedUp,
			VotesUp:          r.VotesUp,
			WeightedScore:    weighted,
		})
	}
	return reviews, page.Cursor, nil
}
