// Package ratemyprof provides a client for the Rate My Professors GraphQL API.
package ratemyprof

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://www.ratemyprofessors.com/graphql"
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
	defaultReferer = "https://www.ratemyprofessors.com/"
)

const teacherSearchQuery = `query TeacherSearchPaginationQuery($count: Int!, $cursor: String, $query: TeacherSearchQuery!) {
  search: newSearch {
    teachers(query: $query, first: $count, after: $cursor) {
      edges {
        node {
          firstName
          lastName
          id
          department
          avgRating
          avgDifficulty
          numRatings
          wouldTakeAgainPercent
          school { name }
        }
      }
    }
  }
}`

const ratingsListQuery = `query RatingsListQuery($count: Int!, $id: ID!, $courseFilter: String, $cursor: String) {
  node(id: $id) {
    __typename
    ... on Teacher {
      ratings(first: $count, after: $cursor, courseFilter: $courseFilter) {
        edges {
          node {
            comment
            ratingTags
            class
            date
          }
        }
      }
    }
  }
}`

// Client defines the Rate My Professors operations.
type Client interface {
	// SearchTeachers returns the teachers matching text at the configured school.
	SearchTeachers(ctx context.Context, text string) ([]Teacher, error)
	// Ratings returns the most recent ratings for a teacher ID.
	Ratings(ctx context.Context, teacherID string) ([]Rating, error)
}

// Teacher is one search result.
type Teacher struct {
	ID                    string  `json:"id"`
	FirstName             string  `json:"firstName"`
	LastName              string  `json:"lastName"`
	Department            string  `json:"department"`
	AvgRating             float64 `json:"avgRating"`
	AvgDifficulty         float64 `json:"avgDifficulty"`
	NumRatings            int     `json:"numRatings"`
	WouldTakeAgainPercent float64 `json:"wouldTakeAgainPercent"`
	School                School  `json:"school"`
}

// School identifies a teacher's school.
type School struct {
	Name string `json:"name"`
}

// Rating is one student rating.
type Rating struct {
	Comment    string `json:"comment"`
	RatingTags string `json:"ratingTags"`
	Class      string `json:"class"`
	Date       string `json:"date"`
}

// Tags splits the "--"-joined rating tags.
func (r Rating) Tags() []string {
	var tags []string
	for _, t := range strings.Split(r.RatingTags, "--") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type searchResponse struct {
	Data struct {
		Search struct {
			Teachers struct {
				Edges []struct {
					Node Teacher `json:"node"`
				} `json:"edges"`
			} `json:"teachers"`
		} `json:"search"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type ratingsResponse struct {
	Data struct {
		Node *struct {
			Ratings struct {
				Edges []struct {
					Node Rating `json:"node"`
				} `json:"edges"`
			} `json:"ratings"`
		} `json:"node"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the GraphQL endpoint (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithSearchCount sets how many search results are requested.
func WithSearchCount(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.searchCount = n
		}
	}
}

// WithCommentCount sets how many ratings are requested per teacher.
func WithCommentCount(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.commentCount = n
		}
	}
}

// WithRateLimit overrides the default request rate (4 req/s). A
// non-positive rps disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	schoolID     string
	baseURL      string
	searchCount  int
	commentCount int
	http         *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a client scoped to one school ID.
func NewClient(schoolID string, opts ...Option) Client {
	c := &httpClient{
		schoolID:     schoolID,
		baseURL:      defaultBaseURL,
		searchCount:  10,
		commentCount: 50,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(4, 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchTeachers(ctx context.Context, text string) ([]Teacher, error) {
	var resp searchResponse
	err := c.do(ctx, graphQLRequest{
		Query: teacherSearchQuery,
		Variables: map[string]any{
			"count":  c.searchCount,
			"cursor": nil,
			"query": map[string]any{
				"text":     text,
				"schoolID": c.schoolID,
				"fallback": true,
			},
		},
	}, &resp)
	if err != nil {
		return nil, eris.Wrap(err, "ratemyprof: search teachers")
	}
	if len(resp.Errors) > 0 {
		return nil, eris.Errorf("ratemyprof: search teachers: %s", resp.Errors[0].Message)
	}

	edges := resp.Data.Search.Teachers.Edges
	teachers := make([]Teacher, 0, len(edges))
	for _, e := range edges {
		teachers = append(teachers, e.Node)
	}
	return teachers, nil
}

func (c *httpClient) Ratings(ctx context.Context, teacherID string) ([]Rating, error) {
	var resp ratingsResponse
	err := c.do(ctx, graphQLRequest{
		Query: ratingsListQuery,
		Variables: map[string]any{
			"count":        c.commentCount,
			"id":           teacherID,
			"courseFilter": nil,
			"cursor":       nil,
		},
	}, &resp)
	if err != nil {
		return nil, eris.Wrapf(err, "ratemyprof: ratings for %s", teacherID)
	}
	if len(resp.Errors) > 0 {
		return nil, eris.Errorf("ratemyprof: ratings for %s: %s", teacherID, resp.Errors[0].Message)
	}
	if resp.Data.Node == nil {
		return nil, nil
	}

	edges := resp.Data.Node.Ratings.Edges
	ratings := make([]Rating, 0, len(edges))
	for _, e := range edges {
		ratings = append(ratings, e.Node)
	}
	return ratings, nil
}

func (c *httpClient) do(ctx context.Context, gql graphQLRequest, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}

	body, err := json.Marshal(gql)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Referer", defaultReferer)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
