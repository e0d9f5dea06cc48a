package reddit

import (
	"encoding/json"
	"time"
)

// Comment extraction limits.
const (
	MaxCommentDepth    = 3   // depths 0, 1 and 2 are kept
	MaxTopLevel        = 20  // comments at depth 0
	MaxRepliesDepthOne = 5   // replies per comment at depth 1
	MaxRepliesDeeper   = 2   // replies per comment at depth 2 and below
	MaxTotalComments   = 100 // across the whole tree
)

// Thread is a forum post with its pruned comment tree.
type Thread struct {
	Title       string
	Selftext    string
	Author      string
	Score       int
	NumComments int
	Subreddit   string
	CreatedAt   time.Time
	URL         string
	Comments    []Comment
}

// Comment is one node of the comment tree.
type Comment struct {
	Author  string
	Body    string
	Score   int
	Depth   int
	Replies []Comment
}

// CountComments returns the number of comments in the tree rooted at cs.
func CountComments(cs []Comment) int {
	n := 0
	for _, c := range cs {
		n += 1 + CountComments(c.Replies)
	}
	return n
}

// ThreadResult is the outcome of one fetch in FetchThreads.
type ThreadResult struct {
	URL    string
	Thread *Thread
	Err    error
}

// Wire shapes of the public JSON listing endpoint.

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []child `json:"children"`
	} `json:"data"`
}

type child struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
}

type commentData struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`

	// Replies is "" when there are none, otherwise a listing.
	Replies json.RawMessage `json:"replies"`
}
