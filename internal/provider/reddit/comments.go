package reddit

import (
	"bytes"
	"encoding/json"
)

func isRemoved(body string) bool {
	return body == "[deleted]" || body == "[removed]"
}

func branchCap(depth int) int {
	switch depth {
	case 0:
		return MaxTopLevel
	case 1:
		return MaxRepliesDepthOne
	default:
		return MaxRepliesDeeper
	}
}

// parseComments walks children depth-first and returns the kept comments and
// the budget left for the caller's remaining siblings.
func parseComments(children []child, depth, budget int) ([]Comment, int) {
	if depth >= MaxCommentDepth || budget <= 0 {
		return nil, budget
	}

	limit := branchCap(depth)
	var out []Comment
	for _, ch := range children {
		if len(out) >= limit || budget <= 0 {
			break
		}
		if ch.Kind != "t1" {
			continue
		}
		var d commentData
		if err := json.Unmarshal(ch.Data, &d); err != nil {
			continue
		}
		if isRemoved(d.Body) {
			continue
		}

		budget--
		c := Comment{Author: d.Author, Body: d.Body, Score: d.Score, Depth: depth}
		if replies := decodeReplies(d.Replies); len(replies) > 0 {
			c.Replies, budget = parseComments(replies, depth+1, budget)
		}
		out = append(out, c)
	}
	return out, budget
}

func decodeReplies(raw json.RawMessage) []child {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil
	}
	return l.Data.Children
}
