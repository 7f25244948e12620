package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
)

// fetchAll walks every page of a list endpoint and returns the complete
// result set. Each page request passes through the rate limiter and the
// retry policy; a retryable failure re-enters the page fetch after the
// policy's delay, and an exhausted retry budget fails the whole walk. The
// sequence reflects a single fetch; a deadline abort discards everything
// accumulated so far.
//
// Two pagination modes are recognized from response metadata. When the
// server emits X-Next-Page headers the walk is header driven: the absence of
// a next page on a response, empty or not, is the explicit end signal, and
// records are deduplicated by identity in case a page boundary shifted
// mid-walk. Without header signals the walk falls back to offset semantics,
// where an empty or shrunken page arriving before the advertised total is a
// fatal inconsistency rather than a silent truncation.
func (c *Client) fetchAll(ctx context.Context, resource, path string, query url.Values) ([]json.RawMessage, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", fmt.Sprintf("%d", c.perPage))

	var (
		records      []json.RawMessage
		seen         = make(map[string]struct{})
		page         = 1
		headerDriven bool
		reportedPer  int
	)

	for {
		query.Set("page", fmt.Sprintf("%d", page))

		var items []json.RawMessage
		var info pageInfo
		err := c.withRetry(ctx, resource, func() error {
			items = nil
			var attemptErr error
			info, attemptErr = c.doAttempt(ctx, path, query, &items)
			return attemptErr
		})
		if err != nil {
			return nil, err
		}

		if info.NextPage > 0 {
			headerDriven = true
		}

		if len(items) == 0 {
			if info.NextPage > 0 {
				// A page that is empty yet claims a successor cannot be
				// reconciled with a single point-in-time view.
				return nil, apperrors.NewPaginationError(resource, page, "empty page claims a next page")
			}
			if !headerDriven && info.TotalPages > 0 && page < info.TotalPages {
				return nil, apperrors.NewPaginationError(resource, page,
					fmt.Sprintf("empty page before advertised total of %d", info.TotalPages))
			}
			break
		}

		if info.PerPage > 0 {
			if reportedPer == 0 {
				reportedPer = info.PerPage
			} else if info.PerPage != reportedPer && !headerDriven {
				return nil, apperrors.NewPaginationError(resource, page,
					fmt.Sprintf("page size changed from %d to %d mid-sequence", reportedPer, info.PerPage))
			}
		}
		if !headerDriven && info.TotalPages > 0 && page < info.TotalPages && len(items) < c.perPage {
			return nil, apperrors.NewPaginationError(resource, page,
				fmt.Sprintf("short page of %d records before advertised total of %d", len(items), info.TotalPages))
		}

		for _, item := range items {
			id := recordIdentity(item)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			records = append(records, item)
		}

		if info.NextPage > 0 {
			page = info.NextPage
			continue
		}
		if headerDriven {
			// Header mode with no next page: explicit end of the sequence.
			break
		}
		if info.TotalPages > 0 && page >= info.TotalPages {
			break
		}
		if len(items) < c.perPage {
			break
		}
		page++
	}

	c.logger.WithFields(logrus.Fields{
		"resource": resource,
		"records":  len(records),
		"pages":    page,
	}).Debug("Completed paginated fetch")

	return records, nil
}

// recordIdentity extracts a stable identity for deduplication. List records
// carry an id field (a SHA for commits, an integer elsewhere); records
// without one fall back to their full body.
func recordIdentity(raw json.RawMessage) string {
	var envelope struct {
		ID interface{} `json:"id"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.ID != nil {
		return fmt.Sprint(envelope.ID)
	}
	return string(raw)
}
