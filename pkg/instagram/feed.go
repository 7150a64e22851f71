package instagram

import (
	"context"
	"net/http"
	"strings"

	errs "igclient/pkg/errors"
	"igclient/pkg/pagination"
	"igclient/pkg/result"
)

// pageLimit resolves a caller supplied page bound, falling back to the
// client default
func (c *Client) pageLimit(maxPages int) int {
	if maxPages <= 0 {
		return c.maxPages
	}
	return maxPages
}

// GetMediaLikers returns the users who liked a media item, each at most once.
// At most the configured number of pages is fetched.
func (c *Client) GetMediaLikers(ctx context.Context, mediaID string) result.Result[[]User] {
	if err := c.precheck("GetMediaLikers", argument{"media id", mediaID}); err != nil {
		return result.Fail[[]User](err)
	}

	pager := pagination.New(func(ctx context.Context, cursor string) (pagination.Page[User], error) {
		var resp likersResponse
		if err := c.call(ctx, get(mediaLikersPath(mediaID), cursorQuery(cursor)), &resp); err != nil {
			return pagination.Page[User]{}, err
		}
		return pagination.Page[User]{Items: resp.Users, NextCursor: resp.NextMaxID}, nil
	}, "", c.maxPages)

	likers, _, err := pagination.Collect(ctx, pager, func(u User) int64 { return u.Pk })
	if err != nil {
		c.logger.ErrorWithFields("failed to fetch likers", map[string]interface{}{
			"media_id": mediaID,
			"pages":    pager.PagesFetched(),
			"error":    err.Error(),
		})
		return result.Fail[[]User](err)
	}

	c.logger.DebugWithFields("fetched likers", map[string]interface{}{
		"media_id": mediaID,
		"count":    len(likers),
		"pages":    pager.PagesFetched(),
	})
	return result.Success(likers)
}

// GetMediaComments returns the comments of a media item starting at
// startCursor, each at most once. maxPages <= 0 uses the client default.
// The returned page carries the cursor to resume from.
func (c *Client) GetMediaComments(ctx context.Context, mediaID, startCursor string, maxPages int) result.Result[*CommentPage] {
	if err := c.precheck("GetMediaComments", argument{"media id", mediaID}); err != nil {
		return result.Fail[*CommentPage](err)
	}

	var total int
	pager := pagination.New(func(ctx context.Context, cursor string) (pagination.Page[Comment], error) {
		var resp commentsResponse
		if err := c.call(ctx, get(mediaCommentsPath(mediaID), cursorQuery(cursor)), &resp); err != nil {
			return pagination.Page[Comment]{}, err
		}

		total = resp.CommentCount
		page := pagination.Page[Comment]{Items: make([]Comment, 0, len(resp.Comments))}
		for _, node := range resp.Comments {
			page.Items = append(page.Items, node.toComment())
		}
		if resp.HasMoreComments {
			page.NextCursor = resp.NextMaxID
		}
		return page, nil
	}, startCursor, c.pageLimit(maxPages))

	comments, next, err := pagination.Collect(ctx, pager, func(cm Comment) int64 { return cm.Pk })
	if err != nil {
		c.logger.ErrorWithFields("failed to fetch comments", map[string]interface{}{
			"media_id": mediaID,
			"pages":    pager.PagesFetched(),
			"error":    err.Error(),
		})
		return result.Fail[*CommentPage](err)
	}

	c.logger.DebugWithFields("fetched comments", map[string]interface{}{
		"media_id":    mediaID,
		"count":       len(comments),
		"pages":       pager.PagesFetched(),
		"next_cursor": next,
	})
	return result.Success(&CommentPage{
		Comments:     comments,
		NextCursor:   next,
		CommentCount: total,
	})
}

// GetUserMedia returns the media owned by username, newest first, each at
// most once. maxPages <= 0 uses the client default. Resolving the username
// is not counted as a page.
func (c *Client) GetUserMedia(ctx context.Context, username string, maxPages int) result.Result[[]MediaItem] {
	if err := c.precheck("GetUserMedia", argument{"username", username}); err != nil {
		return result.Fail[[]MediaItem](err)
	}

	owner, err := c.lookupUser(ctx, username)
	if err != nil {
		return result.Fail[[]MediaItem](err)
	}

	dropped := 0
	pager := pagination.New(func(ctx context.Context, cursor string) (pagination.Page[MediaItem], error) {
		var resp userFeedResponse
		if err := c.call(ctx, get(userFeedPath(owner.Pk), cursorQuery(cursor)), &resp); err != nil {
			return pagination.Page[MediaItem]{}, err
		}

		page := pagination.Page[MediaItem]{Items: make([]MediaItem, 0, len(resp.Items))}
		for _, node := range resp.Items {
			item := node.toMediaItem()
			if item.User.Username == "" {
				item.User = *owner
			}
			if !strings.EqualFold(item.User.Username, owner.Username) {
				c.logger.WarnWithFields("dropping media owned by another user", map[string]interface{}{
					"username": username,
					"owner":    item.User.Username,
					"code":     item.Code,
				})
				dropped++
				continue
			}
			item.User.Username = username
			page.Items = append(page.Items, item)
		}
		if resp.MoreAvailable {
			page.NextCursor = resp.NextMaxID
		}
		return page, nil
	}, "", c.pageLimit(maxPages))

	items, _, err := pagination.Collect(ctx, pager, func(m MediaItem) string { return m.Code })
	if err != nil {
		c.logger.ErrorWithFields("failed to fetch user media", map[string]interface{}{
			"username": username,
			"pages":    pager.PagesFetched(),
			"error":    err.Error(),
		})
		return result.Fail[[]MediaItem](err)
	}

	c.logger.DebugWithFields("fetched user media", map[string]interface{}{
		"username": username,
		"count":    len(items),
		"dropped":  dropped,
		"pages":    pager.PagesFetched(),
	})
	return result.Success(items)
}

func (c *Client) lookupUser(ctx context.Context, username string) (*User, error) {
	var resp userInfoResponse
	if err := c.call(ctx, get(userInfoPath(username), nil), &resp); err != nil {
		c.logger.ErrorWithFields("failed to resolve user", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return nil, err
	}
	if resp.User == nil || resp.User.Pk == 0 {
		return nil, errs.RemoteRejected(http.StatusNotFound, errs.ReasonNotFound, "user not found")
	}
	if resp.User.Username == "" {
		resp.User.Username = username
	}
	return resp.User, nil
}
