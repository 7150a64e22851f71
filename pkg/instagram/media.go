package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	errs "igclient/pkg/errors"
	"igclient/pkg/result"
)

// GetMediaByID fetches one media item
func (c *Client) GetMediaByID(ctx context.Context, mediaID string) result.Result[*MediaItem] {
	if err := c.precheck("GetMediaByID", argument{"media id", mediaID}); err != nil {
		return result.Fail[*MediaItem](err)
	}

	c.logger.DebugWithFields("fetching media", map[string]interface{}{
		"media_id": mediaID,
	})

	var resp mediaInfoResponse
	if err := c.call(ctx, get(mediaInfoPath(mediaID), nil), &resp); err != nil {
		c.logger.ErrorWithFields("failed to fetch media", map[string]interface{}{
			"media_id": mediaID,
			"error":    err.Error(),
		})
		return result.Fail[*MediaItem](err)
	}
	if len(resp.Items) == 0 {
		return result.Fail[*MediaItem](errs.RemoteRejected(http.StatusNotFound, errs.ReasonNotFound, "media not found"))
	}

	item := resp.Items[0].toMediaItem()
	return result.Success(&item)
}

// CommentMedia posts a comment and returns it as stored by the API
func (c *Client) CommentMedia(ctx context.Context, mediaID, text string) result.Result[*Comment] {
	if err := c.precheck("CommentMedia", argument{"media id", mediaID}, argument{"comment text", text}); err != nil {
		return result.Fail[*Comment](err)
	}

	form := url.Values{
		"comment_text":      {text},
		"idempotence_token": {uuid.NewString()},
	}

	var resp commentResponse
	if err := c.call(ctx, post(postCommentPath(mediaID), form), &resp); err != nil {
		c.logger.ErrorWithFields("failed to post comment", map[string]interface{}{
			"media_id": mediaID,
			"error":    err.Error(),
		})
		return result.Fail[*Comment](err)
	}
	if resp.Comment == nil {
		return result.Fail[*Comment](&errs.Error{
			Type:    errs.ErrorTypeUnexpected,
			Message: "comment response did not include the comment",
			Code:    http.StatusOK,
			Reason:  errs.ReasonParsing,
		})
	}

	comment := resp.Comment.toComment()
	c.logger.InfoWithFields("comment posted", map[string]interface{}{
		"media_id":   mediaID,
		"comment_id": comment.Pk,
	})
	return result.Success(&comment)
}

// DeleteComment removes a comment from a media item
func (c *Client) DeleteComment(ctx context.Context, mediaID, commentID string) result.Result[bool] {
	if err := c.precheck("DeleteComment", argument{"media id", mediaID}, argument{"comment id", commentID}); err != nil {
		return result.Fail[bool](err)
	}

	if err := c.call(ctx, post(deleteCommentPath(mediaID, commentID), url.Values{}), nil); err != nil {
		c.logger.ErrorWithFields("failed to delete comment", map[string]interface{}{
			"media_id":   mediaID,
			"comment_id": commentID,
			"error":      err.Error(),
		})
		return result.Fail[bool](err)
	}

	c.logger.InfoWithFields("comment deleted", map[string]interface{}{
		"media_id":   mediaID,
		"comment_id": commentID,
	})
	return result.Success(true)
}

// DeleteMedia deletes a media item. Value reports whether the target existed:
// deleting a missing item succeeds with false. The API rejects a mediaType
// that does not match the item.
func (c *Client) DeleteMedia(ctx context.Context, mediaID string, mediaType MediaType) result.Result[bool] {
	if err := c.precheck("DeleteMedia", argument{"media id", mediaID}); err != nil {
		return result.Fail[bool](err)
	}

	req := post(mediaPath(mediaID, "delete"), url.Values{"media_id": {mediaID}})
	req.query = url.Values{"media_type": {mediaType.String()}}

	var resp deleteMediaResponse
	if err := c.call(ctx, req, &resp); err != nil {
		var apiErr *errs.Error
		if errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeRemoteRejected && apiErr.Code == http.StatusNotFound {
			c.logger.InfoWithFields("media to delete does not exist", map[string]interface{}{
				"media_id": mediaID,
			})
			return result.Success(false)
		}
		c.logger.ErrorWithFields("failed to delete media", map[string]interface{}{
			"media_id":   mediaID,
			"media_type": mediaType.String(),
			"error":      err.Error(),
		})
		return result.Fail[bool](err)
	}

	c.logger.InfoWithFields("media delete finished", map[string]interface{}{
		"media_id":   mediaID,
		"did_delete": resp.DidDelete,
	})
	return result.Success(resp.DidDelete)
}

// EditMedia replaces the caption of a media item
func (c *Client) EditMedia(ctx context.Context, mediaID, caption string) result.Result[bool] {
	if err := c.precheck("EditMedia", argument{"media id", mediaID}); err != nil {
		return result.Fail[bool](err)
	}

	form := url.Values{"caption_text": {caption}}
	err := c.call(ctx, post(mediaPath(mediaID, "edit_media"), form), nil)
	if err != nil {
		c.logger.ErrorWithFields("failed to edit media", map[string]interface{}{
			"media_id": mediaID,
			"error":    err.Error(),
		})
	}
	return result.From(err == nil, err)
}

// LikeMedia likes a media item
func (c *Client) LikeMedia(ctx context.Context, mediaID string) result.Result[bool] {
	return c.setLike(ctx, "LikeMedia", mediaID, "like")
}

// UnlikeMedia removes a like from a media item
func (c *Client) UnlikeMedia(ctx context.Context, mediaID string) result.Result[bool] {
	return c.setLike(ctx, "UnlikeMedia", mediaID, "unlike")
}

func (c *Client) setLike(ctx context.Context, operation, mediaID, action string) result.Result[bool] {
	if err := c.precheck(operation, argument{"media id", mediaID}); err != nil {
		return result.Fail[bool](err)
	}

	form := url.Values{"media_id": {mediaID}}
	err := c.call(ctx, post(mediaPath(mediaID, action), form), nil)
	if err != nil {
		c.logger.ErrorWithFields("failed to "+action+" media", map[string]interface{}{
			"media_id": mediaID,
			"error":    err.Error(),
		})
	}
	return result.From(err == nil, err)
}
