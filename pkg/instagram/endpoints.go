package instagram

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the host serving the private API
	DefaultBaseURL = "https://i.instagram.com"

	apiPrefix = "/api/v1"

	loginEndpoint          = apiPrefix + "/accounts/login/"
	twoFactorLoginEndpoint = apiPrefix + "/accounts/two_factor_login/"
	logoutEndpoint         = apiPrefix + "/accounts/logout/"
)

// mediaPath builds /api/v1/media/{id}/{action}/
func mediaPath(mediaID, action string) string {
	return fmt.Sprintf("%s/media/%s/%s/", apiPrefix, url.PathEscape(mediaID), action)
}

func mediaInfoPath(mediaID string) string {
	return mediaPath(mediaID, "info")
}

func mediaLikersPath(mediaID string) string {
	return mediaPath(mediaID, "likers")
}

func mediaCommentsPath(mediaID string) string {
	return mediaPath(mediaID, "comments")
}

func postCommentPath(mediaID string) string {
	return mediaPath(mediaID, "comment")
}

func deleteCommentPath(mediaID, commentID string) string {
	return fmt.Sprintf("%s/media/%s/comment/%s/delete/", apiPrefix, url.PathEscape(mediaID), url.PathEscape(commentID))
}

func userInfoPath(username string) string {
	return fmt.Sprintf("%s/users/%s/usernameinfo/", apiPrefix, url.PathEscape(username))
}

func userFeedPath(userPk int64) string {
	return fmt.Sprintf("%s/feed/user/%d/", apiPrefix, userPk)
}

// cursorQuery returns the max_id query for a page cursor, or nil for the
// first page
func cursorQuery(cursor string) url.Values {
	if cursor == "" {
		return nil
	}
	return url.Values{"max_id": {cursor}}
}
