package instagram

import (
	"strconv"
	"time"
)

// MediaType is the kind of a media item
type MediaType int

const (
	MediaTypeImage    MediaType = 1
	MediaTypeVideo    MediaType = 2
	MediaTypeCarousel MediaType = 8
)

// String returns the name the API expects for media_type parameters
func (t MediaType) String() string {
	switch t {
	case MediaTypeImage:
		return "PHOTO"
	case MediaTypeVideo:
		return "VIDEO"
	case MediaTypeCarousel:
		return "CAROUSEL"
	default:
		return "UNKNOWN"
	}
}

// ParseMediaType accepts the API names as well as the short forms used on
// the command line
func ParseMediaType(s string) (MediaType, bool) {
	switch s {
	case "PHOTO", "photo", "image":
		return MediaTypeImage, true
	case "VIDEO", "video":
		return MediaTypeVideo, true
	case "CAROUSEL", "carousel", "album":
		return MediaTypeCarousel, true
	default:
		return 0, false
	}
}

// User is an account as it appears in likers, comments and media owners
type User struct {
	Pk        int64  `json:"pk" yaml:"pk"`
	Username  string `json:"username" yaml:"username"`
	FullName  string `json:"full_name" yaml:"full_name"`
	IsPrivate bool   `json:"is_private" yaml:"is_private"`
}

// Liker is a user who liked a media item
type Liker = User

// MediaItem is a single post
type MediaItem struct {
	ID           string    `json:"id" yaml:"id"`
	Pk           int64     `json:"pk" yaml:"pk"`
	Code         string    `json:"code" yaml:"code"`
	User         User      `json:"user" yaml:"user"`
	MediaType    MediaType `json:"media_type" yaml:"media_type"`
	Caption      string    `json:"caption" yaml:"caption"`
	TakenAt      time.Time `json:"taken_at" yaml:"taken_at"`
	LikeCount    int       `json:"like_count" yaml:"like_count"`
	CommentCount int       `json:"comment_count" yaml:"comment_count"`
}

// Comment is a comment on a media item
type Comment struct {
	Pk        int64     `json:"pk" yaml:"pk"`
	Text      string    `json:"text" yaml:"text"`
	User      User      `json:"user" yaml:"user"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ID returns the comment identifier in the form DeleteComment takes
func (c Comment) ID() string {
	return strconv.FormatInt(c.Pk, 10)
}

// CommentPage is the result of a bounded comment listing. NextCursor is the
// cursor to resume from, empty when the listing was exhausted.
type CommentPage struct {
	Comments     []Comment `json:"comments" yaml:"comments"`
	NextCursor   string    `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
	CommentCount int       `json:"comment_count" yaml:"comment_count"`
}

// statusResponse is the envelope shared by every API response
type statusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

type loginResponse struct {
	statusResponse
	LoggedInUser      *User `json:"logged_in_user"`
	TwoFactorRequired bool  `json:"two_factor_required"`
	TwoFactorInfo     *struct {
		Identifier string `json:"two_factor_identifier"`
		Username   string `json:"username"`
	} `json:"two_factor_info"`
}

type caption struct {
	Text string `json:"text"`
}

type mediaNode struct {
	ID           string   `json:"id"`
	Pk           int64    `json:"pk"`
	Code         string   `json:"code"`
	MediaType    int      `json:"media_type"`
	User         User     `json:"user"`
	Caption      *caption `json:"caption"`
	TakenAt      int64    `json:"taken_at"`
	LikeCount    int      `json:"like_count"`
	CommentCount int      `json:"comment_count"`
}

func (n mediaNode) toMediaItem() MediaItem {
	item := MediaItem{
		ID:           n.ID,
		Pk:           n.Pk,
		Code:         n.Code,
		User:         n.User,
		MediaType:    MediaType(n.MediaType),
		LikeCount:    n.LikeCount,
		CommentCount: n.CommentCount,
	}
	if n.Caption != nil {
		item.Caption = n.Caption.Text
	}
	if n.TakenAt > 0 {
		item.TakenAt = time.Unix(n.TakenAt, 0).UTC()
	}
	return item
}

type commentNode struct {
	Pk        int64  `json:"pk"`
	Text      string `json:"text"`
	User      User   `json:"user"`
	CreatedAt int64  `json:"created_at"`
}

func (n commentNode) toComment() Comment {
	c := Comment{Pk: n.Pk, Text: n.Text, User: n.User}
	if n.CreatedAt > 0 {
		c.CreatedAt = time.Unix(n.CreatedAt, 0).UTC()
	}
	return c
}

type mediaInfoResponse struct {
	statusResponse
	Items []mediaNode `json:"items"`
}

type likersResponse struct {
	statusResponse
	Users     []User `json:"users"`
	NextMaxID string `json:"next_max_id"`
}

type commentsResponse struct {
	statusResponse
	Comments        []commentNode `json:"comments"`
	CommentCount    int           `json:"comment_count"`
	HasMoreComments bool          `json:"has_more_comments"`
	NextMaxID       string        `json:"next_max_id"`
}

type userInfoResponse struct {
	statusResponse
	User *User `json:"user"`
}

type userFeedResponse struct {
	statusResponse
	Items         []mediaNode `json:"items"`
	MoreAvailable bool        `json:"more_available"`
	NextMaxID     string      `json:"next_max_id"`
}

type commentResponse struct {
	statusResponse
	Comment *commentNode `json:"comment"`
}

type deleteMediaResponse struct {
	statusResponse
	DidDelete bool `json:"did_delete"`
}
