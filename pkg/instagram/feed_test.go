package instagram

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igclient/pkg/errors"
	"igclient/pkg/logger"
)

const feedRoute = "GET /api/v1/feed/user/{pk}/"

func TestGetMediaLikersDeduplicates(t *testing.T) {
	api := newFakeAPI(t)
	ann := User{Pk: 1, Username: "ann"}
	ben := User{Pk: 2, Username: "ben"}
	cat := User{Pk: 3, Username: "cat"}
	api.likerPages = [][]User{
		{ann, ben, ann},
		{ben, cat},
	}
	c := api.loggedInClient(Options{})

	res := c.GetMediaLikers(context.Background(), "100_1001")

	require.True(t, res.Succeeded, "likers failed: %v", res.Info)
	assert.Equal(t, []User{ann, ben, cat}, res.Value)
	assert.Equal(t, 2, api.count("GET /api/v1/media/{id}/likers/"))
}

func TestGetMediaLikersBoundedByDefault(t *testing.T) {
	api := newFakeAPI(t)
	for i := 0; i < 10; i++ {
		api.likerPages = append(api.likerPages, []User{{Pk: int64(i + 1)}})
	}
	c := api.loggedInClient(Options{MaxPages: 4})

	res := c.GetMediaLikers(context.Background(), "100_1001")

	require.True(t, res.Succeeded)
	assert.Len(t, res.Value, 4)
	assert.Equal(t, 4, api.count("GET /api/v1/media/{id}/likers/"))
}

func TestGetMediaLikersEmpty(t *testing.T) {
	api := newFakeAPI(t)
	c := api.loggedInClient(Options{})

	res := c.GetMediaLikers(context.Background(), "100_1001")

	require.True(t, res.Succeeded)
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func commentPages(pages, perPage int) [][]commentNode {
	out := make([][]commentNode, pages)
	pk := int64(0)
	for i := range out {
		for j := 0; j < perPage; j++ {
			pk++
			out[i] = append(out[i], commentNode{Pk: pk, Text: fmt.Sprintf("c%d", pk), User: User{Pk: 7, Username: "ann"}})
		}
	}
	return out
}

func TestGetMediaComments(t *testing.T) {
	api := newFakeAPI(t)
	api.commentPages = commentPages(3, 2)
	// repeat across and within pages
	api.commentPages[1] = append(api.commentPages[1], api.commentPages[0][0], api.commentPages[1][0])
	c := api.loggedInClient(Options{})

	res := c.GetMediaComments(context.Background(), "100_1001", "", 0)

	require.True(t, res.Succeeded, "comments failed: %v", res.Info)
	page := res.Value
	assert.Len(t, page.Comments, 6)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, 8, page.CommentCount)

	seen := make(map[int64]bool)
	for _, cm := range page.Comments {
		assert.False(t, seen[cm.Pk], "duplicate comment %d", cm.Pk)
		seen[cm.Pk] = true
	}
}

func TestGetMediaCommentsResume(t *testing.T) {
	api := newFakeAPI(t)
	api.commentPages = commentPages(5, 1)
	c := api.loggedInClient(Options{})
	ctx := context.Background()

	first := c.GetMediaComments(ctx, "100_1001", "", 2)
	require.True(t, first.Succeeded)
	assert.Len(t, first.Value.Comments, 2)
	assert.Equal(t, "p2", first.Value.NextCursor)

	rest := c.GetMediaComments(ctx, "100_1001", first.Value.NextCursor, 10)
	require.True(t, rest.Succeeded)
	assert.Len(t, rest.Value.Comments, 3)
	assert.Equal(t, int64(3), rest.Value.Comments[0].Pk)
	assert.Empty(t, rest.Value.NextCursor)

	assert.Equal(t, 5, api.count("GET /api/v1/media/{id}/comments/"))
}

func TestGetUserMediaOwnership(t *testing.T) {
	api := newFakeAPI(t)
	alice := api.users[testUser]
	api.feedPages = [][]mediaNode{
		{feedItem("A1", alice), feedItem("A2", alice), feedItem("X1", User{Pk: 5, Username: "mallory"})},
		{feedItem("A2", alice), feedItem("A3", alice), {Code: "A4", MediaType: 1}},
	}
	c := api.loggedInClient(Options{})

	res := c.GetUserMedia(context.Background(), testUser, 5)

	require.True(t, res.Succeeded, "user media failed: %v", res.Info)
	codes := make([]string, 0, len(res.Value))
	for _, item := range res.Value {
		assert.Equal(t, testUser, item.User.Username)
		codes = append(codes, item.Code)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "A4"}, codes)
}

func TestGetUserMediaLogsDroppedItems(t *testing.T) {
	api := newFakeAPI(t)
	alice := api.users[testUser]
	mallory := User{Pk: 5, Username: "mallory"}
	api.feedPages = [][]mediaNode{
		{feedItem("A1", alice), feedItem("X1", mallory)},
		{feedItem("X2", mallory), feedItem("A2", alice)},
	}

	testLogger := logger.NewTestLogger()
	c, err := NewClient(Options{BaseURL: api.server.URL}, testLogger)
	require.NoError(t, err)
	require.True(t, c.Login(context.Background(), testUser, testPassword).Succeeded)

	res := c.GetUserMedia(context.Background(), testUser, 5)
	require.True(t, res.Succeeded, "user media failed: %v", res.Info)
	assert.Len(t, res.Value, 2)

	msg, found := testLogger.FindMessage("fetched user media")
	require.True(t, found)
	assert.Equal(t, 2, msg.Fields["count"])
	assert.Equal(t, 2, msg.Fields["dropped"])
	assert.Equal(t, 2, msg.Fields["pages"])
}

func TestGetUserMediaHonorsPageBound(t *testing.T) {
	api := newFakeAPI(t)
	alice := api.users[testUser]
	for i := 0; i < 10; i++ {
		api.feedPages = append(api.feedPages, []mediaNode{feedItem(fmt.Sprintf("M%02d", i), alice)})
	}
	c := api.loggedInClient(Options{})

	res := c.GetUserMedia(context.Background(), testUser, 5)

	require.True(t, res.Succeeded)
	assert.Len(t, res.Value, 5)
	assert.Equal(t, 5, api.count(feedRoute))
	assert.Equal(t, 1, api.count("GET /api/v1/users/{username}/usernameinfo/"))
}

func TestGetUserMediaDiscardsOnFailure(t *testing.T) {
	api := newFakeAPI(t)
	alice := api.users[testUser]
	for i := 0; i < 4; i++ {
		api.feedPages = append(api.feedPages, []mediaNode{feedItem(fmt.Sprintf("M%d", i), alice)})
	}
	api.failFeedPage = 2
	c := api.loggedInClient(Options{})

	res := c.GetUserMedia(context.Background(), testUser, 10)

	assert.False(t, res.Succeeded)
	assert.Nil(t, res.Value)
	assert.Equal(t, errs.ErrorTypeRemoteRejected, res.Kind())
	assert.Equal(t, errs.ReasonServerError, res.Info.Reason)
	assert.Equal(t, 3, api.count(feedRoute))
}

func TestGetUserMediaUnknownUser(t *testing.T) {
	api := newFakeAPI(t)
	c := api.loggedInClient(Options{})

	res := c.GetUserMedia(context.Background(), "nobody", 3)

	assert.Equal(t, errs.ReasonNotFound, res.Info.Reason)
	assert.Zero(t, api.count(feedRoute))
}
