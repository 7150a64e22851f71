package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"igclient/pkg/logger"
)

const (
	testUser     = "alice"
	testPassword = "s3cret"
	testTOTP     = "JBSWY3DPEHPK3PXP"
)

// fakeAPI is an in-memory stand in for the private API. It counts requests
// per route so tests can assert how much I/O an operation caused.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	accounts map[string]string
	totp     map[string]string
	users    map[string]User
	media    map[string]mediaNode
	comments map[string]map[int64]commentNode
	liked    map[string]bool
	nextPk   int64

	likerPages   [][]User
	commentPages [][]commentNode
	feedPages    [][]mediaNode
	// failFeedPage makes the feed page with this index answer 500
	failFeedPage int
	// flakyInfo makes this many media info requests answer 503 first
	flakyInfo int
	// garbledInfo makes this many media info requests answer 200 with a
	// body that is not JSON
	garbledInfo int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{
		t:        t,
		hits:     make(map[string]int),
		accounts: map[string]string{testUser: testPassword, "bob": "hunter2"},
		totp:     make(map[string]string),
		users: map[string]User{
			testUser: {Pk: 1001, Username: testUser, FullName: "Alice A"},
			"bob":    {Pk: 1002, Username: "bob", FullName: "Bob B"},
		},
		media: map[string]mediaNode{
			"100_1001": {ID: "100_1001", Pk: 100, Code: "AAA", MediaType: 1, User: User{Pk: 1001, Username: testUser}, Caption: &caption{Text: "first"}, TakenAt: 1700000000},
			"200_1001": {ID: "200_1001", Pk: 200, Code: "BBB", MediaType: 2, User: User{Pk: 1001, Username: testUser}},
		},
		comments:     make(map[string]map[int64]commentNode),
		liked:        make(map[string]bool),
		nextPk:       9000,
		failFeedPage: -1,
	}

	mux := http.NewServeMux()
	f.handle(mux, "POST /api/v1/accounts/login/", f.login)
	f.handle(mux, "POST /api/v1/accounts/two_factor_login/", f.twoFactorLogin)
	f.handle(mux, "POST /api/v1/accounts/logout/", f.authed(f.logout))
	f.handle(mux, "GET /api/v1/media/{id}/info/", f.authed(f.mediaInfo))
	f.handle(mux, "GET /api/v1/media/{id}/likers/", f.authed(f.likers))
	f.handle(mux, "GET /api/v1/media/{id}/comments/", f.authed(f.commentList))
	f.handle(mux, "POST /api/v1/media/{id}/comment/", f.authed(f.postComment))
	f.handle(mux, "POST /api/v1/media/{id}/comment/{cid}/delete/", f.authed(f.deleteComment))
	f.handle(mux, "POST /api/v1/media/{id}/delete/", f.authed(f.deleteMedia))
	f.handle(mux, "POST /api/v1/media/{id}/edit_media/", f.authed(f.editMedia))
	f.handle(mux, "POST /api/v1/media/{id}/like/", f.authed(f.like(true)))
	f.handle(mux, "POST /api/v1/media/{id}/unlike/", f.authed(f.like(false)))
	f.handle(mux, "GET /api/v1/users/{username}/usernameinfo/", f.authed(f.usernameInfo))
	f.handle(mux, "GET /api/v1/feed/user/{pk}/", f.authed(f.userFeed))

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[pattern]++
		f.mu.Unlock()
		h(w, r)
	})
}

// count returns the number of requests served for a route pattern
func (f *fakeAPI) count(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[pattern]
}

func (f *fakeAPI) isLiked(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liked[id]
}

// total returns the number of requests served for all routes
func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

// newClient returns a client pointed at the fake API
func (f *fakeAPI) newClient(opts Options) *Client {
	f.t.Helper()
	opts.BaseURL = f.server.URL
	c, err := NewClient(opts, logger.NewTestLogger())
	require.NoError(f.t, err)
	return c
}

// loggedInClient returns a client with an authenticated session for alice
func (f *fakeAPI) loggedInClient(opts Options) *Client {
	f.t.Helper()
	c := f.newClient(opts)
	res := c.Login(context.Background(), testUser, testPassword)
	require.True(f.t, res.Succeeded, "login failed: %v", res.Info)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondFail(w http.ResponseWriter, status int, errorType, message string) {
	body := map[string]interface{}{"status": "fail", "message": message}
	if errorType != "" {
		body["error_type"] = errorType
	}
	writeJSON(w, status, body)
}

func respondOK(w http.ResponseWriter, body map[string]interface{}) {
	if body == nil {
		body = map[string]interface{}{}
	}
	body["status"] = "ok"
	writeJSON(w, http.StatusOK, body)
}

// authed rejects requests without a session cookie and POSTs without a
// matching CSRF header
func (f *fakeAPI) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := r.Cookie("sessionid")
		if err != nil || session.Value == "" {
			respondFail(w, http.StatusForbidden, "login_required", "login_required")
			return
		}
		if r.Method == http.MethodPost {
			csrf, err := r.Cookie("csrftoken")
			if err != nil || r.Header.Get("X-CSRFToken") != csrf.Value {
				respondFail(w, http.StatusForbidden, "csrf_error", "CSRF token missing or incorrect")
				return
			}
		}
		h(w, r)
	}
}

func (f *fakeAPI) startSession(w http.ResponseWriter, username string) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-" + username, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-" + username, Path: "/"})
	respondOK(w, map[string]interface{}{"logged_in_user": f.users[username]})
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	if r.PostFormValue("device_id") == "" || r.PostFormValue("guid") == "" {
		respondFail(w, http.StatusBadRequest, "", "missing device identity")
		return
	}

	f.mu.Lock()
	password, known := f.accounts[username]
	secret := f.totp[username]
	f.mu.Unlock()

	if !known || password != r.PostFormValue("password") {
		respondFail(w, http.StatusBadRequest, "bad_password", "The password you entered is incorrect.")
		return
	}
	if secret != "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":              "fail",
			"message":             "challenge",
			"two_factor_required": true,
			"two_factor_info": map[string]interface{}{
				"two_factor_identifier": "tf-" + username,
				"username":              username,
			},
		})
		return
	}
	f.startSession(w, username)
}

func (f *fakeAPI) twoFactorLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")

	f.mu.Lock()
	secret := f.totp[username]
	f.mu.Unlock()

	if r.PostFormValue("two_factor_identifier") != "tf-"+username {
		respondFail(w, http.StatusBadRequest, "invalid_identifier", "unknown challenge")
		return
	}
	if !totp.Validate(r.PostFormValue("verification_code"), secret) {
		respondFail(w, http.StatusBadRequest, "invalid_verification_code", "code is not valid")
		return
	}
	f.startSession(w, username)
}

func (f *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
	respondOK(w, nil)
}

func (f *fakeAPI) mediaInfo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	if f.flakyInfo > 0 {
		f.flakyInfo--
		f.mu.Unlock()
		respondFail(w, http.StatusServiceUnavailable, "", "try again")
		return
	}
	if f.garbledInfo > 0 {
		f.garbledInfo--
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>maintenance</html>"))
		return
	}
	node, exists := f.media[r.PathValue("id")]
	f.mu.Unlock()

	if !exists {
		respondFail(w, http.StatusNotFound, "", "Media not found or unavailable")
		return
	}
	respondOK(w, map[string]interface{}{"items": []mediaNode{node}})
}

// pageIndex maps the max_id cursor to a page index. Cursors are "p<n>".
func pageIndex(r *http.Request) int {
	cursor := r.URL.Query().Get("max_id")
	if cursor == "" {
		return 0
	}
	n, err := strconv.Atoi(cursor[1:])
	if err != nil {
		return -1
	}
	return n
}

func nextCursor(i, pages int) string {
	if i+1 >= pages {
		return ""
	}
	return fmt.Sprintf("p%d", i+1)
}

func (f *fakeAPI) likers(w http.ResponseWriter, r *http.Request) {
	i := pageIndex(r)
	f.mu.Lock()
	pages := f.likerPages
	f.mu.Unlock()

	if i < 0 || (len(pages) > 0 && i >= len(pages)) {
		respondFail(w, http.StatusBadRequest, "", "bad cursor")
		return
	}
	var users []User
	if len(pages) > 0 {
		users = pages[i]
	}
	respondOK(w, map[string]interface{}{"users": users, "next_max_id": nextCursor(i, len(pages))})
}

func (f *fakeAPI) commentList(w http.ResponseWriter, r *http.Request) {
	i := pageIndex(r)
	f.mu.Lock()
	pages := f.commentPages
	f.mu.Unlock()

	if i < 0 || (len(pages) > 0 && i >= len(pages)) {
		respondFail(w, http.StatusBadRequest, "", "bad cursor")
		return
	}
	total := 0
	for _, p := range pages {
		total += len(p)
	}
	var comments []commentNode
	if len(pages) > 0 {
		comments = pages[i]
	}
	next := nextCursor(i, len(pages))
	respondOK(w, map[string]interface{}{
		"comments":          comments,
		"comment_count":     total,
		"has_more_comments": next != "",
		"next_max_id":       next,
	})
}

func (f *fakeAPI) postComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	text := r.PostFormValue("comment_text")

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.media[id]; !exists {
		respondFail(w, http.StatusNotFound, "", "Media not found")
		return
	}
	f.nextPk++
	node := commentNode{Pk: f.nextPk, Text: text, User: f.users[testUser], CreatedAt: 1700000100}
	if f.comments[id] == nil {
		f.comments[id] = make(map[int64]commentNode)
	}
	f.comments[id][node.Pk] = node
	respondOK(w, map[string]interface{}{"comment": node})
}

func (f *fakeAPI) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pk, err := strconv.ParseInt(r.PathValue("cid"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.comments[id][pk]; err != nil || !exists {
		respondFail(w, http.StatusNotFound, "", "Comment not found")
		return
	}
	delete(f.comments[id], pk)
	respondOK(w, nil)
}

func (f *fakeAPI) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	defer f.mu.Unlock()

	node, exists := f.media[id]
	if !exists {
		respondFail(w, http.StatusNotFound, "", "Media not found")
		return
	}
	if MediaType(node.MediaType).String() != r.URL.Query().Get("media_type") {
		respondFail(w, http.StatusBadRequest, "media_type_mismatch", "media type does not match")
		return
	}
	delete(f.media, id)
	respondOK(w, map[string]interface{}{"did_delete": true})
}

func (f *fakeAPI) editMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	defer f.mu.Unlock()

	node, exists := f.media[id]
	if !exists {
		respondFail(w, http.StatusNotFound, "", "Media not found")
		return
	}
	node.Caption = &caption{Text: r.PostFormValue("caption_text")}
	f.media[id] = node
	respondOK(w, map[string]interface{}{"media": node})
}

func (f *fakeAPI) like(liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		f.mu.Lock()
		defer f.mu.Unlock()

		if _, exists := f.media[id]; !exists {
			respondFail(w, http.StatusNotFound, "", "Media not found")
			return
		}
		f.liked[id] = liked
		respondOK(w, nil)
	}
}

func (f *fakeAPI) usernameInfo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	user, exists := f.users[r.PathValue("username")]
	f.mu.Unlock()

	if !exists {
		respondFail(w, http.StatusNotFound, "", "User not found")
		return
	}
	respondOK(w, map[string]interface{}{"user": user})
}

func (f *fakeAPI) userFeed(w http.ResponseWriter, r *http.Request) {
	i := pageIndex(r)
	f.mu.Lock()
	pages := f.feedPages
	failAt := f.failFeedPage
	f.mu.Unlock()

	if i == failAt {
		respondFail(w, http.StatusInternalServerError, "", "")
		return
	}
	if i < 0 || (len(pages) > 0 && i >= len(pages)) {
		respondFail(w, http.StatusBadRequest, "", "bad cursor")
		return
	}
	var items []mediaNode
	if len(pages) > 0 {
		items = pages[i]
	}
	next := nextCursor(i, len(pages))
	respondOK(w, map[string]interface{}{
		"items":          items,
		"more_available": next != "",
		"next_max_id":    next,
	})
}

// feedItem builds a media node owned by owner
func feedItem(code string, owner User) mediaNode {
	return mediaNode{ID: code + "_id", Pk: int64(len(code)), Code: code, MediaType: 1, User: owner}
}
