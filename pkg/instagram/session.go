package instagram

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionState is the authentication state of a client's session
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Device identifies the client to the API. The values are derived from the
// username so one account always presents the same device.
type Device struct {
	GUID     string
	PhoneID  string
	DeviceID string
}

// NewDevice derives a stable device identity for username
func NewDevice(username string) Device {
	name := strings.ToLower(username)
	guid := uuid.NewSHA1(uuid.NameSpaceOID, []byte("guid:"+name))
	phone := uuid.NewSHA1(uuid.NameSpaceOID, []byte("phone:"+name))

	return Device{
		GUID:     guid.String(),
		PhoneID:  phone.String(),
		DeviceID: "android-" + strings.ReplaceAll(guid.String(), "-", "")[:16],
	}
}

// Session holds the authentication context of one account. Only Login and
// Logout change it.
type Session struct {
	mu       sync.RWMutex
	username string
	state    SessionState
	user     *User
	device   Device
}

func newSession() *Session {
	return &Session{state: StateUnauthenticated}
}

func (s *Session) snapshot() (string, SessionState, Device) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.state, s.device
}

// begin prepares the session for a login as username. It reports whether
// the previous session belonged to someone else and had to be dropped.
func (s *Session) begin(username string) (Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switched := s.username != "" && s.username != username
	s.username = username
	s.state = StateUnauthenticated
	s.user = nil
	s.device = NewDevice(username)
	return s.device, switched
}

func (s *Session) finish(user *User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateFailed
		s.user = nil
		return
	}
	s.state = StateAuthenticated
	s.user = user
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.username = ""
	s.state = StateUnauthenticated
	s.user = nil
	s.device = Device{}
}

// State returns the current session state
func (c *Client) State() SessionState {
	c.session.mu.RLock()
	defer c.session.mu.RUnlock()
	return c.session.state
}

// IsAuthenticated reports whether the last login succeeded
func (c *Client) IsAuthenticated() bool {
	return c.State() == StateAuthenticated
}

// CurrentUser returns the logged in account, or nil
func (c *Client) CurrentUser() *User {
	c.session.mu.RLock()
	defer c.session.mu.RUnlock()
	if c.session.user == nil {
		return nil
	}
	u := *c.session.user
	return &u
}

// Username returns the account the session belongs to
func (c *Client) Username() string {
	c.session.mu.RLock()
	defer c.session.mu.RUnlock()
	return c.session.username
}

// sessionJar is a cookie jar that can be emptied when the session changes
type sessionJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

func newSessionJar() *sessionJar {
	j := &sessionJar{}
	j.reset()
	return j
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

func (j *sessionJar) reset() {
	// cookiejar.New only fails on a bad PublicSuffixList
	jar, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}
