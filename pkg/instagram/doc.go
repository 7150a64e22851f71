// Package instagram provides a session-bound client for Instagram's private
// API.
//
// A Client owns one session. Every operation except Login requires the
// session to be authenticated and fails with an unauthenticated error,
// without sending anything, when it is not. Operations return a
// result.Result so expected failures are values rather than panics or bare
// errors:
//
//	client, err := instagram.NewClient(instagram.Options{}, log)
//	if err != nil {
//	    return err
//	}
//	if res := client.Login(ctx, "user", secret); !res.Succeeded {
//	    return res.Err()
//	}
//
//	comments := client.GetMediaComments(ctx, mediaID, "", 5)
//	if comments.Succeeded {
//	    for _, c := range comments.Value.Comments {
//	        fmt.Println(c.User.Username, c.Text)
//	    }
//	}
//
// Listings (likers, comments, a user's media) walk cursor pages through
// pkg/pagination. They never fetch more than the page bound, drop repeated
// identifiers, and discard everything when any page fails.
package instagram
