package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"igclient/pkg/instagram"
)

var (
	commentsCursor string
	deleteType     string
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Work with posts",
	Long: `Read and modify Instagram posts.

Every command logs in first, using the configured credentials or a stored
account (--account). Results are written to stdout as YAML or JSON.`,
}

var mediaGetCmd = &cobra.Command{
	Use:   "get <media-id>",
	Short: "Show a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (*instagram.MediaItem, error) {
			return c.GetMediaByID(ctx, args[0]).Unwrap()
		}, identity[*instagram.MediaItem])
	},
}

var mediaLikersCmd = &cobra.Command{
	Use:   "likers <media-id>",
	Short: "List the users who liked a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) ([]instagram.Liker, error) {
			return c.GetMediaLikers(ctx, args[0]).Unwrap()
		}, identity[[]instagram.Liker])
	},
}

var mediaCommentsCmd = &cobra.Command{
	Use:   "comments <media-id>",
	Short: "List the comments on a post",
	Example: `  # First pages of comments
  igclient media comments 3141592653_1001

  # Continue where a previous listing stopped
  igclient media comments 3141592653_1001 --cursor QVFE...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (*instagram.CommentPage, error) {
			return c.GetMediaComments(ctx, args[0], commentsCursor, 0).Unwrap()
		}, identity[*instagram.CommentPage])
	},
}

var mediaListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List a user's posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) ([]instagram.MediaItem, error) {
			return c.GetUserMedia(ctx, args[0], 0).Unwrap()
		}, identity[[]instagram.MediaItem])
	},
}

var mediaCommentCmd = &cobra.Command{
	Use:   "comment <media-id> <text>...",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (*instagram.Comment, error) {
			return c.CommentMedia(ctx, args[0], text).Unwrap()
		}, identity[*instagram.Comment])
	},
}

var mediaDeleteCommentCmd = &cobra.Command{
	Use:   "delete-comment <media-id> <comment-id>",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (bool, error) {
			return c.DeleteComment(ctx, args[0], args[1]).Unwrap()
		}, outcome("media_id", args[0], "comment_id", args[1], "deleted"))
	},
}

var mediaDeleteCmd = &cobra.Command{
	Use:   "delete <media-id>",
	Short: "Delete a post",
	Long: `Delete a post. The media type must match the post: photo, video or
carousel. A post that no longer exists reports deleted: false.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mediaType, ok := instagram.ParseMediaType(deleteType)
		if !ok {
			return fmt.Errorf("unknown media type %q (want photo, video or carousel)", deleteType)
		}
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (bool, error) {
			return c.DeleteMedia(ctx, args[0], mediaType).Unwrap()
		}, outcome("media_id", args[0], "deleted"))
	},
}

var mediaEditCmd = &cobra.Command{
	Use:   "edit <media-id> <caption>...",
	Short: "Replace a post's caption",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		caption := strings.Join(args[1:], " ")
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (bool, error) {
			return c.EditMedia(ctx, args[0], caption).Unwrap()
		}, outcome("media_id", args[0], "edited"))
	},
}

var mediaLikeCmd = &cobra.Command{
	Use:   "like <media-id>",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (bool, error) {
			return c.LikeMedia(ctx, args[0]).Unwrap()
		}, outcome("media_id", args[0], "liked"))
	},
}

var mediaUnlikeCmd = &cobra.Command{
	Use:   "unlike <media-id>",
	Short: "Remove a like from a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd.Context(), func(ctx context.Context, c *instagram.Client) (bool, error) {
			return c.UnlikeMedia(ctx, args[0]).Unwrap()
		}, outcome("media_id", args[0], "unliked"))
	},
}

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(
		mediaGetCmd,
		mediaLikersCmd,
		mediaCommentsCmd,
		mediaListCmd,
		mediaCommentCmd,
		mediaDeleteCommentCmd,
		mediaDeleteCmd,
		mediaEditCmd,
		mediaLikeCmd,
		mediaUnlikeCmd,
	)

	mediaCommentsCmd.Flags().StringVar(&commentsCursor, "cursor", "", "resume from a cursor returned by an earlier listing")
	mediaDeleteCmd.Flags().StringVarP(&deleteType, "type", "t", "photo", "media type of the post (photo, video, carousel)")
}

// outcome presents a boolean result as a map of the given key/value pairs
// followed by the result under the final key
func outcome(pairs ...string) func(bool) interface{} {
	return func(ok bool) interface{} {
		out := make(map[string]interface{}, len(pairs)/2+1)
		for i := 0; i+1 < len(pairs); i += 2 {
			out[pairs[i]] = pairs[i+1]
		}
		out[pairs[len(pairs)-1]] = ok
		return out
	}
}
