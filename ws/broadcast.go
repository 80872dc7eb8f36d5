package ws

import (
	"github.com/ryteapp/ryte-gateway/globals"
	"github.com/ryteapp/ryte-gateway/types"
)

// Feed broadcast dispatcher. The CRUD request handlers call these strictly
// after their own database write committed. Every method is best-effort:
// failures are logged and never surface to the HTTP request that triggered
// the broadcast, and nothing is retried.

// BroadcastNewPost publishes a freshly created post to both feed rooms with
// the baseline like state.
func (h *Hub) BroadcastNewPost(post *types.Post, author *types.User) {
	if post == nil || author == nil {
		globals.AppLogger.Error("broadcast new post called without post or author")
		return
	}
	postData := types.NewPostData{
		ID:        post.ID,
		Type:      post.Type,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		Author: types.AuthorSummary{
			ID:        author.ID,
			Username:  author.Username,
			AvatarURL: author.AvatarURL,
		},
		LikeCount: 0,
		Liked:     false,
	}
	h.broadcastRoom(RoomLiveFeed, types.EventNewPost, postData)
	h.broadcastRoom(RoomFollowingFeed, types.EventNewPost, postData)
}

// BroadcastNewLike re-resolves the liking user (they may have been deleted
// between the like commit and this call, in which case the broadcast is
// silently dropped) and publishes the current like count to both feed rooms.
func (h *Hub) BroadcastNewLike(postID, userID int64, likeCount int) {
	user, err := h.Persister.GetUser(userID)
	if err != nil {
		globals.AppLogger.Error("could not resolve liking user", "userId", userID, "error", err)
		return
	}
	if user == nil {
		return
	}
	likeData := types.PostLikedData{
		PostID:    postID,
		UserID:    userID,
		Username:  user.Username,
		LikeCount: likeCount,
	}
	h.broadcastRoom(RoomLiveFeed, types.EventPostLiked, likeData)
	h.broadcastRoom(RoomFollowingFeed, types.EventPostLiked, likeData)
}

// BroadcastNewComment publishes a freshly created comment to both feed rooms.
func (h *Hub) BroadcastNewComment(postID int64, comment *types.PostComment, author *types.User) {
	if comment == nil || author == nil {
		globals.AppLogger.Error("broadcast new comment called without comment or author")
		return
	}
	commentData := types.NewCommentData{
		ID:        comment.ID,
		PostID:    postID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		Author: types.AuthorSummary{
			ID:       author.ID,
			Username: author.Username,
		},
	}
	h.broadcastRoom(RoomLiveFeed, types.EventNewComment, commentData)
	h.broadcastRoom(RoomFollowingFeed, types.EventNewComment, commentData)
}

// BroadcastNewFollow re-resolves both identities (dropping the broadcast
// silently if either is gone), notifies the followed user's active
// connection, and publishes the follow to the live feed.
func (h *Hub) BroadcastNewFollow(followerID, followingID int64) {
	follower, err := h.Persister.GetUser(followerID)
	if err != nil {
		globals.AppLogger.Error("could not resolve follower", "userId", followerID, "error", err)
		return
	}
	following, err := h.Persister.GetUser(followingID)
	if err != nil {
		globals.AppLogger.Error("could not resolve followed user", "userId", followingID, "error", err)
		return
	}
	if follower == nil || following == nil {
		return
	}
	followData := types.FollowData{
		Follower:  types.AuthorSummary{ID: follower.ID, Username: follower.Username},
		Following: types.AuthorSummary{ID: following.ID, Username: following.Username},
	}
	h.NotifyUser(followingID, types.EventNewFollower, followData)
	h.broadcastRoom(RoomLiveFeed, types.EventNewFollow, followData)
}
