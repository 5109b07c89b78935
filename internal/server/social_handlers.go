package server

import (
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postIDRequest struct {
	PostID string `json:"postId"`
}

// GetVideoClass handles GET /api/social/getVideoClass?id=
func (s *Server) GetVideoClass(c *fiber.Ctx) error {
	id, err := requireQuery(c, "id")
	if err != nil {
		return nil
	}
	v, err := s.social.GetVideoClass(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, v)
}

// GetVideoClassesByCategory handles GET /api/social/getVideoClassesByCategory?category=&limit=
func (s *Server) GetVideoClassesByCategory(c *fiber.Ctx) error {
	videos, err := s.social.GetVideoClassesByCategory(c.UserContext(), c.Query("category"), c.QueryInt("limit", 10))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(videos)
}

// GetUserStats handles GET /api/social/getUserStats
// @Summary Points, level and badges for the current user
// @Tags social
// @Produce json
// @Success 200 {object} service.UserStats
// @Failure 401 {object} models.ErrorResponse
// @Router /social/getUserStats [get]
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	stats, err := s.social.GetUserStats(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(stats)
}

// AddPoints handles POST /api/social/addPoints
func (s *Server) AddPoints(c *fiber.Ctx) error {
	var in service.AddPointsInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.social.AddPoints(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetCommunityPosts handles GET /api/social/getCommunityPosts?limit=&offset=
// @Summary List community posts, newest first
// @Tags social
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.CommunityPost
// @Failure 403 {object} models.ErrorResponse
// @Router /social/getCommunityPosts [get]
func (s *Server) GetCommunityPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 10)
	posts, err := s.social.GetCommunityPosts(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(posts)
}

// GetCommunityPost handles GET /api/social/getCommunityPost?postId=
func (s *Server) GetCommunityPost(c *fiber.Ctx) error {
	postID, err := requireQuery(c, "postId")
	if err != nil {
		return nil
	}
	post, err := s.social.GetCommunityPost(c.UserContext(), postID)
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, post)
}

// CreatePost handles POST /api/social/createPost
// @Summary Publish a community post
// @Tags social
// @Accept json
// @Produce json
// @Param request body service.CreatePostInput true "Post"
// @Success 200 {object} service.PostResult
// @Failure 400 {object} models.ErrorResponse
// @Router /social/createPost [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.social.CreatePost(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// AddComment handles POST /api/social/addComment
func (s *Server) AddComment(c *fiber.Ctx) error {
	var in service.AddCommentInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.social.AddComment(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// LikePost handles POST /api/social/likePost
func (s *Server) LikePost(c *fiber.Ctx) error {
	var req postIDRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.social.LikePost(c.UserContext(), currentUserID(c), req.PostID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// GetNotifications handles GET /api/social/getNotifications?limit=
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.social.GetNotifications(c.UserContext(), currentUserID(c), c.QueryInt("limit", 10))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(list)
}

// MarkAsRead handles POST /api/social/markAsRead
func (s *Server) MarkAsRead(c *fiber.Ctx) error {
	var req struct {
		NotificationID string `json:"notificationId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.social.MarkAsRead(c.UserContext(), currentUserID(c), req.NotificationID); err != nil {
		return respond(c, err)
	}
	return c.JSON(service.Success{Success: true})
}

// GenerateMotivationalNotification handles POST /api/social/generateMotivationalNotification
func (s *Server) GenerateMotivationalNotification(c *fiber.Ctx) error {
	var req struct {
		Language string `json:"language"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.social.GenerateMotivationalNotification(c.UserContext(), currentUserID(c), req.Language)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// UnlockAchievement handles POST /api/social/unlockAchievement
func (s *Server) UnlockAchievement(c *fiber.Ctx) error {
	var in service.UnlockAchievementInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.social.UnlockAchievement(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}
