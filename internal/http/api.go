package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
	"blog-server/internal/service"
	"blog-server/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      service.AuthService
	posts     service.PostService
	jwtSecret string
	tokenTTL  time.Duration
	maxUpload int64
	logger    *logrus.Logger
}

func NewHandler(auth service.AuthService, posts service.PostService, jwtSecret string, tokenTTL time.Duration, maxUploadBytes int64, logger *logrus.Logger) *Handler {
	return &Handler{
		auth:      auth,
		posts:     posts,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		maxUpload: maxUploadBytes,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.GET("/verify-email/:token", h.verifyEmail)
			auth.POST("/resend-verification", h.resendVerification)
			auth.POST("/login", h.login)
			auth.POST("/forgot-password", h.forgotPassword)
			auth.POST("/reset-password/:token", h.resetPassword)
			auth.GET("/me", h.authRequired(), h.me)
		}

		blogs := api.Group("/blogs")
		{
			blogs.GET("", h.listPosts)
			blogs.POST("", h.createPost)
			blogs.GET("/:id", h.getPost)
			blogs.PUT("/:id", h.updatePost)
			blogs.DELETE("/:id", h.deletePost)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		h.authError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Please check your email to verify your account.",
	})
}

func (h *Handler) verifyEmail(c *gin.Context) {
	if err := h.auth.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		h.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

func (h *Handler) resendVerification(c *gin.Context) {
	var req resendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email sent"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authError(c, err)
		return
	}

	token, err := h.issueSessionToken(user.ID)
	if err != nil {
		h.logger.Errorf("sign session token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		h.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (h *Handler) me(c *gin.Context) {
	userID := c.GetInt64(contextUserIDKey)

	user, err := h.auth.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Errorf("get user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"isVerified": user.IsVerified,
		"createdAt":  user.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) listPosts(c *gin.Context) {
	limit, err := parsePositiveInt(c.Query("limit"), 10)
	if err != nil {
		h.blogError(c, &service.ValidationError{Msg: "invalid limit"})
		return
	}
	page, err := parsePositiveInt(c.Query("page"), 1)
	if err != nil {
		h.blogError(c, &service.ValidationError{Msg: "invalid page"})
		return
	}

	posts, totalPages, err := h.posts.List(c.Request.Context(), service.ListOptions{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Limit:    limit,
		Page:     page,
	})
	if err != nil {
		h.blogError(c, err)
		return
	}

	data := make([]PostResponse, len(posts))
	for i := range posts {
		data[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(data),
		"totalPages": totalPages,
		"data":       data,
	})
}

func (h *Handler) createPost(c *gin.Context) {
	input := service.CreatePostInput{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		Categories: c.PostForm("category"),
		Tags:       c.PostForm("tags"),
		Excerpt:    c.PostForm("excerpt"),
		Status:     c.PostForm("status"),
		Author:     c.PostForm("author"),
	}

	image, closeImage, err := h.formImage(c)
	if err != nil {
		h.blogError(c, err)
		return
	}
	defer closeImage()

	post, err := h.posts.Create(c.Request.Context(), input, image)
	if err != nil {
		h.blogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": postToResponse(*post)})
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.blogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": postToResponse(*post)})
}

func (h *Handler) updatePost(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	var input service.UpdatePostInput
	input.Title = formField(c, "title")
	input.Content = formField(c, "content")
	input.Categories = formField(c, "category")
	input.Tags = formField(c, "tags")
	input.Excerpt = formField(c, "excerpt")
	input.Status = formField(c, "status")
	input.Author = formField(c, "author")
	input.RemoveImage = c.PostForm("remove_image") == "true"

	image, closeImage, err := h.formImage(c)
	if err != nil {
		h.blogError(c, err)
		return
	}
	defer closeImage()

	post, err := h.posts.Update(c.Request.Context(), id, input, image)
	if err != nil {
		h.blogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": postToResponse(*post)})
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		h.blogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

func (h *Handler) postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid post id"})
		return 0, false
	}
	return id, true
}

// formImage extracts the optional uploaded file, enforcing the configured
// size limit. The returned close func is always safe to call.
func (h *Handler) formImage(c *gin.Context) (*storage.UploadInput, func(), error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, &service.ValidationError{Msg: "invalid file upload"}
	}

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return nil, func() {}, &service.ValidationError{
			Msg: fmt.Sprintf("file exceeds the %d MB upload limit", h.maxUpload>>20),
		}
	}

	file, err := header.Open()
	if err != nil {
		return nil, func() {}, &service.ValidationError{Msg: "could not read uploaded file"}
	}

	return &storage.UploadInput{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, func() { file.Close() }, nil
}

func (h *Handler) authError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("auth: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}

func (h *Handler) blogError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Msg})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
	default:
		h.logger.Errorf("blog: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "server error"})
	}
}

func (h *Handler) issueSessionToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(h.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

func formField(c *gin.Context, name string) *string {
	if value, ok := c.GetPostForm(name); ok {
		return &value
	}
	return nil
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errors.New("not a positive integer")
	}
	return value, nil
}

// PostResponse is the wire representation of a post.
type PostResponse struct {
	ID         int64               `json:"id"`
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Category   []string            `json:"category"`
	Tags       []string            `json:"tags"`
	Excerpt    string              `json:"excerpt,omitempty"`
	Status     domain.PostStatus   `json:"status"`
	CoverImage *CoverImageResponse `json:"coverImage,omitempty"`
	Author     string              `json:"author"`
	CreatedAt  string              `json:"createdAt"`
	UpdatedAt  string              `json:"updatedAt"`
}

type CoverImageResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

func postToResponse(post domain.Post) PostResponse {
	resp := PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Category:  post.Categories,
		Tags:      post.Tags,
		Excerpt:   post.Excerpt,
		Status:    post.Status,
		Author:    post.Author,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
	if post.CoverImage != nil {
		resp.CoverImage = &CoverImageResponse{
			URL:      post.CoverImage.URL,
			PublicID: post.CoverImage.Key,
		}
	}
	return resp
}
