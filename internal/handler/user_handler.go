package handler

import (
	"context"
	"net/http"
	"strings"

	"teamtasks/internal/middleware"
	"teamtasks/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ProfileStore is the subset of the profile repository the account routes use.
type ProfileStore interface {
	Create(ctx context.Context, profile *model.Profile) error
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	FindByUsername(ctx context.Context, username string) (*model.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	List(ctx context.Context, team string) ([]model.Profile, error)
}

type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email string) (string, error)
}

type UserHandler struct {
	repo   ProfileStore
	tokens TokenIssuer
}

func NewUserHandler(repo ProfileStore, tokens TokenIssuer) *UserHandler {
	return &UserHandler{repo: repo, tokens: tokens}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username" binding:"omitempty,alphanum,min=3"`
}

// LoginRequest accepts either an email or a username.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Username *string `json:"username,omitempty"`
	Role     *string `json:"role"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MeResponse describes the caller. Every field is null for anonymous callers
// except name, which is empty.
type MeResponse struct {
	UserID *string `json:"userId"`
	Role   *string `json:"role"`
	Name   string  `json:"name"`
	Team   *string `json:"team"`
}

type MemberResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Username   *string `json:"username"`
	Role       *string `json:"role"`
	MemberTeam *string `json:"member_team"`
	Team       *string `json:"team"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Name       string  `json:"name"`
}

type resolveUsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// Register godoc
// @Summary      Register a new account
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        user  body  RegisterRequest  true  "Account"
// @Success      201  {object}  AuthResponse
// @Failure      409  {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request.Context()

	existing, err := h.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	var username *string
	if u := strings.ToLower(strings.TrimSpace(req.Username)); u != "" {
		taken, err := h.repo.FindByUsername(ctx, u)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
			return
		}
		if taken != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Username is already taken"})
			return
		}
		username = &u
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}

	first, last := splitName(req.Name)
	profile := &model.Profile{
		ID:             uuid.New(),
		Email:          req.Email,
		Username:       username,
		HashedPassword: string(hash),
		FirstName:      first,
		LastName:       last,
	}

	if err := h.repo.Create(ctx, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create failed"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, profile)
}

// Login godoc
// @Summary      Sign in with email or username
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        credentials  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  AuthResponse
// @Failure      401  {object}  map[string]string
// @Router       /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ctx := c.Request.Context()
	var (
		profile *model.Profile
		err     error
	)
	switch {
	case strings.TrimSpace(req.Email) != "":
		profile, err = h.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	case strings.TrimSpace(req.Username) != "":
		profile, err = h.repo.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(req.Username)))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email or username is required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}

	if profile == nil || profile.HashedPassword == "" ||
		bcrypt.CompareHashAndPassword([]byte(profile.HashedPassword), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.respondWithToken(c, http.StatusOK, profile)
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, profile *model.Profile) {
	token, err := h.tokens.GenerateToken(profile.ID, profile.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(status, AuthResponse{
		Token: token,
		User: UserResponse{
			ID:       profile.ID.String(),
			Email:    profile.Email,
			Name:     profile.DisplayName(),
			Username: profile.Username,
			Role:     roleString(profile.RoleOrNone()),
		},
	})
}

// Me godoc
// @Summary      Current caller
// @Description  Anonymous callers get a null identity. A signed-in user without a profile gets a minimal one.
// @Tags         Users
// @Produce      json
// @Success      200  {object}  MeResponse
// @Router       /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	raw, ok := c.Get(middleware.UserIDKey)
	userID, _ := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		c.JSON(http.StatusOK, MeResponse{})
		return
	}

	ctx := c.Request.Context()
	email := c.GetString(middleware.EmailKey)

	profile, err := h.repo.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profile == nil {
		profile = &model.Profile{ID: userID, Email: email}
		if email != "" {
			if err := h.repo.Create(ctx, profile); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
	}

	id := userID.String()
	c.JSON(http.StatusOK, MeResponse{
		UserID: &id,
		Role:   roleString(profile.RoleOrNone()),
		Name:   profile.DisplayName(),
		Team:   teamString(profile.Team()),
	})
}

// Members godoc
// @Summary      List all members
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string][]MemberResponse
// @Router       /members [get]
func (h *UserHandler) Members(c *gin.Context) {
	profiles, err := h.repo.List(c.Request.Context(), "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "items": []MemberResponse{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toMembers(profiles)})
}

// AdminMembers godoc
// @Summary      List members for management
// @Description  Callers with a role see every profile, optionally filtered by team. Others see only themselves.
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Param        team  query  string  false  "member team"
// @Success      200  {object}  map[string][]MemberResponse
// @Router       /admin/members [get]
func (h *UserHandler) AdminMembers(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	ctx := c.Request.Context()

	if caller.Anonymous() {
		c.JSON(http.StatusOK, gin.H{"items": []MemberResponse{}})
		return
	}

	if !caller.Role.Valid() {
		self, err := h.repo.GetByID(ctx, caller.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		items := []MemberResponse{}
		if self != nil {
			items = toMembers([]model.Profile{*self})
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
		return
	}

	profiles, err := h.repo.List(ctx, strings.TrimSpace(c.Query("team")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toMembers(profiles)})
}

// ResolveUsername godoc
// @Summary      Look up the email behind a username
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body  resolveUsernameRequest  true  "Username"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/resolve-username [post]
func (h *UserHandler) ResolveUsername(c *gin.Context) {
	var req resolveUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	profile, err := h.repo.FindByUsername(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": profile.Email})
}

func toMembers(profiles []model.Profile) []MemberResponse {
	items := make([]MemberResponse, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		items = append(items, MemberResponse{
			ID:         p.ID.String(),
			Email:      p.Email,
			Username:   p.Username,
			Role:       roleString(p.RoleOrNone()),
			MemberTeam: p.MemberTeam,
			Team:       teamString(p.Team()),
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Name:       p.DisplayName(),
		})
	}
	return items
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func roleString(r model.Role) *string {
	if r == model.RoleNone {
		return nil
	}
	s := string(r)
	return &s
}

func teamString(t *model.Team) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}
