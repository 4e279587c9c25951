package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/service"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "moodlink.user_id"
)

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup 注册账号并直接登录
func (a *API) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req, "注册信息格式错误") {
		return
	}

	input := service.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name}
	if strings.TrimSpace(req.BirthDate) != "" {
		birth, err := parseDate(req.BirthDate, time.UTC, time.Time{})
		if err != nil {
			respondError(c, http.StatusBadRequest, "生日格式应为 YYYY-MM-DD")
			return
		}
		input.BirthDate = &birth
	}

	user, err := a.users.Register(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserInvalidInput):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserEmailTaken):
			respondError(c, http.StatusConflict, "邮箱已被注册")
		default:
			a.log.Error("signup failed", "error", err)
			respondError(c, http.StatusInternalServerError, "注册失败")
		}
		return
	}

	a.log.Info("user registered", "user_id", user.ID)
	a.startSession(c, user, http.StatusCreated)
}

// Login 校验邮箱密码，写入会话并返回访问令牌
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "登录信息格式错误") {
		return
	}

	user, err := a.users.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "邮箱或密码错误")
			return
		}
		a.log.Error("login failed", "error", err)
		respondError(c, http.StatusInternalServerError, "登录失败")
		return
	}

	a.startSession(c, user, http.StatusOK)
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.log.Warn("clear session failed", "error", err)
	}
	c.Status(http.StatusNoContent)
}

// Me 返回当前用户
func (a *API) Me(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// AuthRequired 接受会话 cookie 或 Bearer 令牌
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			userID, err := a.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
			if err != nil {
				respondError(c, http.StatusUnauthorized, "令牌无效或已过期")
				c.Abort()
				return
			}
			c.Set(contextUserKey, userID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserKey).(uint)
		if !ok || userID == 0 {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Set(contextUserKey, userID)
		c.Next()
	}
}

func (a *API) startSession(c *gin.Context, user *db.User, status int) {
	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.ID)
	if err != nil {
		a.log.Error("issue token failed", "user_id", user.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "签发令牌失败")
		return
	}

	c.JSON(status, gin.H{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
		"user":       userPayload(user),
	})
}

func currentUserID(c *gin.Context) uint {
	if value, ok := c.Get(contextUserKey); ok {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}

// currentUser 加载当前用户，失败时已写入响应
func (a *API) currentUser(c *gin.Context) (*db.User, bool) {
	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "用户不存在")
			return nil, false
		}
		a.log.Error("load current user failed", "error", err)
		respondError(c, http.StatusInternalServerError, "获取用户失败")
		return nil, false
	}
	return user, true
}

func userPayload(user *db.User) gin.H {
	payload := gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	}
	if user.BirthDate != nil {
		payload["birth_date"] = user.BirthDate.UTC().Format(time.RFC3339)
	}
	if user.ZodiacSign != "" {
		payload["zodiac_sign"] = user.ZodiacSign
	}
	if user.PartnerID != nil {
		payload["partner_id"] = *user.PartnerID
	}
	if user.PartnerCode != nil && *user.PartnerCode != "" {
		payload["partner_code"] = *user.PartnerCode
	}
	return payload
}
