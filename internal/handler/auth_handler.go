package handler

import (
	"net/http"
	"strings"

	"github.com/burnlog/internal/db"
	"github.com/burnlog/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionKeyUserID  = "user_id"
	sessionKeyIsAdmin = "is_admin"
	contextKeyUserID  = "__current_user_id"
)

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Register 注册新用户并建立空资料
func (a *API) Register(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" || strings.TrimSpace(payload.Password) == "" {
		respondError(c, http.StatusBadRequest, "用户名和密码不能为空")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}

	// 用户名唯一性交给唯一索引保证，并发注册也只会成功一次
	user := db.User{
		UserID:   uuid.New().String(),
		Username: username,
		Password: string(hashed),
	}
	if err := a.db.Create(&user).Error; err != nil {
		var existing db.User
		if lookupErr := a.db.Where("username = ?", username).First(&existing).Error; lookupErr == nil {
			respondError(c, http.StatusBadRequest, "用户名已存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}

	if _, err := a.profiles.Upsert(service.ProfileInput{
		UserID:   user.UserID,
		Nickname: strings.TrimSpace(payload.Nickname),
	}); err != nil {
		respondError(c, http.StatusInternalServerError, "初始化资料失败")
		return
	}

	if startSession(c, user) != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.UserID, "username": user.Username})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	// 查找用户
	var user db.User
	if err := a.db.Where("username = ?", strings.TrimSpace(payload.Username)).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	if startSession(c, user) != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": user.UserID, "username": user.Username, "is_admin": user.IsAdmin})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// startSession 写入会话；保存失败时已响应 500，调用方必须直接返回
func startSession(c *gin.Context, user db.User) error {
	session := sessions.Default(c)
	session.Set(sessionKeyUserID, user.UserID)
	session.Set(sessionKeyIsAdmin, user.IsAdmin)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return err
	}
	return nil
}

// AuthRequired 校验会话并把用户 ID 写入请求上下文
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(sessionKeyUserID).(string)
		if userID == "" {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

// AdminRequired 限制仅管理员访问，需在 AuthRequired 之后使用
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		isAdmin, _ := session.Get(sessionKeyIsAdmin).(bool)
		if !isAdmin {
			respondError(c, http.StatusForbidden, "无权访问")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 从请求上下文读取当前用户 ID
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get(contextKeyUserID)
	id, _ := userID.(string)
	return id
}
