package handler

import (
	"errors"
	"net/http"

	"github.com/burnlog/internal/db"
	"github.com/burnlog/internal/service"
	"github.com/gin-gonic/gin"
)

type profilePayload struct {
	Nickname      string  `json:"nickname"`
	CurrentWeight float64 `json:"current_weight"`
	GoalWeight    float64 `json:"goal_weight"`
}

// GetProfile 返回当前用户的资料及完整度标记
func (a *API) GetProfile(c *gin.Context) {
	profile, err := a.profiles.Get(currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"profile":  nil,
				"complete": false,
			})
			return
		}
		respondError(c, http.StatusInternalServerError, "获取资料失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":  profileToPayload(*profile),
		"complete": service.IsComplete(profile),
	})
}

// UpdateProfile 更新当前用户的资料
func (a *API) UpdateProfile(c *gin.Context) {
	var payload profilePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	profile, err := a.profiles.Upsert(service.ProfileInput{
		UserID:        currentUserID(c),
		Nickname:      payload.Nickname,
		CurrentWeight: payload.CurrentWeight,
		GoalWeight:    payload.GoalWeight,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存资料失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":  profileToPayload(*profile),
		"complete": service.IsComplete(profile),
	})
}

func profileToPayload(profile db.Profile) gin.H {
	return gin.H{
		"user_id":        profile.UserID,
		"nickname":       profile.Nickname,
		"current_weight": profile.CurrentWeight,
		"goal_weight":    profile.GoalWeight,
	}
}
