package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/burnlog/internal/db"
	"github.com/burnlog/internal/service"
	"github.com/gin-gonic/gin"
)

type challengePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Sort        int    `json:"sort"`
	Enabled     bool   `json:"enabled"`
}

type togglePayload struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// ListChallenges 返回挑战目录及指定日期的完成状态
func (a *API) ListChallenges(c *gin.Context) {
	date := time.Now().In(time.Local)
	if datePtr, ok := parseOptionalDateQuery(c.Query("date")); !ok {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	} else if datePtr != nil {
		date = *datePtr
	}

	challenges, err := a.challenges.List(true)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取挑战列表失败")
		return
	}

	completed, err := a.challenges.CompletedIDs(currentUserID(c), date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取打卡状态失败")
		return
	}

	items := make([]gin.H, 0, len(challenges))
	for _, challenge := range challenges {
		item := challengeToPayload(challenge)
		item["completed"] = completed[challenge.ID]
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"date":       date.Format(dateFormat),
		"challenges": items,
	})
}

// ToggleChallenge 切换单项挑战的当日完成状态，重复提交幂等
func (a *API) ToggleChallenge(c *gin.Context) {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	if _, err := a.challenges.Get(challengeID); err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			respondError(c, http.StatusNotFound, "挑战不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "加载挑战失败")
		return
	}

	var payload togglePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	date := time.Now().In(time.Local)
	if payload.Date != "" {
		parsed, err := time.ParseInLocation(dateFormat, payload.Date, time.Local)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的日期")
			return
		}
		date = parsed
	}

	if err := a.challenges.Toggle(currentUserID(c), challengeID, date, payload.Completed); err != nil {
		respondError(c, http.StatusInternalServerError, "保存打卡状态失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge_id": challengeID,
		"date":         date.Format(dateFormat),
		"completed":    payload.Completed,
	})
}

// AdminListChallenges 返回全部挑战供后台管理
func (a *API) AdminListChallenges(c *gin.Context) {
	challenges, err := a.challenges.List(false)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取挑战列表失败")
		return
	}

	items := make([]gin.H, 0, len(challenges))
	for _, challenge := range challenges {
		items = append(items, challengeToPayload(challenge))
	}
	c.JSON(http.StatusOK, gin.H{"challenges": items})
}

// AdminCreateChallenge 新建挑战
func (a *API) AdminCreateChallenge(c *gin.Context) {
	var payload challengePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	challenge, err := a.challenges.Create(service.ChallengeInput{
		Name:        payload.Name,
		Description: payload.Description,
		Icon:        payload.Icon,
		Sort:        payload.Sort,
		Enabled:     payload.Enabled,
	})
	if err != nil {
		handleChallengeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenge": challengeToPayload(*challenge)})
}

// AdminUpdateChallenge 更新挑战
func (a *API) AdminUpdateChallenge(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	var payload challengePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	challenge, err := a.challenges.Update(id, service.ChallengeInput{
		Name:        payload.Name,
		Description: payload.Description,
		Icon:        payload.Icon,
		Sort:        payload.Sort,
		Enabled:     payload.Enabled,
	})
	if err != nil {
		handleChallengeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenge": challengeToPayload(*challenge)})
}

// AdminDeleteChallenge 删除挑战
func (a *API) AdminDeleteChallenge(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的挑战ID")
		return
	}

	if err := a.challenges.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除挑战失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func challengeToPayload(challenge db.Challenge) gin.H {
	return gin.H{
		"id":          challenge.ID,
		"name":        challenge.Name,
		"description": challenge.Description,
		"icon":        challenge.Icon,
		"sort":        challenge.Sort,
		"enabled":     challenge.Enabled,
	}
}

func handleChallengeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChallengeNotFound):
		respondError(c, http.StatusNotFound, "挑战不存在")
	case errors.Is(err, service.ErrChallengeInvalid):
		respondError(c, http.StatusBadRequest, "挑战配置无效")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
