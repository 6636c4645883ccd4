package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMyPoints 返回当前用户的积分汇总
// start/end 为可选的 YYYY-MM-DD 区间，缺省为截至今天的 30 天窗口
func (a *API) GetMyPoints(c *gin.Context) {
	start, ok := parseOptionalDateQuery(c.Query("start"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return
	}
	end, ok := parseOptionalDateQuery(c.Query("end"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的结束日期")
		return
	}

	result := a.scores.CalculateUserPoints(currentUserID(c), start, end)
	c.JSON(http.StatusOK, result)
}

// GetLeaderboard 返回完整排行榜并标记当前用户
func (a *API) GetLeaderboard(c *gin.Context) {
	entries, err := a.leaderboard.Build(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "生成排行榜失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   len(entries),
	})
}
