package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/burnlog/internal/db"
	"github.com/burnlog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	ruleMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	ruleSanitizer = bluemonday.UGCPolicy()
)

type rulePayload struct {
	RuleType    string  `json:"rule_type"`
	Points      float64 `json:"points"`
	Description string  `json:"description"`
	Details     string  `json:"details"`
	IsActive    bool    `json:"is_active"`
}

// GetRules 返回启用中的计分规则，Details 渲染为净化后的 HTML
func (a *API) GetRules(c *gin.Context) {
	rules, err := a.rules.ActiveRules()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取计分规则失败")
		return
	}

	items := make([]gin.H, 0, len(rules))
	for _, rule := range rules {
		item := ruleToPayload(rule)
		item["details_html"] = renderRuleDetails(rule.Details)
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"rules": items})
}

// AdminListRules 返回全部规则供后台管理
func (a *API) AdminListRules(c *gin.Context) {
	rules, err := a.rules.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取计分规则失败")
		return
	}

	items := make([]gin.H, 0, len(rules))
	for _, rule := range rules {
		items = append(items, ruleToPayload(rule))
	}
	c.JSON(http.StatusOK, gin.H{"rules": items})
}

// AdminCreateRule 新建计分规则
func (a *API) AdminCreateRule(c *gin.Context) {
	var payload rulePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	rule, err := a.rules.Create(service.RuleInput{
		RuleType:    db.RuleType(payload.RuleType),
		Points:      payload.Points,
		Description: payload.Description,
		Details:     payload.Details,
		IsActive:    payload.IsActive,
	})
	if err != nil {
		handleRuleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": ruleToPayload(*rule)})
}

// AdminUpdateRule 更新计分规则
func (a *API) AdminUpdateRule(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的规则ID")
		return
	}

	var payload rulePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	rule, err := a.rules.Update(id, service.RuleInput{
		RuleType:    db.RuleType(payload.RuleType),
		Points:      payload.Points,
		Description: payload.Description,
		Details:     payload.Details,
		IsActive:    payload.IsActive,
	})
	if err != nil {
		handleRuleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": ruleToPayload(*rule)})
}

// AdminDeleteRule 删除计分规则
func (a *API) AdminDeleteRule(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的规则ID")
		return
	}

	if err := a.rules.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, "删除规则失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func ruleToPayload(rule db.ChallengeRule) gin.H {
	return gin.H{
		"id":          rule.ID,
		"rule_type":   string(rule.RuleType),
		"points":      rule.Points,
		"description": rule.Description,
		"details":     rule.Details,
		"is_active":   rule.IsActive,
	}
}

// renderRuleDetails 把规则详情的 Markdown 渲染为净化后的 HTML
func renderRuleDetails(details string) string {
	if details == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := ruleMarkdown.Convert([]byte(details), &buf); err != nil {
		return ruleSanitizer.Sanitize(details)
	}
	return ruleSanitizer.Sanitize(buf.String())
}

func handleRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRuleNotFound):
		respondError(c, http.StatusNotFound, "规则不存在")
	case errors.Is(err, service.ErrRuleInvalidType):
		respondError(c, http.StatusBadRequest, "规则类型无效")
	case errors.Is(err, service.ErrRuleDuplicate):
		respondError(c, http.StatusBadRequest, "同类型已存在启用中的规则")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
