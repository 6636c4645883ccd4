package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/burnlog/internal/db"
	"github.com/burnlog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListWeights 返回当前用户的称重历史，按时间升序
func (a *API) ListWeights(c *gin.Context) {
	entries, err := a.weights.ListAsc(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取称重记录失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, weightToPayload(entry))
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

// CreateWeight 新增一次称重，支持附带照片凭证
// 照片按日期+UUID 落盘，同时生成缩略图
func (a *API) CreateWeight(c *gin.Context) {
	weightValue, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("weight")), 64)
	if err != nil || weightValue <= 0 {
		respondError(c, http.StatusBadRequest, "无效的体重数值")
		return
	}

	input := service.WeightInput{
		UserID: currentUserID(c),
		Weight: weightValue,
		Notes:  c.PostForm("notes"),
	}

	if file, err := c.FormFile("photo"); err == nil {
		// 检查文件类型
		contentType := file.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			respondError(c, http.StatusBadRequest, "只允许上传图片文件")
			return
		}

		if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
			respondError(c, http.StatusInternalServerError, "创建上传目录失败")
			return
		}

		// 生成唯一文件名
		ext := filepath.Ext(file.Filename)
		newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
		filePath := filepath.Join(a.uploadDir, newFilename)

		if err := c.SaveUploadedFile(file, filePath); err != nil {
			respondError(c, http.StatusInternalServerError, "保存照片失败")
			return
		}

		input.PhotoURL = fmt.Sprintf("%s/%s", a.uploadURL, newFilename)

		thumbFilename := fmt.Sprintf("thumb-%s.jpg", strings.TrimSuffix(newFilename, ext))
		if err := makeThumbnail(filePath, filepath.Join(a.uploadDir, thumbFilename), thumbnailMaxWidth); err == nil {
			input.ThumbURL = fmt.Sprintf("%s/%s", a.uploadURL, thumbFilename)
		}
	}

	entry, err := a.weights.Add(input)
	if err != nil {
		if errors.Is(err, service.ErrWeightInvalid) {
			respondError(c, http.StatusBadRequest, "无效的体重数值")
			return
		}
		respondError(c, http.StatusInternalServerError, "保存称重记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": weightToPayload(*entry)})
}

func weightToPayload(entry db.WeightEntry) gin.H {
	item := gin.H{
		"id":         entry.ID,
		"weight":     entry.Weight,
		"created_at": entry.CreatedAt.Format(time.RFC3339),
		"notes":      entry.Notes,
	}
	if entry.PhotoURL != "" {
		item["photo_url"] = entry.PhotoURL
	}
	if entry.ThumbURL != "" {
		item["thumb_url"] = entry.ThumbURL
	}
	return item
}
