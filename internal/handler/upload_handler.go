package handler

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const maxPhotoBytes = 8 << 20

var photoExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"webp": ".webp",
}

// UploadPhoto 保存心情记录附带的照片，返回可写入 photo_url 的地址
func (a *API) UploadPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的照片")
		return
	}
	if file.Size > maxPhotoBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "照片不能超过 8MB")
		return
	}

	// 按内容识别格式，不信任 Content-Type
	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取照片失败")
		return
	}
	cfg, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "只允许上传 JPEG、PNG 或 WebP 图片")
		return
	}
	ext, ok := photoExtensions[format]
	if !ok {
		respondError(c, http.StatusBadRequest, "只允许上传 JPEG、PNG 或 WebP 图片")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		a.log.Error("create upload dir failed", "dir", a.uploadDir, "error", err)
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	filename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(a.uploadDir, filename)); err != nil {
		a.log.Error("save photo failed", "error", err)
		respondError(c, http.StatusInternalServerError, "保存照片失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":    path.Join(a.uploadURL, filename),
		"format": format,
		"width":  cfg.Width,
		"height": cfg.Height,
	})
}
