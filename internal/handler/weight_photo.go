package handler

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

const thumbnailMaxWidth = 320

// makeThumbnail 读取照片并按最大宽度等比缩放，输出 JPEG 缩略图
func makeThumbnail(srcPath, dstPath string, maxWidth int) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("decode photo: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	defer dst.Close()

	if err := jpeg.Encode(dst, scaled, &jpeg.Options{Quality: 80}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}
