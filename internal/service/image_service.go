package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/observability"
	"storefront/internal/repository"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 10
	MasterMaxSize               = 2048
	ThumbSize                   = 256
	JPEGQuality                 = 82
	WebPQuality                 = 70
)

var allowedRatios = []struct {
	name  string
	ratio float64
}{
	{name: "landscape", ratio: 4.0 / 3.0},
	{name: "square", ratio: 1.0},
	{name: "portrait", ratio: 3.0 / 4.0},
}

type UploadImageInput struct {
	ProductID   uint
	Filename    string
	ContentType string
	AltText     string
	Content     []byte
}

// ImageService stores product pictures under the media root: a JPEG master,
// a WebP copy of it and a small WebP thumbnail.
type ImageService struct {
	products           repository.ProductRepository
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewImageService(products repository.ProductRepository, cfg *config.Config) *ImageService {
	mediaRoot := DefaultMediaRoot
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaRoot != "" {
			mediaRoot = cfg.MediaRoot
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		products:           products,
		mediaRoot:          mediaRoot,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MediaRoot is the directory /media/ is served from.
func (s *ImageService) MediaRoot() string {
	return s.mediaRoot
}

// MaxUploadSizeBytes is the largest accepted upload.
func (s *ImageService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload validates and normalizes the picture, writes its files and records
// it as the product's last image.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.ProductImage, error) {
	if len(in.Content) == 0 {
		return nil, models.NewFieldError("image", "No file was submitted.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewFieldError("image", fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewFieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewFieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewFieldError("image", "Unsupported image format.")
	}
	sourceMimeType := decodedFormatToMime(format)
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, models.NewFieldError("image", "Image content type mismatch.")
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	masterJPG, masterWebP, thumbWebP, err := renderVariants(ctx, decoded, format)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := contentHash(product.ID, masterJPG)[:16]
	dir := filepath.Join("products", fmt.Sprint(product.ID))
	files := []struct {
		rel  string
		data []byte
	}{
		{filepath.ToSlash(filepath.Join(dir, name+".jpg")), masterJPG},
		{filepath.ToSlash(filepath.Join(dir, name+".webp")), masterWebP},
		{filepath.ToSlash(filepath.Join(dir, name+"_thumb.webp")), thumbWebP},
	}

	var written []string
	for _, f := range files {
		abs := filepath.Join(s.mediaRoot, filepath.FromSlash(f.rel))
		if err := writeBytesToFile(abs, f.data); err != nil {
			cleanupImageFiles(written)
			return nil, models.NewInternalError(err)
		}
		written = append(written, abs)
	}

	sortOrder, err := s.products.NextImageSortOrder(ctx, product.ID)
	if err != nil {
		cleanupImageFiles(written)
		return nil, err
	}

	alt := strings.TrimSpace(in.AltText)
	if alt == "" {
		alt = product.Name
	}
	record := &models.ProductImage{
		ProductID: product.ID,
		ImagePath: files[0].rel,
		WebPPath:  files[1].rel,
		ThumbPath: files[2].rel,
		AltText:   alt,
		SortOrder: sortOrder,
	}
	if err := s.products.AddImage(ctx, record); err != nil {
		cleanupImageFiles(written)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "product image stored",
		slog.Uint64("product_id", uint64(product.ID)),
		slog.String("path", record.ImagePath),
		slog.Int("bytes", len(masterJPG)),
	)
	return record, nil
}

// renderVariants crops and scales src, then encodes the master picture as
// JPEG and WebP and the thumbnail as WebP.
func renderVariants(ctx context.Context, src image.Image, format string) (masterJPG, masterWebP, thumbWebP []byte, err error) {
	b := src.Bounds()
	mode, cropX, cropY, cropW, cropH := selectCropMode(b.Dx(), b.Dy())
	_, end := observability.StartSpan(ctx, "image.render",
		attribute.String("image.format", format),
		attribute.String("image.crop", mode),
		attribute.Int("image.width", b.Dx()),
		attribute.Int("image.height", b.Dy()),
	)
	defer end(&err)

	master := resizeToFit(cropOnWhite(src, b.Min.X+cropX, b.Min.Y+cropY, cropW, cropH), MasterMaxSize, MasterMaxSize)
	thumb := resizeToFit(master, ThumbSize, ThumbSize)

	if masterJPG, err = encodeJPEG(master, JPEGQuality); err != nil {
		return nil, nil, nil, err
	}
	if masterWebP, err = encodeWebP(master, WebPQuality); err != nil {
		return nil, nil, nil, err
	}
	if thumbWebP, err = encodeWebP(thumb, WebPQuality); err != nil {
		return nil, nil, nil, err
	}
	return masterJPG, masterWebP, thumbWebP, nil
}

// MediaURL is the public URL of a path relative to the media root.
func MediaURL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + strings.TrimLeft(filepath.ToSlash(rel), "/")
}

func selectCropMode(w, h int) (mode string, cropX, cropY, cropW, cropH int) {
	if w <= 0 || h <= 0 {
		return "free", 0, 0, w, h
	}
	ratio := float64(w) / float64(h)
	bestMode := "square"
	bestRatio := 1.0
	bestDist := absFloat(ratio - 1.0)
	for _, r := range allowedRatios {
		d := absFloat(ratio - r.ratio)
		if d < bestDist {
			bestDist = d
			bestRatio = r.ratio
			bestMode = r.name
		}
	}

	if ratio > bestRatio {
		cropH = h
		cropW = int(float64(h) * bestRatio)
		cropX = (w - cropW) / 2
		cropY = 0
	} else {
		cropW = w
		cropH = int(float64(w) / bestRatio)
		cropX = 0
		cropY = (h - cropH) / 2
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	return bestMode, cropX, cropY, cropW, cropH
}

// cropOnWhite copies the rectangle onto an opaque white canvas so
// transparent areas do not turn black in the JPEG master.
func cropOnWhite(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Over)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func contentHash(productID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", productID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
