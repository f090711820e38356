package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/metrics"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/repository"

	"github.com/oklog/ulid/v2"
)

const (
	defaultTryOnConfidence = 0.8
	maxARResponseBytes     = 20 * 1024 * 1024
)

var tryOnImageExtensions = []string{".png", ".jpg", ".jpeg"}

// ARService 虚拟试戴代理服务
type ARService struct {
	baseURL       string
	maxImageBytes int64
	client        *http.Client
	productRepo   repository.ProductRepository
	tryOnRepo     repository.TryOnRepository
	metrics       *metrics.CommerceMetrics
}

// NewARService 创建虚拟试戴服务
func NewARService(cfg config.ARConfig, productRepo repository.ProductRepository, tryOnRepo repository.TryOnRepository, m *metrics.CommerceMetrics) *ARService {
	maxImageBytes := cfg.MaxImageBytes
	if maxImageBytes <= 0 {
		maxImageBytes = 10 * 1024 * 1024
	}
	return &ARService{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.ServiceURL), "/"),
		maxImageBytes: maxImageBytes,
		client:        &http.Client{Timeout: cfg.Timeout()},
		productRepo:   productRepo,
		tryOnRepo:     tryOnRepo,
		metrics:       m,
	}
}

// ProductMeasurements 镜框尺寸
type ProductMeasurements struct {
	FrameWidth   *int `json:"frame_width"`
	LensWidth    *int `json:"lens_width"`
	BridgeWidth  *int `json:"bridge_width"`
	TempleLength *int `json:"temple_length"`
}

// TryOnProductInfo 试戴商品信息
type TryOnProductInfo struct {
	ID           uint                `json:"id"`
	Name         string              `json:"name"`
	FrameType    string              `json:"frame_type"`
	FrameShape   string              `json:"frame_shape"`
	Color        string              `json:"color"`
	Measurements ProductMeasurements `json:"measurements"`
}

func buildTryOnProductInfo(product *models.Product) TryOnProductInfo {
	return TryOnProductInfo{
		ID:         product.ID,
		Name:       product.Name,
		FrameType:  product.FrameType,
		FrameShape: product.FrameShape,
		Color:      product.FrameColor,
		Measurements: ProductMeasurements{
			FrameWidth:   product.FrameWidth,
			LensWidth:    product.LensWidth,
			BridgeWidth:  product.BridgeWidth,
			TempleLength: product.TempleLength,
		},
	}
}

// Compatibility 试戴兼容性
type Compatibility struct {
	ARCompatible bool             `json:"ar_compatible"`
	Reasons      []string         `json:"reasons"`
	ProductInfo  TryOnProductInfo `json:"product_info"`
}

// CheckCompatibility 检查商品是否支持虚拟试戴
func (s *ARService) CheckCompatibility(productID uint) (*Compatibility, error) {
	product, err := s.activeProduct(productID)
	if err != nil {
		return nil, err
	}

	reasons := make([]string, 0)
	if !product.IsEyewear() {
		reasons = append(reasons, "Product must be eyeglasses or sunglasses")
	}
	if len(product.Images) == 0 {
		reasons = append(reasons, "Product must have images")
	}
	missing := make([]string, 0, 3)
	if product.FrameWidth == nil || *product.FrameWidth == 0 {
		missing = append(missing, "frame_width")
	}
	if product.LensWidth == nil || *product.LensWidth == 0 {
		missing = append(missing, "lens_width")
	}
	if product.BridgeWidth == nil || *product.BridgeWidth == 0 {
		missing = append(missing, "bridge_width")
	}
	if len(missing) > 0 {
		reasons = append(reasons, "Missing measurements: "+strings.Join(missing, ", "))
	}

	return &Compatibility{
		ARCompatible: len(reasons) == 0,
		Reasons:      reasons,
		ProductInfo:  buildTryOnProductInfo(product),
	}, nil
}

// TryOnResult 试戴结果
type TryOnResult struct {
	TryOnImage      string           `json:"try_on_result"`
	ProductInfo     TryOnProductInfo `json:"product_info"`
	ConfidenceScore float64          `json:"confidence_score"`
	FaceDetected    bool             `json:"face_detected"`
}

type tryOnRequest struct {
	UserImage       string                 `json:"user_image"`
	ProductImageURL string                 `json:"product_image_url"`
	ProductInfo     map[string]interface{} `json:"product_info"`
}

type tryOnResponse struct {
	Success         bool     `json:"success"`
	TryOnImage      string   `json:"try_on_image"`
	ConfidenceScore *float64 `json:"confidence_score"`
	FaceDetected    *bool    `json:"face_detected"`
	Error           string   `json:"error"`
}

// TryOn 将用户照片与商品图转发到试戴服务
func (s *ARService) TryOn(ctx context.Context, userID, productID uint, image *multipart.FileHeader) (*TryOnResult, error) {
	encoded, err := s.readImage(image)
	if err != nil {
		return nil, err
	}
	product, err := s.activeProduct(productID)
	if err != nil {
		return nil, err
	}
	if !product.IsEyewear() {
		return nil, ErrNotEyewear
	}
	imageURL := product.PrimaryImageURL()
	if imageURL == "" {
		return nil, ErrProductImageMissing
	}

	payload := tryOnRequest{
		UserImage:       encoded,
		ProductImageURL: imageURL,
		ProductInfo: map[string]interface{}{
			"frame_width":  product.FrameWidth,
			"lens_width":   product.LensWidth,
			"bridge_width": product.BridgeWidth,
			"frame_type":   product.FrameType,
			"color":        product.FrameColor,
		},
	}
	var resp tryOnResponse
	if err := s.post(ctx, "try_on", "/api/try-on", payload, &resp); err != nil {
		logger.Errorw("ar_try_on_failed", "user_id", userID, "product_id", productID, "error", err)
		return nil, ErrARServiceUnavailable
	}
	if !resp.Success {
		reason := strings.TrimSpace(resp.Error)
		if reason == "" {
			reason = "AR processing failed"
		}
		return nil, fmt.Errorf("%w: %s", ErrARProcessingFailed, reason)
	}

	result := &TryOnResult{
		TryOnImage:      resp.TryOnImage,
		ProductInfo:     buildTryOnProductInfo(product),
		ConfidenceScore: defaultTryOnConfidence,
		FaceDetected:    true,
	}
	if resp.ConfidenceScore != nil {
		result.ConfidenceScore = *resp.ConfidenceScore
	}
	if resp.FaceDetected != nil {
		result.FaceDetected = *resp.FaceDetected
	}
	return result, nil
}

// FaceDetectionResult 人脸检测结果（关键点原样透传）
type FaceDetectionResult struct {
	FaceDetected bool            `json:"face_detected"`
	Landmarks    json.RawMessage `json:"landmarks,omitempty"`
	ReadyForAR   bool            `json:"ready_for_ar"`
	Message      string          `json:"message,omitempty"`
}

// DetectFace 转发人脸检测请求
func (s *ARService) DetectFace(ctx context.Context, image *multipart.FileHeader) (*FaceDetectionResult, error) {
	encoded, err := s.readImage(image)
	if err != nil {
		return nil, err
	}
	var resp FaceDetectionResult
	if err := s.post(ctx, "face_detection", "/api/face-detection", map[string]string{"image": encoded}, &resp); err != nil {
		logger.Errorw("ar_face_detection_failed", "error", err)
		return nil, ErrARServiceUnavailable
	}
	if !resp.FaceDetected && resp.Message == "" {
		resp.Message = "No face detected"
	}
	return &resp, nil
}

// SaveTryOnInput 保存试戴结果输入
type SaveTryOnInput struct {
	ProductID  uint
	TryOnImage string
	Settings   models.JSON
}

// SaveTryOn 保存试戴结果
func (s *ARService) SaveTryOn(userID uint, input SaveTryOnInput) (*models.TryOnSession, error) {
	if input.ProductID == 0 || strings.TrimSpace(input.TryOnImage) == "" {
		return nil, newValidationError(ErrInvalidInput, "product_id and try_on_image are required")
	}
	if _, err := s.activeProduct(input.ProductID); err != nil {
		return nil, err
	}
	session := &models.TryOnSession{
		SessionID:      ulid.Make().String(),
		UserID:         userID,
		ProductID:      input.ProductID,
		ResultImageURL: strings.TrimSpace(input.TryOnImage),
		Settings:       input.Settings,
		CreatedAt:      time.Now(),
	}
	if err := s.tryOnRepo.Create(session); err != nil {
		return nil, err
	}
	logger.Infow("ar_try_on_saved", "user_id", userID, "product_id", input.ProductID, "session_id", session.SessionID)
	return session, nil
}

func (s *ARService) activeProduct(productID uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// readImage 校验试戴照片并编码为 base64
func (s *ARService) readImage(image *multipart.FileHeader) (string, error) {
	if image == nil {
		return "", newValidationError(ErrInvalidInput, "image is required")
	}
	if image.Size > s.maxImageBytes {
		return "", fmt.Errorf("%w: max %d MB", ErrFileTooLarge, s.maxImageBytes/1024/1024)
	}
	ext := strings.ToLower(filepath.Ext(image.Filename))
	if !isAllowedExtension(ext, tryOnImageExtensions) {
		return "", fmt.Errorf("%w: %s", ErrFileTypeInvalid, ext)
	}
	src, err := image.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	if err := ensureImageContent(src); err != nil {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	raw, err := io.ReadAll(io.LimitReader(src, s.maxImageBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > s.maxImageBytes {
		return "", ErrFileTooLarge
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (s *ARService) post(ctx context.Context, operation, path string, payload interface{}, out interface{}) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveGateway("ar_"+operation, err, time.Since(started))
	}()
	if s.baseURL == "" {
		return fmt.Errorf("ar service url not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxARResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ar service returned %d: %s", resp.StatusCode, truncateForLog(string(data), 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode ar response: %w", err)
	}
	return nil
}

func truncateForLog(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
