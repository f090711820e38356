package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/repository"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png failed: %v", err)
	}
	return buf.Bytes()
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer failed: %v", err)
	}
	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form failed: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func setupARTest(t *testing.T, handler http.HandlerFunc) (*ARService, *commerceTestEnv) {
	t.Helper()
	env := setupCommerceTest(t)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc := NewARService(
		config.ARConfig{ServiceURL: server.URL + "/", TimeoutSeconds: 5, MaxImageBytes: 1024 * 1024},
		repository.NewProductRepository(env.db),
		repository.NewTryOnRepository(env.db),
		nil,
	)
	return svc, env
}

func withProductImage(t *testing.T, env *commerceTestEnv, product *models.Product) {
	t.Helper()
	img := &models.ProductImage{ProductID: product.ID, ImageURL: "https://cdn.example.com/frame.png", IsPrimary: true}
	if err := env.db.Create(img).Error; err != nil {
		t.Fatalf("create product image failed: %v", err)
	}
}

func TestARTryOnForwardsToService(t *testing.T) {
	var received tryOnRequest
	svc, env := setupARTest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/try-on" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":          true,
			"try_on_image":     "data:image/jpeg;base64,AAAA",
			"confidence_score": 0.92,
		})
	})
	user := env.createUser(t, "tryon@example.com")
	product := env.createProduct(t, "SKU-AR", "120.00", 3)
	withProductImage(t, env, product)

	result, err := svc.TryOn(context.Background(), user.ID, product.ID, fileHeader(t, "face.png", pngBytes(t)))
	if err != nil {
		t.Fatalf("try on failed: %v", err)
	}
	if result.TryOnImage != "data:image/jpeg;base64,AAAA" || result.ConfidenceScore != 0.92 || !result.FaceDetected {
		t.Fatalf("unexpected result: %+v", result)
	}
	if received.UserImage == "" || received.ProductImageURL != "https://cdn.example.com/frame.png" {
		t.Fatalf("unexpected forwarded payload: %+v", received)
	}
	if received.ProductInfo["frame_type"] != "eyeglasses" {
		t.Fatalf("expected product info forwarded, got %v", received.ProductInfo)
	}
}

func TestARTryOnValidation(t *testing.T) {
	svc, env := setupARTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	user := env.createUser(t, "tryon-v@example.com")
	product := env.createProduct(t, "SKU-ARV", "120.00", 3)
	ctx := context.Background()

	if _, err := svc.TryOn(ctx, user.ID, product.ID, fileHeader(t, "face.gif", pngBytes(t))); !errors.Is(err, ErrFileTypeInvalid) {
		t.Fatalf("expected ErrFileTypeInvalid, got %v", err)
	}
	if _, err := svc.TryOn(ctx, user.ID, product.ID, fileHeader(t, "face.png", []byte("not an image"))); !errors.Is(err, ErrFileTypeInvalid) {
		t.Fatalf("expected ErrFileTypeInvalid for bad content, got %v", err)
	}
	if _, err := svc.TryOn(ctx, user.ID, 9999, fileHeader(t, "face.png", pngBytes(t))); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.TryOn(ctx, user.ID, product.ID, fileHeader(t, "face.png", pngBytes(t))); !errors.Is(err, ErrProductImageMissing) {
		t.Fatalf("expected ErrProductImageMissing, got %v", err)
	}

	withProductImage(t, env, product)
	if _, err := svc.TryOn(ctx, user.ID, product.ID, fileHeader(t, "face.png", pngBytes(t))); !errors.Is(err, ErrARServiceUnavailable) {
		t.Fatalf("expected ErrARServiceUnavailable, got %v", err)
	}

	env.db.Model(product).Update("frame_type", "accessory")
	if _, err := svc.TryOn(ctx, user.ID, product.ID, fileHeader(t, "face.png", pngBytes(t))); !errors.Is(err, ErrNotEyewear) {
		t.Fatalf("expected ErrNotEyewear, got %v", err)
	}
}

func TestARCompatibilityReportsReasons(t *testing.T) {
	svc, env := setupARTest(t, func(w http.ResponseWriter, r *http.Request) {})
	product := env.createProduct(t, "SKU-ARC", "99.00", 1)

	report, err := svc.CheckCompatibility(product.ID)
	if err != nil {
		t.Fatalf("compatibility failed: %v", err)
	}
	if report.ARCompatible || len(report.Reasons) != 2 {
		t.Fatalf("expected two blocking reasons, got %+v", report.Reasons)
	}
	if report.Reasons[1] != "Missing measurements: frame_width, lens_width, bridge_width" {
		t.Fatalf("unexpected measurement reason: %s", report.Reasons[1])
	}

	withProductImage(t, env, product)
	env.db.Model(product).Updates(map[string]interface{}{"frame_width": 140, "lens_width": 52, "bridge_width": 18, "temple_length": 145})
	report, err = svc.CheckCompatibility(product.ID)
	if err != nil {
		t.Fatalf("compatibility failed: %v", err)
	}
	if !report.ARCompatible || report.ProductInfo.Measurements.TempleLength == nil || *report.ProductInfo.Measurements.TempleLength != 145 {
		t.Fatalf("expected compatible product, got %+v", report)
	}
}

func TestARSaveTryOnAssignsSessionID(t *testing.T) {
	svc, env := setupARTest(t, func(w http.ResponseWriter, r *http.Request) {})
	user := env.createUser(t, "save@example.com")
	product := env.createProduct(t, "SKU-ARS", "99.00", 1)

	if _, err := svc.SaveTryOn(user.ID, SaveTryOnInput{ProductID: product.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	first, err := svc.SaveTryOn(user.ID, SaveTryOnInput{ProductID: product.ID, TryOnImage: "https://cdn.example.com/r1.jpg"})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := svc.SaveTryOn(user.ID, SaveTryOnInput{ProductID: product.ID, TryOnImage: "https://cdn.example.com/r2.jpg", Settings: models.JSON{"scale": 1.1}})
	if err != nil {
		t.Fatalf("save second failed: %v", err)
	}
	if len(first.SessionID) != 26 || first.SessionID == second.SessionID {
		t.Fatalf("expected distinct ulid session ids, got %s %s", first.SessionID, second.SessionID)
	}
}

func TestUploadProductImage(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(config.UploadConfig{Dir: dir, MaxSize: 1024})

	path, err := svc.SaveProductImage(fileHeader(t, "Frame.PNG", pngBytes(t)))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	name := filepath.Base(path)
	if filepath.Ext(name) != ".png" || path != "/uploads/products/"+name {
		t.Fatalf("unexpected upload path: %s", path)
	}
	if _, err := os.Stat(filepath.Join(dir, "products", name)); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	if _, err := svc.SaveProductImage(fileHeader(t, "doc.pdf", pngBytes(t))); !errors.Is(err, ErrFileTypeInvalid) {
		t.Fatalf("expected ErrFileTypeInvalid, got %v", err)
	}
	if _, err := svc.SaveProductImage(fileHeader(t, "big.png", bytes.Repeat([]byte{0x89}, 2048))); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}

	for _, bad := range []string{"../config.yml", "..", "a/b.png", ""} {
		if err := svc.DeleteProductImage(bad); !errors.Is(err, ErrFileNameInvalid) {
			t.Fatalf("expected ErrFileNameInvalid for %q, got %v", bad, err)
		}
	}
	if err := svc.DeleteProductImage(name); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.DeleteProductImage(name); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
