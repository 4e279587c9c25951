package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartPhoto(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadPhoto(t *testing.T) {
	api := newTestAPI(t)
	router := newTestRouter(api)
	token := signupToken(t, router, "photo@example.com")

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	body, contentType := multipartPhoto(t, "sunset.bin", encoded.Bytes())
	request := httptest.NewRequest(http.MethodPost, "/api/uploads/photo", body)
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	url := payload["url"].(string)
	if !strings.HasPrefix(url, "/static/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %q", url)
	}
	if payload["width"].(float64) != 3 || payload["height"].(float64) != 2 {
		t.Fatalf("unexpected dimensions %#v", payload)
	}
	if _, err := os.Stat(filepath.Join(api.uploadDir, filepath.Base(url))); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	textBody, textType := multipartPhoto(t, "note.png", []byte("not an image"))
	request = httptest.NewRequest(http.MethodPost, "/api/uploads/photo", textBody)
	request.Header.Set("Content-Type", textType)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image, got %d", recorder.Code)
	}
}
