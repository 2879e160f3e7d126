package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/scenariolabs/imagevault/pkg/config"
	"github.com/scenariolabs/imagevault/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
)

const (
	testSigningSecret = "integration-signing-secret-32bytes!"
	testLoginSecret   = "integration-login-secret"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := &config.Config{
		RedisAddr:     mr.Addr(),
		LogLevel:      "error",
		LogFormat:     "json",
		Env:           "test",
		SigningSecret: testSigningSecret,
		LoginSecret:   testLoginSecret,
		ImagesDir:     t.TempDir(),
		PublicBaseURL: "http://vault.test",
	}
	applyTestDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validate: %v", err)
	}

	application, err := NewApplication(cfg)
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	SetupMappings(application)
	if err := application.Startup(context.Background()); err != nil {
		t.Fatalf("Startup: %v", err)
	}

	srv := httptest.NewServer(application.Engine)
	t.Cleanup(srv.Close)
	return srv
}

func applyTestDefaults(cfg *config.Config) {
	if cfg.TokenTTLHours == 0 {
		cfg.TokenTTLHours = 24
	}
	if cfg.TempURLTTLMinutes == 0 {
		cfg.TempURLTTLMinutes = 10
	}
	if cfg.TempURLMaxTTLMinutes == 0 {
		cfg.TempURLMaxTTLMinutes = 24 * 60
	}
	if cfg.MaxFileSizeBytes == 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
}

func loginEdit(t *testing.T, baseURL string) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	status, body := doJSON(t, http.MethodPost, baseURL+"/v1/images/auth/login/edit", "",
		map[string]any{"secretKey": testLoginSecret}, &resp)
	if status != http.StatusOK {
		t.Fatalf("login edit status %d body=%s", status, body)
	}
	if resp.Token == "" {
		t.Fatal("missing edit token")
	}
	return resp.Token
}

func loginDownload(t *testing.T, baseURL string, envID int64) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	status, body := doJSON(t, http.MethodPost, baseURL+"/v1/images/auth/login/download", "",
		map[string]any{"secretKey": testLoginSecret, "environmentId": envID}, &resp)
	if status != http.StatusOK {
		t.Fatalf("login download status %d body=%s", status, body)
	}
	return resp.Token
}

func uploadImage(t *testing.T, baseURL, editToken, envID, imageName string) domain.Image {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("environmentId", envID)
	_ = w.WriteField("imageName", imageName)
	fw, _ := w.CreateFormFile("file", imageName+".png")
	_, _ = fw.Write([]byte("png-bytes-" + imageName))
	_ = w.Close()

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/v1/images", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+editToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status %d body=%s", resp.StatusCode, b)
	}
	var img domain.Image
	if err := json.Unmarshal(b, &img); err != nil {
		t.Fatalf("upload response: %v", err)
	}
	return img
}

func TestUploadListDownloadFlow(t *testing.T) {
	srv := newTestServer(t)

	editToken := loginEdit(t, srv.URL)
	img := uploadImage(t, srv.URL, editToken, "42", "banner")

	// Listing requires a download token for the same environment.
	dlToken := loginDownload(t, srv.URL, 42)
	var listResp struct {
		Images []domain.Image `json:"images"`
	}
	status, body := doJSON(t, http.MethodGet, srv.URL+"/v1/images/environment/42", dlToken, nil, &listResp)
	if status != http.StatusOK {
		t.Fatalf("list status %d body=%s", status, body)
	}
	if len(listResp.Images) != 1 || listResp.Images[0].ID != img.ID {
		t.Fatalf("unexpected list: %+v", listResp.Images)
	}

	// A token for another environment is rejected.
	otherToken := loginDownload(t, srv.URL, 7)
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/images/environment/42", otherToken, nil, nil)
	if status != http.StatusForbidden {
		t.Fatalf("cross-environment list status %d, want 403", status)
	}

	// File download with the matching token streams the bytes back.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/images/file/"+img.FileName, nil)
	req.Header.Set("Authorization", "Bearer "+dlToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("download request: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status %d body=%s", resp.StatusCode, data)
	}
	if string(data) != "png-bytes-banner" {
		t.Fatalf("download content = %q", data)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/png") {
		t.Fatalf("Content-Type = %s", ct)
	}
}

func TestUploadRequiresEditToken(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("environmentId", "1")
	_ = w.WriteField("imageName", "x")
	fw, _ := w.CreateFormFile("file", "x.png")
	_, _ = fw.Write([]byte("x"))
	_ = w.Close()
	payload := buf.Bytes()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/images", bytes.NewReader(payload))
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	// A download token lacks the upload permission.
	dlToken := loginDownload(t, srv.URL, 1)
	req2, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/images", bytes.NewReader(payload))
	req2.Header.Set("Content-Type", w.FormDataContentType())
	req2.Header.Set("Authorization", "Bearer "+dlToken)
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp2.StatusCode)
	}
}

func TestRenameDeleteFlow(t *testing.T) {
	srv := newTestServer(t)

	editToken := loginEdit(t, srv.URL)
	img := uploadImage(t, srv.URL, editToken, "1", "old-name")

	var renamed domain.Image
	status, body := doJSON(t, http.MethodPatch, srv.URL+"/v1/images/"+itoa(img.ID)+"/name", editToken,
		map[string]any{"imageName": "new-name"}, &renamed)
	if status != http.StatusOK {
		t.Fatalf("rename status %d body=%s", status, body)
	}
	if renamed.ImageName != "new-name" {
		t.Fatalf("ImageName = %s", renamed.ImageName)
	}

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/images/"+itoa(img.ID), editToken, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete status %d", status)
	}

	dlToken := loginDownload(t, srv.URL, 1)
	var countResp struct {
		Count int64 `json:"count"`
	}
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/images/environment/1/count", dlToken, nil, &countResp)
	if status != http.StatusOK || countResp.Count != 0 {
		t.Fatalf("count after delete = %d (status %d)", countResp.Count, status)
	}
}

func TestTempURLAndSecureDownload(t *testing.T) {
	srv := newTestServer(t)

	editToken := loginEdit(t, srv.URL)
	img := uploadImage(t, srv.URL, editToken, "9", "secret-art")
	dlToken := loginDownload(t, srv.URL, 9)

	var tempResp struct {
		URL   string `json:"url"`
		Token string `json:"token"`
	}
	status, body := doJSON(t, http.MethodPost, srv.URL+"/v1/images/temp-url", dlToken,
		map[string]any{"environmentId": 9, "fileName": img.FileName, "expirationMinutes": 5}, &tempResp)
	if status != http.StatusOK {
		t.Fatalf("temp-url status %d body=%s", status, body)
	}
	if tempResp.Token == "" || !strings.Contains(tempResp.URL, "/v1/images/secure/9/") {
		t.Fatalf("unexpected temp-url response: %+v", tempResp)
	}

	// The signed URL works with no Authorization header at all.
	secureURL := srv.URL + "/v1/images/secure/9/" + img.FileName + "?token=" + tempResp.Token
	resp, err := http.Get(secureURL)
	if err != nil {
		t.Fatalf("secure request: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("secure status %d body=%s", resp.StatusCode, data)
	}
	if string(data) != "png-bytes-secret-art" {
		t.Fatalf("secure content = %q", data)
	}

	// The same token cannot fetch a different file.
	other := uploadImage(t, srv.URL, editToken, "9", "other-art")
	otherURL := srv.URL + "/v1/images/secure/9/" + other.FileName + "?token=" + tempResp.Token
	resp2, err := http.Get(otherURL)
	if err != nil {
		t.Fatalf("secure request: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusForbidden {
		t.Fatalf("secure status for wrong file = %d, want 403", resp2.StatusCode)
	}
}

func TestValidateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	dlToken := loginDownload(t, srv.URL, 3)
	var resp map[string]any
	status, body := doJSON(t, http.MethodPost, srv.URL+"/v1/images/auth/validate", "",
		map[string]any{"token": dlToken}, &resp)
	if status != http.StatusOK {
		t.Fatalf("validate status %d body=%s", status, body)
	}
	if resp["valid"] != true {
		t.Fatalf("expected valid token: %v", resp)
	}
	if resp["kind"] != "DOWNLOAD_PERMISSION" {
		t.Fatalf("kind = %v", resp["kind"])
	}

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/images/auth/validate", "",
		map[string]any{"token": "garbage"}, &resp)
	if status != http.StatusOK || resp["valid"] != false {
		t.Fatalf("expected valid=false for garbage, got %v (status %d)", resp, status)
	}
}

func TestLoginRejectsWrongSecret(t *testing.T) {
	srv := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/images/auth/login/edit", "",
		map[string]any{"secretKey": "wrong"}, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func doJSON(t *testing.T, method, url, token string, body any, out any) (int, string) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	}
	req, _ := http.NewRequest(method, url, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_ = json.Unmarshal(b, out)
	}
	return resp.StatusCode, string(b)
}
