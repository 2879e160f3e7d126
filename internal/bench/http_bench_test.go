package bench

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/scenariolabs/imagevault/pkg/app"
	"github.com/scenariolabs/imagevault/pkg/config"
	"github.com/scenariolabs/imagevault/pkg/token"
)

const (
	benchSigningSecret = "benchmark-signing-secret-32-bytes!!"
	benchLoginSecret   = "benchmark-login-secret"
)

func newBenchApp(b *testing.B) *app.Application {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis start: %v", err)
	}
	b.Cleanup(mr.Close)

	cfg := &config.Config{
		Env:                  "dev",
		LogLevel:             "error",
		LogFormat:            "json",
		RedisAddr:            mr.Addr(),
		SigningSecret:        benchSigningSecret,
		LoginSecret:          benchLoginSecret,
		ImagesDir:            b.TempDir(),
		TokenTTLHours:        24,
		TempURLTTLMinutes:    10,
		TempURLMaxTTLMinutes: 24 * 60,
		MaxFileSizeBytes:     5 * 1024 * 1024,

		// Benchmarks keep rate limiting disabled.
		RateLimit: config.RateLimitConfig{},
	}
	if err := cfg.Validate(); err != nil {
		b.Fatalf("config: %v", err)
	}

	a, err := app.NewApplication(cfg)
	if err != nil {
		b.Fatalf("app init: %v", err)
	}
	app.SetupMappings(a)
	return a
}

func doRequest(b *testing.B, h http.Handler, method, path, bearerToken, contentType string, body []byte) (int, []byte) {
	b.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func multipartUpload(b *testing.B, envID int64, imageName string, data []byte) ([]byte, string) {
	b.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("environmentId", fmt.Sprintf("%d", envID))
	_ = w.WriteField("imageName", imageName)
	fw, _ := w.CreateFormFile("file", imageName+".png")
	_, _ = fw.Write(data)
	_ = w.Close()
	return buf.Bytes(), w.FormDataContentType()
}

func BenchmarkHTTP_UploadDownload(b *testing.B) {
	a := newBenchApp(b)

	editToken, err := a.Issuer.IssueEditToken()
	if err != nil {
		b.Fatalf("issue edit token: %v", err)
	}
	dlToken, err := a.Issuer.IssueEnvironmentDownloadToken(1)
	if err != nil {
		b.Fatalf("issue download token: %v", err)
	}
	payload := bytes.Repeat([]byte("imagevault"), 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body, ct := multipartUpload(b, 1, fmt.Sprintf("bench-%d", i), payload)
		status, resp := doRequest(b, a.Engine, http.MethodPost, "/v1/images", editToken, ct, body)
		if status != http.StatusCreated {
			b.Fatalf("upload status %d body=%s", status, string(resp))
		}
		var img struct {
			FileName string `json:"fileName"`
		}
		if err := json.Unmarshal(resp, &img); err != nil || img.FileName == "" {
			b.Fatalf("upload parse failed: err=%v body=%s", err, string(resp))
		}

		status, resp = doRequest(b, a.Engine, http.MethodGet, "/v1/images/file/"+img.FileName, dlToken, "", nil)
		if status != http.StatusOK {
			b.Fatalf("download status %d body=%s", status, string(resp))
		}
	}
}

func BenchmarkHTTP_ListImages(b *testing.B) {
	a := newBenchApp(b)

	editToken, err := a.Issuer.IssueEditToken()
	if err != nil {
		b.Fatalf("issue edit token: %v", err)
	}
	dlToken, err := a.Issuer.IssueEnvironmentDownloadToken(1)
	if err != nil {
		b.Fatalf("issue download token: %v", err)
	}

	const prefill = 100
	for i := 0; i < prefill; i++ {
		body, ct := multipartUpload(b, 1, fmt.Sprintf("seed-%d", i), []byte("png"))
		status, resp := doRequest(b, a.Engine, http.MethodPost, "/v1/images", editToken, ct, body)
		if status != http.StatusCreated {
			b.Fatalf("prefill upload status %d body=%s", status, string(resp))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		status, resp := doRequest(b, a.Engine, http.MethodGet, "/v1/images/environment/1", dlToken, "", nil)
		if status != http.StatusOK {
			b.Fatalf("list status %d body=%s", status, string(resp))
		}
	}
}

func BenchmarkToken_IssueAuthorize(b *testing.B) {
	key, err := token.NewSigningKey(benchSigningSecret)
	if err != nil {
		b.Fatalf("signing key: %v", err)
	}
	issuer := token.NewIssuer(key, 0, 0, nil)
	validator := token.NewValidator(key, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tok, err := issuer.IssueEnvironmentDownloadToken(42)
		if err != nil {
			b.Fatalf("issue: %v", err)
		}
		dec := validator.Authorize(tok, token.PermissionDownload, token.WithEnvironment(42))
		if !dec.Allowed {
			b.Fatalf("authorize denied: %s", dec.Reason)
		}
	}
}

func BenchmarkToken_Authorize(b *testing.B) {
	key, err := token.NewSigningKey(benchSigningSecret)
	if err != nil {
		b.Fatalf("signing key: %v", err)
	}
	issuer := token.NewIssuer(key, 0, 0, nil)
	validator := token.NewValidator(key, nil)

	tok, err := issuer.IssueEnvironmentDownloadToken(42)
	if err != nil {
		b.Fatalf("issue: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dec := validator.Authorize(tok, token.PermissionDownload, token.WithEnvironment(42))
		if !dec.Allowed {
			b.Fatalf("authorize denied: %s", dec.Reason)
		}
	}
}
