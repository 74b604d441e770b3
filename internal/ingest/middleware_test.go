package ingest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

func signatureRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/hook", VerifySignature(secret, logger.New("development")), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return engine
}

func TestVerifySignatureAccepts(t *testing.T) {
	body := []byte(`{"event_type":"purchase"}`)
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("topsecret", body))

	w := httptest.NewRecorder()
	signatureRouter("topsecret").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != string(body) {
		t.Fatalf("body not re-buffered for handler: %q", w.Body.String())
	}
}

func TestVerifySignatureRejectsBadSignature(t *testing.T) {
	body := []byte(`{"event_type":"purchase"}`)
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("wrong-secret", body))

	w := httptest.NewRecorder()
	signatureRouter("topsecret").ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestVerifySignatureRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{}`)))

	w := httptest.NewRecorder()
	signatureRouter("topsecret").ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestVerifySignatureDisabledWithoutSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader([]byte(`{}`)))

	w := httptest.NewRecorder()
	signatureRouter("").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when secret unset", w.Code)
	}
}
