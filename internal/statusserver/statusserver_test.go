package statusserver

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	return New(":0", true)
}

func TestHandlePing(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	s.router.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "pong" {
		t.Fatalf("body = %q, want pong", w.Body.String())
	}
}

func TestGeneratorStatus_NotFoundUntilSet(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/status/generator", nil)
	s.router.ServeHTTP(w, req)
	if w.Code != 404 {
		t.Fatalf("status = %d, want 404 before SetGenerator", w.Code)
	}

	s.SetGenerator(&GeneratorStatus{TableName: "ntlm_loweralpha#1-7_0_450000x22", ChainsDone: 10, ChainsTotal: 100})
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/status/generator", nil)
	s.router.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200 after SetGenerator", w.Code)
	}
}

func TestLookupStatus_NotFoundUntilSet(t *testing.T) {
	s := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/status/lookup", nil)
	s.router.ServeHTTP(w, req)
	if w.Code != 404 {
		t.Fatalf("status = %d, want 404 before SetLookup", w.Code)
	}

	s.SetLookup(&LookupStatus{TargetsTotal: 5, TargetsCracked: 2})
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/status/lookup", nil)
	s.router.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200 after SetLookup", w.Code)
	}
}
