package validator

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizrunner/internal/model"
)

func newContext(method, contentType, body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", contentType)
	return c
}

func TestBindTranslatesFieldErrors(t *testing.T) {
	Setup()

	c := newContext(http.MethodPost, "application/json", `{"panel":"summary"}`)
	var req model.PanelRequest
	fields := Bind(c, &req)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if msg, ok := fields["panel"]; !ok || !strings.Contains(msg, "one of") {
		t.Fatalf("fields = %v", fields)
	}
}

func TestBindAcceptsZeroOptionID(t *testing.T) {
	Setup()

	c := newContext(http.MethodPost, "application/json", `{"option_id":0}`)
	var req model.AnswerRequest
	if fields := Bind(c, &req); fields != nil {
		t.Fatalf("unexpected errors %v", fields)
	}
	if req.OptionID == nil || *req.OptionID != 0 {
		t.Fatalf("OptionID = %v", req.OptionID)
	}
}

func TestBindReportsSyntaxErrors(t *testing.T) {
	Setup()

	c := newContext(http.MethodPost, "application/json", `{`)
	var req model.AnswerRequest
	fields := Bind(c, &req)
	if _, ok := fields["detail"]; !ok {
		t.Fatalf("fields = %v", fields)
	}
}

func TestBindForm(t *testing.T) {
	Setup()

	form := url.Values{"option_id": {"12"}}.Encode()
	c := newContext(http.MethodPost, "application/x-www-form-urlencoded", form)
	var req model.AnswerRequest
	if fields := BindForm(c, &req); fields != nil {
		t.Fatalf("unexpected errors %v", fields)
	}
	if *req.OptionID != 12 {
		t.Fatalf("OptionID = %d", *req.OptionID)
	}

	c = newContext(http.MethodPost, "application/x-www-form-urlencoded", "")
	req = model.AnswerRequest{}
	if fields := BindForm(c, &req); fields["option_id"] == "" {
		t.Fatalf("missing option_id not reported: %v", fields)
	}
}
