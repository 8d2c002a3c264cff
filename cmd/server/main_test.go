package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/meddev/internal/llm"
	"github.com/Skufu/meddev/internal/logger"
	"github.com/Skufu/meddev/internal/metrics"
	"github.com/Skufu/meddev/internal/reasoning"
)

type fakeHealth struct {
	err error
}

func (f fakeHealth) Ping(ctx context.Context) error {
	return f.err
}

type fakeLLM struct {
	completions []llm.Completion
	err         error
	calls       int
}

func (f *fakeLLM) Complete(_ context.Context, _ []llm.Message) (llm.Completion, error) {
	f.calls++
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	i := f.calls - 1
	if i >= len(f.completions) {
		i = len(f.completions) - 1
	}
	return f.completions[i], nil
}

const validOutput = `PROBLEM REPRESENTATION - A 67-year-old man with fever, hypotension and a lactate of 4.2.
DOMINANT SYNDROME - Septic shock with lactic acidosis from hypoperfusion.
TOP 3 DIFFERENTIALS - Dx1: Urosepsis | posterior: 0.6 | hierarchy: root-cause | for: dysuria; fever; pyuria | against: no flank pain || Dx2: Septic shock | posterior: 0.3 | hierarchy: intermediate-mechanism | for: hypotension; lactate; tachycardia | against: warm peripheries || Dx3: Acute kidney injury | posterior: 0.1 | hierarchy: downstream-complication | for: oliguria; creatinine rise; hypoperfusion | against: normal baseline.
RED FLAGS - Refractory hypotension & rising lactate.
BROAD MANAGEMENT PRINCIPLES - Fluids, cultures and early antibiotics.
CRITICAL MISSING INFORMATION - Urine culture and baseline creatinine.`

const validCase = `{"age": 67, "sex": "Male", "symptoms": "fever", "vitals": "BP 82/50", "labs": "lactate 4.2"}`

func newTestRouter(client llm.Client) (*gin.Engine, *prometheus.Registry) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	o := reasoning.NewOrchestrator(client, reasoning.Options{
		MaxAttempts:    3,
		RepairRequests: true,
		Schema:         reasoning.SchemaPosterior,
		Metrics:        metrics.NewRecorder(reg),
	})
	return setupRouter(o, fakeHealth{}, reg, ".", logger.Nop()), reg
}

func postAnalysis(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAnalysisSuccess(t *testing.T) {
	router, _ := newTestRouter(&fakeLLM{completions: []llm.Completion{{Text: validOutput, FinishReason: "stop"}}})

	w := postAnalysis(router, validCase)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, false, body["repairUsed"])
	assert.Len(t, body["sections"], 6)
	assert.Contains(t, body["html"], "Refractory hypotension &amp; rising lactate.")
	assert.NotContains(t, body, "error")
}

func TestAnalysisSoftFail(t *testing.T) {
	router, _ := newTestRouter(&fakeLLM{completions: []llm.Completion{{Text: "Not <structured> at all.\nSecond line.", FinishReason: "stop"}}})

	w := postAnalysis(router, validCase)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "soft_fail", body["status"])
	assert.Equal(t, reasoning.WarningPartial, body["warning"])
	assert.Equal(t, "<div class='analysis-section'>Not &lt;structured&gt; at all.<br>Second line.</div>", body["html"])
	assert.NotContains(t, body, "sections")
}

func TestAnalysisTransportFailure(t *testing.T) {
	client := &fakeLLM{err: errors.New("dial tcp: refused")}
	router, _ := newTestRouter(client)

	w := postAnalysis(router, validCase)
	require.Equal(t, http.StatusBadGateway, w.Code)

	body := decode(t, w)
	assert.Equal(t, "hard_fail", body["status"])
	assert.Equal(t, reasoning.MessageUnavailable, body["error"])
	assert.Equal(t, string(reasoning.CauseTransport), body["cause"])
	assert.NotContains(t, body, "output")
	assert.NotContains(t, body, "html")
	assert.Equal(t, 1, client.calls)
}

type stubAnalyzer struct {
	res reasoning.Result
}

func (s stubAnalyzer) Run(context.Context, reasoning.CaseInput) reasoning.Result {
	return s.res
}

func TestAnalysisStatusFollowsCause(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tts := []struct {
		name string
		res  reasoning.Result
		code int
	}{
		{"transport", reasoning.Result{Status: reasoning.StatusHardFail, Cause: reasoning.CauseTransport, Error: "custom wording"}, http.StatusBadGateway},
		{"invalid input", reasoning.Result{Status: reasoning.StatusHardFail, Cause: reasoning.CauseInvalidInput, Error: reasoning.MessageInvalidCase}, http.StatusUnprocessableEntity},
		{"exhausted", reasoning.Result{Status: reasoning.StatusHardFail, Cause: reasoning.CauseExhausted, Error: reasoning.MessageUnavailable}, http.StatusOK},
		{"success", reasoning.Result{Status: reasoning.StatusSuccess}, http.StatusOK},
	}
	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(stubAnalyzer{res: tt.res}, nil, nil, ".", logger.Nop())
			w := postAnalysis(router, validCase)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestAnalysisValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(nil, nil, nil, ".", logger.Nop())

	tts := []struct {
		name   string
		body   string
		detail string
	}{
		{"age too high", `{"age": 150, "sex": "Male"}`, "age must be"},
		{"missing age", `{"sex": "Female"}`, "age must be"},
		{"bad sex", `{"age": 40, "sex": "Unknown"}`, "sex must be Male or Female"},
		{"not json", `{"age": "forty"`, "invalid payload"},
	}
	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			w := postAnalysis(router, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			body := strings.ToLower(w.Body.String())
			assert.Contains(t, body, "validation_failed")
			assert.Contains(t, body, strings.ToLower(tt.detail))
		})
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error when no API key is set")
	}
}

func TestLoadConfigUsesDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("PORT", "")
	t.Setenv("MAX_ATTEMPTS", "")
	t.Setenv("SCHEMA_VERSION", "")
	t.Setenv("REPAIR_REQUESTS", "")
	t.Setenv("LLM_MAX_TOKENS", "")
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gsk-test", cfg.LLMAPIKey)
	assert.Equal(t, llm.DefaultModel, cfg.LLMModel)
	assert.Equal(t, llm.DefaultMaxTokens, cfg.LLMMaxTokens)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.True(t, cfg.RepairRequests)
	assert.Equal(t, reasoning.SchemaPosterior, cfg.Schema)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tts := []struct {
		key, value string
	}{
		{"MAX_ATTEMPTS", "5"},
		{"MAX_ATTEMPTS", "two"},
		{"SCHEMA_VERSION", "v9"},
		{"LLM_MAX_TOKENS", "0"},
	}
	for _, tt := range tts {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("LLM_API_KEY", "k")
			t.Setenv(tt.key, tt.value)
			_, err := loadConfig()
			assert.Error(t, err)
		})
	}
}

func TestRouterHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(nil, fakeHealth{}, nil, ".", logger.Nop())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRouterReadyzDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(nil, fakeHealth{err: errors.New("unauthorized")}, nil, ".", logger.Nop())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/readyz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestRouterMetrics(t *testing.T) {
	router, _ := newTestRouter(&fakeLLM{completions: []llm.Completion{{Text: validOutput, FinishReason: "stop"}}})
	postAnalysis(router, validCase)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `meddev_analysis_results_total{status="success"} 1`)
}

// Ensure limitBodySize middleware allows small payloads and blocks large ones.
func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		_, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("12345"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("01234567890"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}
