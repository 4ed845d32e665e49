package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/service/catalog"
	"github.com/kapu/gift-ai-go/internal/service/oracle"
	"github.com/kapu/gift-ai-go/internal/service/profile"
	"github.com/kapu/gift-ai-go/internal/service/recommendation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecommender struct {
	calls      int
	prefs      domain.UserPreferences
	preFetched *domain.AnalyzedProfile
	err        error
}

func (f *fakeRecommender) GenerateRecommendations(_ context.Context, prefs domain.UserPreferences, preFetched *domain.AnalyzedProfile) (*domain.GiftRecommendation, error) {
	f.calls++
	f.prefs = prefs
	f.preFetched = preFetched
	if f.err != nil {
		return nil, f.err
	}
	return &domain.GiftRecommendation{
		Summary: domain.Summary{MainInterest: "Café"},
		Sections: []domain.Section{
			{CategoryID: "cafe", Title: "Café", Products: []domain.GiftSuggestion{{ID: "2"}}},
		},
	}, nil
}

type fakeWarmer struct {
	handles []string
}

func (f *fakeWarmer) Warm(handle string) bool {
	f.handles = append(f.handles, handle)
	return true
}

type fixture struct {
	router *gin.Engine
	rec    *fakeRecommender
	warmer *fakeWarmer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := catalog.NewMemoryStore("https://www.amazon.com", "gift-ai-20")
	require.NoError(t, err)

	f := &fixture{rec: &fakeRecommender{}, warmer: &fakeWarmer{}}
	handler := NewHandler(f.rec, profile.NewMockSource(0), store, f.warmer, 50, zap.NewNop())
	f.router = NewRouter(gin.TestMode, zap.NewNop(), Modes{Profile: "mock", Oracle: "mock", Catalog: "memory"}, handler)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthReportsModes(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "mock", body["profile_mode"])
	assert.Equal(t, "mock", body["oracle_mode"])
	assert.Equal(t, "memory", body["catalog_mode"])
	assert.NotContains(t, body, "oracle_circuit")
}

func TestHealthReportsOracleCircuit(t *testing.T) {
	store, err := catalog.NewMemoryStore("https://www.amazon.com", "gift-ai-20")
	require.NoError(t, err)
	handler := NewHandler(&fakeRecommender{}, profile.NewMockSource(0), store, &fakeWarmer{}, 50, zap.NewNop())
	router := NewRouter(gin.TestMode, zap.NewNop(), Modes{
		Profile:       "mock",
		Oracle:        "live(OpenRouter)",
		Catalog:       "memory",
		OracleCircuit: func() string { return "OPEN" },
	}, handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "OPEN", body["oracle_circuit"])
	assert.Equal(t, "live(OpenRouter)", body["oracle_mode"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAnalyzeRequiresUsername(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/analyze", `{"budget": "low"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.ErrorCode)
	require.NotNil(t, body.RequestID)
	errs, ok := body.Details["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "username", errs[0].(map[string]any)["field"])
	assert.Zero(t, f.rec.calls)
}

func TestAnalyzeRejectsBareAt(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/analyze", `{"username": " @ "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELD", decodeError(t, w).ErrorCode)
	assert.Zero(t, f.rec.calls)
}

func TestAnalyzeRejectsMalformedBody(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/analyze", `{"username":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).ErrorCode)
	assert.Zero(t, f.rec.calls)
}

func TestAnalyzeNormalizesHandle(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/analyze", `{"username": "@joana", "budget": "low", "relation": "Mother", "extraInfo": "gosta de café"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, f.rec.calls)
	assert.Equal(t, "joana", f.rec.prefs.Username)
	assert.Equal(t, "low", f.rec.prefs.Budget)
	assert.Equal(t, "Mother", f.rec.prefs.Relation)
	assert.Equal(t, "gosta de café", f.rec.prefs.ExtraInfo)
	assert.Nil(t, f.rec.preFetched)

	var rec domain.GiftRecommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Café", rec.Summary.MainInterest)
}

func TestAnalyzeNoProducts(t *testing.T) {
	f := newFixture(t)
	f.rec.err = recommendation.ErrNoProducts

	w := f.do(http.MethodPost, "/api/analyze", `{"username": "joana"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", decodeError(t, w).ErrorCode)
}

func TestStartAnalysisQueuesWarmUp(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/analyze/start", `{"instagram_handle": "hugo"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body startResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "@hugo", body.NormalizedHandle)
	_, err := uuid.Parse(body.JobID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"hugo"}, f.warmer.handles)

	w = f.do(http.MethodPost, "/api/analyze/start", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, f.warmer.handles, 1)
}

func TestAnalyzeProfileSummary(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/profile/analyze", `{"instagram_handle": "@hugo"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body profileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "hugo", body.Profile.Username)
	assert.Equal(t, "hugo", body.Summary.Username)
	assert.Equal(t, []string{"coffee", "specialtycoffee", "v60", "hiking", "travel", "nature", "developer", "tech", "coding"}, body.Summary.Keywords)
}

func TestGenerateSuggestionsDefaults(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/suggestions/generate", `{"instagram_handle": "@hugo", "jobId": "job-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, domain.UserPreferences{
		Username: "hugo",
		JobID:    "job-1",
		Relation: "Friend",
		Occasion: "General",
		Budget:   "medium",
	}, f.rec.prefs)
}

func TestGenerateSuggestionsAnswers(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/suggestions/generate", `{
		"instagram_handle": "hugo",
		"answers": {"relationship": "Partner", "occasion": "Birthday", "budget_bucket": "high", "known_interests": ["café"]}
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "Partner", f.rec.prefs.Relation)
	assert.Equal(t, "Birthday", f.rec.prefs.Occasion)
	assert.Equal(t, "high", f.rec.prefs.Budget)
	assert.Equal(t, []string{"café"}, f.rec.prefs.KnownInterests)
}

func TestMatchSuggestionsUsesProfileData(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/suggestions/match", `{
		"profileData": {"username": "@joana", "biography": "Café", "recentPosts": []},
		"answers": {"occasion": "Natal"}
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, f.rec.preFetched)
	assert.Equal(t, "Café", f.rec.preFetched.Biography)
	assert.Equal(t, "joana", f.rec.prefs.Username)
	assert.Equal(t, "Natal", f.rec.prefs.Occasion)
	assert.Equal(t, "medium", f.rec.prefs.Budget)
}

func TestMatchSuggestionsValidation(t *testing.T) {
	cases := map[string]string{
		"no answers":   `{"profileData": {"username": "joana"}}`,
		"no profile":   `{"answers": {}}`,
		"no username":  `{"profileData": {"biography": "x"}, "answers": {}}`,
		"empty object": `{}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			w := f.do(http.MethodPost, "/api/suggestions/match", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, f.rec.calls)
		})
	}
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body productsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 50, body.Limit)
	assert.Equal(t, 0, body.Offset)
	assert.Equal(t, len(body.Products), body.Count)
	assert.NotZero(t, body.Count)

	w = f.do(http.MethodGet, "/api/products?q=coffee&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Contains(t, body.Products[0].Title, "Coffee")
}

func TestListProductsRejectsBadQuery(t *testing.T) {
	cases := map[string]string{
		"limit too large": "/api/products?limit=500",
		"negative offset": "/api/products?offset=-1",
		"unknown bucket":  "/api/products?price_bucket=cheap",
		"non numeric":     "/api/products?limit=abc",
	}

	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			w := f.do(http.MethodGet, path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	body := decodeError(t, w)
	require.NotNil(t, body.RequestID)
	assert.Equal(t, "req-123", *body.RequestID)
}

func TestAnalyzeEndToEndWithMocks(t *testing.T) {
	store, err := catalog.NewMemoryStore("https://www.amazon.com", "gift-ai-20")
	require.NoError(t, err)

	svc := recommendation.NewService(profile.NewMockSource(0), store, oracle.NewMockOracle(0), recommendation.Config{}, zap.NewNop())
	handler := NewHandler(svc, profile.NewMockSource(0), store, nil, 50, zap.NewNop())
	router := NewRouter(gin.TestMode, zap.NewNop(), Modes{}, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte(`{"username": "@joana", "budget": "medium"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rec domain.GiftRecommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Tech & Coffee", rec.Summary.MainInterest)
	assert.Len(t, rec.Sections, 4)
	for _, section := range rec.Sections {
		assert.NotEmpty(t, section.Products)
	}
}
