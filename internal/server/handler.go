package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/service/catalog"
	"github.com/kapu/gift-ai-go/internal/service/profile"
	"go.uber.org/zap"
)

const defaultWizardBudget = "medium"

type recommender interface {
	GenerateRecommendations(ctx context.Context, prefs domain.UserPreferences, preFetched *domain.AnalyzedProfile) (*domain.GiftRecommendation, error)
}

type profileWarmer interface {
	Warm(handle string) bool
}

// Handler serves the recommendation wizard and catalog routes.
type Handler struct {
	recommender recommender
	profiles    profile.Source
	catalog     catalog.Store
	warmer      profileWarmer
	validate    *validator.Validate
	pageLimit   int
	logger      *zap.Logger
}

// NewHandler wires the API routes. warmer may be nil.
func NewHandler(rec recommender, profiles profile.Source, store catalog.Store, warmer profileWarmer, pageLimit int, logger *zap.Logger) *Handler {
	validate := validator.New()
	validate.RegisterTagNameFunc(tagName("form"))

	return &Handler{
		recommender: rec,
		profiles:    profiles,
		catalog:     store,
		warmer:      warmer,
		validate:    validate,
		pageLimit:   pageLimit,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/analyze", h.analyze)
	api.POST("/analyze/start", h.startAnalysis)
	api.POST("/profile/analyze", h.analyzeProfile)
	api.POST("/suggestions/generate", h.generateSuggestions)
	api.POST("/suggestions/match", h.matchSuggestions)
	api.GET("/products", h.listProducts)
}

type analyzeRequest struct {
	Username  string `json:"username" binding:"required"`
	Budget    string `json:"budget"`
	Relation  string `json:"relation"`
	Occasion  string `json:"occasion"`
	ExtraInfo string `json:"extraInfo"`
}

type handleRequest struct {
	InstagramHandle string `json:"instagram_handle" binding:"required"`
}

type wizardAnswers struct {
	Relationship   string   `json:"relationship"`
	Occasion       string   `json:"occasion"`
	BudgetBucket   string   `json:"budget_bucket"`
	KnownInterests []string `json:"known_interests"`
}

func (a *wizardAnswers) preferences(username, jobID string) domain.UserPreferences {
	if a == nil {
		a = &wizardAnswers{}
	}
	budget := a.BudgetBucket
	if budget == "" {
		budget = defaultWizardBudget
	}
	return domain.UserPreferences{
		Username:       domain.NormalizeHandle(username),
		JobID:          jobID,
		Relation:       orDefault(a.Relationship, domain.DefaultRelation),
		Occasion:       orDefault(a.Occasion, domain.DefaultOccasion),
		Budget:         budget,
		KnownInterests: a.KnownInterests,
	}
}

type generateRequest struct {
	InstagramHandle string         `json:"instagram_handle" binding:"required"`
	JobID           string         `json:"jobId"`
	Answers         *wizardAnswers `json:"answers"`
}

type matchRequest struct {
	ProfileData *domain.AnalyzedProfile `json:"profileData" binding:"required"`
	Answers     *wizardAnswers          `json:"answers" binding:"required"`
	JobID       string                  `json:"jobId"`
}

type startResponse struct {
	JobID            string `json:"jobId"`
	NormalizedHandle string `json:"normalized_handle"`
}

type profileResponse struct {
	Profile *domain.AnalyzedProfile `json:"profile"`
	Summary domain.ProfileSummary   `json:"summary"`
}

type productsResponse struct {
	Count    int                     `json:"count"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Products []domain.CatalogProduct `json:"products"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	username := domain.NormalizeHandle(req.Username)
	if username == "" {
		writeError(c, newMissingField("username"))
		return
	}

	h.recommend(c, domain.UserPreferences{
		Username:  username,
		Budget:    req.Budget,
		Relation:  req.Relation,
		Occasion:  req.Occasion,
		ExtraInfo: req.ExtraInfo,
	}, nil)
}

// startAnalysis queues a background profile fetch so the wizard's later
// request hits the cache.
func (h *Handler) startAnalysis(c *gin.Context) {
	var req handleRequest
	if !bindJSON(c, &req) {
		return
	}
	handle := domain.NormalizeHandle(req.InstagramHandle)
	if handle == "" {
		writeError(c, newMissingField("instagram_handle"))
		return
	}

	jobID := uuid.NewString()
	if h.warmer != nil && !h.warmer.Warm(handle) {
		h.logger.Debug("Profile warm-up not queued", zap.String("handle", handle), zap.String("job_id", jobID))
	}

	c.JSON(http.StatusOK, startResponse{
		JobID:            jobID,
		NormalizedHandle: domain.DisplayHandle(handle),
	})
}

func (h *Handler) analyzeProfile(c *gin.Context) {
	var req handleRequest
	if !bindJSON(c, &req) {
		return
	}
	handle := domain.NormalizeHandle(req.InstagramHandle)
	if handle == "" {
		writeError(c, newMissingField("instagram_handle"))
		return
	}

	p, err := h.profiles.FetchProfile(c.Request.Context(), handle)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{Profile: p, Summary: profile.Summarize(p)})
}

func (h *Handler) generateSuggestions(c *gin.Context) {
	var req generateRequest
	if !bindJSON(c, &req) {
		return
	}
	if domain.NormalizeHandle(req.InstagramHandle) == "" {
		writeError(c, newMissingField("instagram_handle"))
		return
	}

	h.recommend(c, req.Answers.preferences(req.InstagramHandle, req.JobID), nil)
}

func (h *Handler) matchSuggestions(c *gin.Context) {
	var req matchRequest
	if !bindJSON(c, &req) {
		return
	}
	if domain.NormalizeHandle(req.ProfileData.Username) == "" {
		writeError(c, newMissingField("profileData.username"))
		return
	}

	h.recommend(c, req.Answers.preferences(req.ProfileData.Username, req.JobID), req.ProfileData)
}

func (h *Handler) recommend(c *gin.Context, prefs domain.UserPreferences, preFetched *domain.AnalyzedProfile) {
	rec, err := h.recommender.GenerateRecommendations(c.Request.Context(), prefs, preFetched)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) listProducts(c *gin.Context) {
	var filter domain.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		writeError(c, newInvalidInput("invalid query: "+err.Error()))
		return
	}
	if err := h.validate.Struct(filter); err != nil {
		writeError(c, err)
		return
	}
	filter = filter.WithDefaults(h.pageLimit)

	products := h.catalog.ListProducts(c.Request.Context(), filter)
	if products == nil {
		products = []domain.CatalogProduct{}
	}
	c.JSON(http.StatusOK, productsResponse{
		Count:    len(products),
		Limit:    filter.Limit,
		Offset:   filter.Offset,
		Products: products,
	})
}

// bindJSON decodes the body into out and writes a 400 on failure.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			writeError(c, err)
		} else {
			writeError(c, newInvalidInput("invalid request body: "+err.Error()))
		}
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	status, body := errorResponse(err, getRequestID(c))
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// tagName reports fields by their wire name in validation details.
func tagName(tag string) func(reflect.StructField) string {
	return func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
