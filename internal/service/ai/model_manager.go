package ai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/util"
	"github.com/kapu/gift-ai-go/pkg/errors"
	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = stderrors.New("model providers unavailable (circuit open)")

var (
	serverStatusPattern = regexp.MustCompile(`\b(5\d{2})\b`)
	jsonCodePattern     = regexp.MustCompile(`"code":\s*(\d{3})`)
)

// ModelManager runs a primary provider with an optional fallback behind a
// circuit breaker and decodes the JSON answer.
type ModelManager struct {
	primary        JSONProvider
	fallback       JSONProvider
	logger         *zap.Logger
	circuitBreaker *util.CircuitBreaker
}

func NewModelManager(primary, fallback JSONProvider, logger *zap.Logger) (*ModelManager, error) {
	if primary == nil {
		if fallback == nil {
			return nil, fmt.Errorf("no model provider configured")
		}
		primary, fallback = fallback, nil
	}

	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}

	if fallback != nil {
		logger.Info("Model fallback enabled",
			zap.String("primary", primary.Name()),
			zap.String("fallback", fallback.Name()),
		)
	}

	mm.circuitBreaker = util.NewCircuitBreaker(
		"model-manager",
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)

	return mm, nil
}

// Name identifies the provider chain for logs and metrics.
func (mm *ModelManager) Name() string {
	if mm.fallback == nil {
		return mm.primary.Name()
	}
	return mm.primary.Name() + "+" + mm.fallback.Name()
}

func (mm *ModelManager) GenerateJSON(ctx context.Context, prompt string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.Status()
		fields := []zap.Field{
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		}
		if status.NextRetryTime != nil {
			fields = append(fields, zap.Time("next_retry", *status.NextRetryTime))
		}
		mm.logger.Error("Model providers unavailable (Circuit OPEN)", fields...)
		return nil, ErrCircuitOpen
	}

	var options GenerateOptions
	if opts != nil {
		options = *opts
	}
	options.JSONMode = true

	primaryResult, primaryErr := mm.primary.Generate(ctx, prompt, preset, &options)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		metadata := &GenerateMetadata{
			Provider: mm.primary.Name(),
			Model:    primaryResult.Model,
		}
		return mm.decodeJSON(primaryResult.Text, metadata, dest)
	}

	if mm.fallback != nil {
		mm.logger.Warn("Primary model failed, trying fallback",
			zap.String("primary", mm.primary.Name()),
			zap.Error(primaryErr),
		)

		fallbackOptions := options
		fallbackOptions.Model = ""
		fallbackResult, fallbackErr := mm.fallback.Generate(ctx, prompt, preset, &fallbackOptions)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			metadata := &GenerateMetadata{
				Provider:     mm.fallback.Name(),
				Model:        fallbackResult.Model,
				UsedFallback: true,
			}
			return mm.decodeJSON(fallbackResult.Text, metadata, dest)
		}

		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		return nil, errors.NewServiceError("all model providers failed", mm.Name(), "generate_json",
			stderrors.Join(primaryErr, fallbackErr))
	}

	mm.recordFailure(primaryErr)
	return nil, primaryErr
}

func (mm *ModelManager) decodeJSON(text string, metadata *GenerateMetadata, dest any) (*GenerateMetadata, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%s API returned empty response", metadata.Provider)
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		previewLen := util.Min(len(cleaned), constants.OracleLimits.ResponsePreview)
		mm.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", metadata.Provider),
			zap.Error(err),
			zap.String("response_preview", cleaned[:previewLen]),
		)
		return nil, fmt.Errorf("invalid JSON from %s: %w", metadata.Provider, err)
	}

	return metadata, nil
}

// StripCodeFence removes a surrounding ```json or ``` markdown fence.
func StripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}
	return cleaned
}

func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}

	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	primaryOK := mm.primary.Ping(ctx)
	fallbackOK := false
	if mm.fallback != nil {
		fallbackOK = mm.fallback.Ping(ctx)
	}

	mm.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
	)

	return primaryOK || fallbackOK
}

// CircuitStatus is reported on /health.
func (mm *ModelManager) CircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.Status()
}

// isServiceFailure reports errors that say the provider itself is unhealthy:
// timeouts, rate limits and 5xx responses. Bad prompts do not count.
func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) || isRateLimitError(err) {
		return true
	}
	if code := statusCode(err); code != 0 {
		return code >= 500 && code < 600
	}

	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}
	return serverStatusPattern.MatchString(msg)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if statusCode(err) == 429 {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota")
}

func statusCode(err error) int {
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if matches := jsonCodePattern.FindStringSubmatch(err.Error()); len(matches) > 1 {
		if code, convErr := strconv.Atoi(matches[1]); convErr == nil {
			return code
		}
	}
	return 0
}
