package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cro-backend/internal/llm"
	"cro-backend/internal/queue"
	"cro-backend/internal/recommendations"
	"cro-backend/internal/shared/metrics"
	"cro-backend/internal/shared/telemetry"
	"cro-backend/internal/shops"
	"cro-backend/internal/usage"
)

// Service contains business logic for CRO audit runs.
type Service struct {
	Repo            Repo
	Usage           *usage.Service
	Shops           *shops.Service
	LLM             llm.Client
	Pipeline        *recommendations.Pipeline
	JobQueue        queue.Client
	Provider        string
	Model           string
	AnalysisVersion string
}

// Create enqueues a new audit run and kicks off asynchronous completion.
func (s *Service) Create(ctx context.Context, shopID, userID, promptVersion string) (Analysis, error) {
	analysis, err := s.prepare(ctx, shopID, userID, promptVersion)
	if err != nil {
		return Analysis{}, err
	}

	if s.Usage != nil {
		ok, _, err := s.Usage.CanConsume(ctx, userID, 1)
		if err != nil {
			return Analysis{}, err
		}
		if !ok {
			return Analysis{}, usage.ErrLimitReached
		}
	}

	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
			return Analysis{}, err
		}
	}

	s.dispatch(ctx, analysis.ID)

	return analysis, nil
}

// StartOrReuse enqueues a new audit run or reuses the shop's latest one for
// idempotent requests. A failed latest run is only restarted when allowRetry
// is set.
func (s *Service) StartOrReuse(ctx context.Context, shopID, userID, promptVersion string, allowRetry bool) (Analysis, bool, error) {
	analysis, err := s.prepare(ctx, shopID, userID, promptVersion)
	if err != nil {
		return Analysis{}, false, err
	}

	var allowCreate func() error
	if s.Usage != nil {
		allowCreate = func() error {
			ok, _, err := s.Usage.CanConsume(ctx, userID, 1)
			if err != nil {
				return err
			}
			if !ok {
				return usage.ErrLimitReached
			}
			return nil
		}
	}

	createdAnalysis, created, err := s.Repo.GetOrCreateForShop(ctx, analysis, allowRetry, allowCreate)
	if err != nil {
		return createdAnalysis, false, err
	}
	if created && s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
			return createdAnalysis, false, err
		}
	}
	if created {
		s.dispatch(ctx, createdAnalysis.ID)
	}
	return createdAnalysis, created, nil
}

// dispatch hands the analysis off for completion, via the job queue when one
// is configured and an in-process goroutine otherwise. An enqueue failure
// falls back to in-process completion so the run never sits queued forever.
func (s *Service) dispatch(ctx context.Context, analysisID string) {
	if s.JobQueue != nil {
		msg := queue.Message{
			AnalysisID: analysisID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		err := s.JobQueue.Send(ctx, msg)
		if err == nil {
			return
		}
		telemetry.Error("analysis.enqueue", map[string]any{
			"analysis_id": analysisID,
			"error":       sanitizeError(err),
		})
	}
	go s.completeAsync(backgroundWithRequestID(ctx), analysisID)
}

// ProcessAnalysis runs the completion flow for a queued analysis. Domain
// failures are recorded on the analysis row; only lookup errors are returned
// so the queue consumer can retry or drop the message.
func (s *Service) ProcessAnalysis(ctx context.Context, analysisID string) error {
	if strings.TrimSpace(analysisID) == "" {
		return errors.New("analysis id is required")
	}
	if _, err := s.Repo.GetByID(ctx, analysisID); err != nil {
		return fmt.Errorf("analysis lookup id=%s: %w", analysisID, err)
	}
	s.completeAsync(ctx, analysisID)
	return nil
}

func (s *Service) prepare(ctx context.Context, shopID, userID, promptVersion string) (Analysis, error) {
	if shopID == "" || userID == "" {
		return Analysis{}, errors.New("shopID and userID are required")
	}
	if promptVersion == "" {
		promptVersion = "v2"
	}

	shop, err := s.Shops.Get(ctx, userID, shopID)
	if err != nil {
		return Analysis{}, err
	}
	if !shop.HasMetrics() || !shop.HasSnapshot() {
		return Analysis{}, ErrShopNotReady
	}

	return Analysis{
		ID:              uuid.NewString(),
		ShopID:          shopID,
		UserID:          userID,
		PromptVersion:   promptVersion,
		AnalysisVersion: normalizeAnalysisVersion(s.AnalysisVersion),
		Provider:        normalizeProvider(s.Provider),
		Model:           s.Model,
		Status:          StatusQueued,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Get returns an analysis by ID, scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, analysisID string) (Analysis, error) {
	if analysisID == "" {
		return Analysis{}, errors.New("analysisID is required")
	}
	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return Analysis{}, err
	}
	if analysis.UserID != userID {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// List returns analyses for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// ListForShop returns one shop's analyses ordered newest-first.
func (s *Service) ListForShop(ctx context.Context, userID, shopID string, limit, offset int) ([]Analysis, error) {
	if userID == "" || shopID == "" {
		return nil, errors.New("userID and shopID are required")
	}
	return s.Repo.ListByShop(ctx, userID, shopID, limit, offset)
}

// SetRecommendationStatus transitions one recommendation of a completed run
// between pending, implemented and skipped. ImplementedAt is stamped on the
// transition into implemented and cleared on the way out.
func (s *Service) SetRecommendationStatus(ctx context.Context, userID, analysisID, recommendationID, status string) (recommendations.Recommendation, error) {
	parsed, err := ParseRecommendationStatus(status)
	if err != nil {
		return recommendations.Recommendation{}, err
	}

	analysis, err := s.Get(ctx, userID, analysisID)
	if err != nil {
		return recommendations.Recommendation{}, err
	}
	if analysis.Status != StatusCompleted {
		return recommendations.Recommendation{}, fmt.Errorf("analysis %s is not completed", analysisID)
	}

	recs := analysis.Recommendations
	idx := -1
	for i := range recs {
		if recs[i].ID == recommendationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return recommendations.Recommendation{}, ErrNotFound
	}

	recs[idx].Status = parsed
	if parsed == recommendations.StatusImplemented {
		now := time.Now().UTC()
		recs[idx].ImplementedAt = &now
	} else {
		recs[idx].ImplementedAt = nil
	}

	if err := s.Repo.UpdateRecommendations(ctx, analysisID, recs); err != nil {
		return recommendations.Recommendation{}, err
	}
	return recs[idx], nil
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "anthropic"
	}
	return provider
}

func normalizeAnalysisVersion(version string) string {
	if strings.TrimSpace(version) == "" {
		return "unknown"
	}
	return strings.TrimSpace(version)
}

func (s *Service) pipeline() *recommendations.Pipeline {
	if s.Pipeline != nil {
		return s.Pipeline
	}
	return recommendations.NewPipeline()
}

func (s *Service) completeAsync(ctx context.Context, analysisID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failAnalysis(ctx, analysisID, "", "", fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatusAndError(ctx, analysisID, StatusProcessing, nil, nil, nil, &startedAt, nil); err != nil {
		s.failAnalysis(ctx, analysisID, "", "", fmt.Errorf("set processing failed: %w", err), &startedAt)
		return
	}

	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, "", "", fmt.Errorf("analysis lookup: %w", err), &startedAt)
		return
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           analysis.UserID,
		"shop_id":           analysis.ShopID,
		"analysis_id":       analysis.ID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})
	if s.Shops == nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, errors.New("missing shop dependencies"), &startedAt)
		return
	}
	if s.LLM == nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, errors.New("missing llm client"), &startedAt)
		return
	}
	requestID := requestIDFromContext(ctx)
	llmClient := newRetryingLLM(s.LLM, analysisID, requestID)

	shop, err := s.Shops.Get(ctx, analysis.UserID, analysis.ShopID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("shop lookup id=%s: %w", analysis.ShopID, err), &startedAt)
		return
	}

	storefrontText, err := s.Shops.StorefrontText(ctx, analysis.UserID, analysis.ShopID)
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("shop %s: storefront text: %w", shop.ID, err), &startedAt)
		return
	}

	storeMetrics := shop.Metrics()
	input := llm.AnalyzeInput{
		ShopDomain:     shop.Domain,
		StorefrontText: storefrontText,
		MetricsSummary: metricsSummary(storeMetrics),
		PromptVersion:  analysis.PromptVersion,
	}
	var promptHash string
	var tokens llm.TokenUsage
	ctxWithHash := llm.WithPromptHashCapture(ctx, &promptHash)
	ctxWithHash = llm.WithTokenUsageCapture(ctxWithHash, &tokens)
	defer func() {
		if s.Usage == nil {
			return
		}
		if err := s.Usage.RecordTokens(ctx, analysis.UserID, tokens.InputTokens, tokens.OutputTokens); err != nil {
			telemetry.Error("analysis.token_usage", map[string]any{
				"analysis_id": analysisID,
				"error":       sanitizeError(err),
			})
		}
	}()

	raw, err := llmClient.AnalyzeStore(ctxWithHash, input)
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("llm analyze: %w", err), &startedAt)
		return
	}
	if err := s.Repo.UpdateRawResponse(ctx, analysisID, raw); err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("set raw response failed: %w", err), &startedAt)
		return
	}

	recs, err := s.pipeline().Process(raw, storeMetrics)
	if errors.Is(err, recommendations.ErrMalformedResponse) {
		// One corrective round trip: hand the model its own output back.
		rawRetry, retryErr := llmClient.AnalyzeStore(llm.WithFixJSON(ctxWithHash, raw), input)
		if retryErr != nil {
			s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("llm analyze retry: %w", retryErr), &startedAt)
			return
		}
		if storeErr := s.Repo.UpdateRawResponse(ctx, analysisID, rawRetry); storeErr != nil {
			s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("set raw response failed: %w", storeErr), &startedAt)
			return
		}
		recs, err = s.pipeline().Process(rawRetry, storeMetrics)
	}
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("llm output invalid: %w", err), &startedAt)
		return
	}
	ensureRecommendationIDs(recs)

	if err := s.Repo.UpdatePromptMetadata(ctx, analysisID, analysis.AnalysisVersion, promptHash); err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("set prompt metadata failed: %w", err), &startedAt)
		return
	}

	total, err := recommendations.CalculateTotalROI(recs, storeMetrics)
	if err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("llm output invalid: total roi: %w", err), &startedAt)
		return
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateResult(ctx, analysisID, recs, total, &completedAt); err != nil {
		s.failAnalysis(ctx, analysisID, analysis.UserID, analysis.ShopID, fmt.Errorf("set analysis result failed: %w", err), &startedAt)
		return
	}
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           analysis.UserID,
		"shop_id":           analysis.ShopID,
		"analysis_id":       analysis.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"recommendations":   len(recs),
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
}

func (s *Service) failAnalysis(ctx context.Context, analysisID, userID, shopID string, err error, startedAt *time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatusAndError(context.Background(), analysisID, StatusFailed, &code, &msg, &retryable, nil, &completedAt); updateErr != nil {
		telemetry.Error("analysis.fail_update", map[string]any{
			"analysis_id": analysisID,
			"error":       sanitizeError(updateErr),
			"cause":       msg,
		})
	}
	metrics.IncAnalysisFailed()
	if startedAt != nil {
		metrics.ObserveAnalysisDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"shop_id":           shopID,
		"analysis_id":       analysisID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	if errors.Is(err, recommendations.ErrEmptyRecommendations) {
		return ErrorCodeLLMEmptyResult, true
	}
	if errors.Is(err, recommendations.ErrMalformedResponse) {
		return ErrorCodeLLMMalformedResponse, false
	}
	if recommendations.IsInvalidMetrics(err) {
		return ErrorCodeValidation, false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "llm") || strings.Contains(msg, "anthropic")) {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "llm output invalid") || strings.Contains(msg, "llm analyze") {
		return ErrorCodeLLMMalformedResponse, false
	}
	if strings.Contains(msg, "validation") && !strings.Contains(msg, "llm") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "shop") || strings.Contains(msg, "storage") || strings.Contains(msg, "raw response") || strings.Contains(msg, "analysis result") || strings.Contains(msg, "prompt metadata") || strings.Contains(msg, "set processing") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

// ensureRecommendationIDs makes persisted recommendation IDs non-empty and
// unique so a status update can always address exactly one item. The model
// sometimes omits ids or repeats one across items; blank ids get a positional
// id, collisions get a numeric suffix.
func ensureRecommendationIDs(recs []recommendations.Recommendation) {
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		id := strings.TrimSpace(recs[i].ID)
		if id == "" {
			id = fmt.Sprintf("rec-%d-%s", i+1, recs[i].Category)
		}
		base := id
		for n := 2; ; n++ {
			if _, dup := seen[id]; !dup {
				break
			}
			id = fmt.Sprintf("%s-%d", base, n)
		}
		seen[id] = struct{}{}
		recs[i].ID = id
	}
}

// metricsSummary renders store metrics as the prompt-facing summary block.
func metricsSummary(m recommendations.StoreMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversion rate: %.2f%%\n", m.ConversionRate)
	fmt.Fprintf(&b, "Average order value: $%.2f\n", m.AvgOrderValue)
	fmt.Fprintf(&b, "Monthly visitors: %.0f\n", m.MonthlyVisitors)
	fmt.Fprintf(&b, "Mobile traffic: %.0f%%\n", m.MobilePercentage)
	fmt.Fprintf(&b, "Cart abandonment rate: %.0f%%", m.CartAbandonmentRate)
	return b.String()
}
