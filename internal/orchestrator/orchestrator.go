// Package orchestrator routes inbound chat messages through intent
// classification, slot extraction, catalog retrieval and response generation,
// and records each completed exchange in memory.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
	"github.com/lewisedginton/shopping_assistant/internal/extractor"
	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/internal/intent"
	"github.com/lewisedginton/shopping_assistant/internal/issues"
	"github.com/lewisedginton/shopping_assistant/internal/memory_service"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
	"github.com/lewisedginton/shopping_assistant/pkg/metrics"
)

// Request is one inbound chat message with whatever identity the transport
// layer resolved.
type Request struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Reply is the assistant's answer plus the structured payload each handler
// contributes.
type Reply struct {
	Response   string            `json:"response"`
	Intent     string            `json:"intent"`
	Products   []catalog.Product `json:"products,omitempty"`
	Categories []string          `json:"categories,omitempty"`
	Category   string            `json:"category,omitempty"`
	PriceRange *extractor.Range  `json:"price_range,omitempty"`
	IssueID    int64             `json:"issue_id,omitempty"`
	IssueRef   string            `json:"issue_reference,omitempty"`
}

// Config carries the orchestrator's collaborators.
type Config struct {
	Logger     logger.Logger
	Catalog    *catalog.Index
	Memory     memory_service.Store
	Issues     issues.Store
	Classifier *intent.Classifier
	Extractor  *extractor.Extractor
	Chain      *generation.Chain
	Metrics    *metrics.Metrics

	// FrontendBaseURL is prepended to product links in replies.
	FrontendBaseURL string
	// SearchK bounds similarity search results, PriceSearchK price searches.
	SearchK      int
	PriceSearchK int
	// RecentLimit bounds how many records feed the context summary.
	RecentLimit int
	// TruncateLength bounds memory context for mid-tier importance.
	TruncateLength int
	// DedupThreshold is the word-overlap ratio above which a remembered
	// exchange is treated as an echo of the current message.
	DedupThreshold float64
	// CallTimeout bounds each memory and issue store call. Zero disables the
	// budget.
	CallTimeout time.Duration
}

// Service is the chat pipeline entry point.
type Service struct {
	cfg Config
	log logger.Logger
}

// New validates the wiring and returns a ready service.
func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog index cannot be nil")
	}
	if cfg.Memory == nil {
		return nil, fmt.Errorf("memory store cannot be nil")
	}
	if cfg.Issues == nil {
		return nil, fmt.Errorf("issue store cannot be nil")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier cannot be nil")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if cfg.Chain == nil {
		return nil, fmt.Errorf("generation chain cannot be nil")
	}
	if cfg.FrontendBaseURL == "" {
		cfg.FrontendBaseURL = "http://localhost:5173"
	}
	if cfg.SearchK <= 0 {
		cfg.SearchK = 5
	}
	if cfg.PriceSearchK <= 0 {
		cfg.PriceSearchK = 10
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.TruncateLength <= 0 {
		cfg.TruncateLength = 200
	}
	if cfg.DedupThreshold <= 0 {
		cfg.DedupThreshold = 0.6
	}

	return &Service{cfg: cfg, log: cfg.Logger}, nil
}

// Process answers one chat message. Internal failures surface as apology
// replies rather than errors; the returned error is reserved for a cancelled
// context.
func (s *Service) Process(ctx context.Context, req Request) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing message: %w", err)
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return &Reply{
			Response: "Please type a message so I can help you find what you need.",
			Intent:   string(intent.GeneralChat),
		}, nil
	}

	s.resolveProfile(ctx, &req)

	contextSummary := s.contextSummary(ctx, req.UserID)
	result := s.cfg.Classifier.Classify(ctx, message, contextSummary)

	memoryContext := ""
	if result.NeedsMemory {
		memoryContext = s.memoryContext(ctx, req.UserID, message)
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.IncrementChatRequests(string(result.Intent))
	}
	s.log.Info("Processing chat message",
		logger.StringField("intent", string(result.Intent)),
		logger.StringField("confidence", string(result.Confidence)),
		logger.BoolField("needs_memory", result.NeedsMemory))

	var reply *Reply
	var record memory_service.Record
	switch result.Intent {
	case intent.ProductSearch:
		reply, record = s.handleProductSearch(ctx, message)
	case intent.ProductSpecific:
		reply, record = s.handleProductSpecific(ctx, message, memoryContext)
	case intent.CategoryBrowse:
		reply, record = s.handleCategoryBrowse(ctx, message)
	case intent.PriceRangeSearch:
		reply, record = s.handlePriceRangeSearch(ctx, message)
	case intent.IssueReport:
		reply, record = s.handleIssueReport(ctx, message, req)
	default:
		reply, record = s.handleGeneralChat(ctx, message, memoryContext)
	}

	s.remember(ctx, req, result.Intent, record)
	return reply, nil
}

// ClearMemory wipes all remembered exchanges and the stored profile for the
// user.
func (s *Service) ClearMemory(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.cfg.Memory.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clearing memory for user %s: %w", userID, err)
	}
	s.log.Info("Cleared user memory", logger.StringField("user_id", userID))
	return nil
}

// storeCtx bounds one memory or issue store call when a call budget is
// configured.
func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

// resolveProfile persists a newly supplied identity, or fills a missing one
// from storage. Failures are logged and ignored.
func (s *Service) resolveProfile(ctx context.Context, req *Request) {
	if req.UserID == "" {
		return
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if req.Username != "" || req.Email != "" {
		if err := s.cfg.Memory.StoreProfile(ctx, req.UserID, req.Username, req.Email); err != nil {
			s.log.Warn("Failed to store user profile", logger.ErrorField(err))
		}
		return
	}

	profile, err := s.cfg.Memory.Profile(ctx, req.UserID)
	if err != nil {
		s.log.Warn("Failed to load user profile", logger.ErrorField(err))
		return
	}
	if profile != nil {
		req.Username = profile.Username
		req.Email = profile.Email
	}
}

// contextSummary renders the most recent exchanges for the classifier.
func (s *Service) contextSummary(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	records, err := s.cfg.Memory.Recent(ctx, userID, s.cfg.RecentLimit)
	if err != nil {
		s.log.Warn("Failed to load recent memory", logger.ErrorField(err))
		return ""
	}
	if len(records) > 3 {
		records = records[:3]
	}
	summaries := make([]string, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, rec.Summary())
	}
	return strings.Join(summaries, "; ")
}

// memoryContext loads recent exchanges, drops echoes of the current message,
// grades importance and renders the context the importance tier allows.
// Chronological recall is the primary axis; keyword search runs only when
// recency yields nothing usable.
func (s *Service) memoryContext(ctx context.Context, userID, message string) string {
	if userID == "" {
		return ""
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	records, err := s.cfg.Memory.Recent(ctx, userID, s.cfg.RecentLimit)
	if err != nil {
		s.log.Warn("Failed to load recent memory", logger.ErrorField(err))
		return ""
	}
	records = memory_service.FilterEcho(records, message, s.cfg.DedupThreshold)

	if len(records) == 0 {
		records, err = s.cfg.Memory.Search(ctx, userID, message)
		if err != nil {
			s.log.Warn("Memory search failed", logger.ErrorField(err))
			return ""
		}
		records = memory_service.FilterEcho(records, message, s.cfg.DedupThreshold)
	}

	var joined strings.Builder
	for _, rec := range records {
		joined.WriteString(rec.Summary())
		joined.WriteString("; ")
	}
	importance := memory_service.Analyze(message, joined.String())
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.IncrementMemoryInjections(string(importance))
	}

	return memory_service.BuildContext(importance, records, s.cfg.TruncateLength)
}

// remember appends exactly one record for the completed exchange. Anonymous
// requests and empty records are skipped.
func (s *Service) remember(ctx context.Context, req Request, it intent.Intent, rec memory_service.Record) {
	if req.UserID == "" || rec.UserText == "" {
		return
	}
	rec.UserID = req.UserID
	rec.Username = req.Username
	rec.Intent = string(it)
	if rec.Extra == nil {
		rec.Extra = make(map[string]string, 1)
	}
	rec.Extra[memory_service.ExtraMessage] = strings.TrimSpace(req.Message)

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.cfg.Memory.Append(ctx, req.UserID, rec); err != nil {
		s.log.Warn("Failed to store exchange in memory", logger.ErrorField(err))
	}
}

func (s *Service) productLink(id int) string {
	return fmt.Sprintf("%s/products/%d", s.cfg.FrontendBaseURL, id)
}
