// Package pipeline runs a document through analysis and quiz synthesis,
// choosing between the generation service and the rule-based path.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ppiankov/docquiz/internal/analyze"
	"github.com/ppiankov/docquiz/internal/cache"
	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/llm"
	"github.com/ppiankov/docquiz/internal/logging"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/quiz"
	"github.com/ppiankov/docquiz/internal/retry"
)

// Pipeline orchestrates a complete generation run
type Pipeline struct {
	source      Source
	provider    llm.Provider // nil when generation is disabled
	providerErr error        // set when the configured provider could not be built
	rules       *extract.Analyzer
	analyzer    *analyze.Analyzer
	synthesizer *quiz.Synthesizer
	fallback    *quiz.Fallback
	cache       *cache.AnalysisCache // optional
	config      *model.Config
	log         *logging.Logger

	providerSet bool
	limiter     llm.Waiter
	vocab       *extract.Vocabulary
	sleep       retry.SleepFunc
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithProvider uses p instead of the provider named in the config.
// A nil p disables generation.
func WithProvider(p llm.Provider) Option {
	return func(pl *Pipeline) {
		pl.provider = p
		pl.providerSet = true
	}
}

// WithLogger sets the run logger
func WithLogger(log *logging.Logger) Option {
	return func(pl *Pipeline) { pl.log = logging.OrNop(log) }
}

// WithCache sets the analysis cache, overriding the cache config
func WithCache(c *cache.AnalysisCache) Option {
	return func(pl *Pipeline) { pl.cache = c }
}

// WithLimiter throttles generation requests through w
func WithLimiter(w llm.Waiter) Option {
	return func(pl *Pipeline) { pl.limiter = w }
}

// WithVocabulary replaces the built-in rule-based vocabulary
func WithVocabulary(v *extract.Vocabulary) Option {
	return func(pl *Pipeline) { pl.vocab = v }
}

// WithSleep replaces the backoff wait of both generation stages
func WithSleep(s retry.SleepFunc) Option {
	return func(pl *Pipeline) { pl.sleep = s }
}

// NewPipeline creates a new pipeline reading documents from source
func NewPipeline(cfg *model.Config, source Source, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	p := &Pipeline{
		source: source,
		config: cfg,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	// Create the generation service if configured
	if !p.providerSet && cfg.LLM.Provider != "" {
		llmConfig := llm.ConfigFromModel(cfg.LLM)
		llm.ApplyEnv(&llmConfig)
		provider, err := llm.NewProvider(llmConfig)
		if err != nil {
			p.providerErr = fmt.Errorf("%w: %v", ErrConfiguration, err)
			p.log.Warn("generation service not initialized", "provider", cfg.LLM.Provider, "error", err)
		} else {
			p.provider = provider
		}
	}
	if p.provider != nil {
		if cfg.LLM.Transcript {
			p.provider = llm.WithTranscript(p.provider, p.log)
		}
		p.provider = llm.WithLimiter(p.provider, p.limiter)
	}

	p.rules = extract.NewAnalyzer(p.vocab)

	analyzeOpts := analyze.OptionsFromConfig(cfg.Pipeline)
	analyzeOpts.Policy.Sleep = p.sleep
	p.analyzer = analyze.New(p.provider, p.rules, analyzeOpts, p.log)

	quizOpts := quiz.OptionsFromConfig(cfg.Pipeline)
	quizOpts.Policy.Sleep = p.sleep
	p.synthesizer = quiz.NewSynthesizer(p.provider, p.rules.Vocabulary(), quizOpts, p.log)

	p.fallback = quiz.NewFallback(p.rules, cfg.Pipeline.ShortContentThreshold)

	if p.cache == nil && cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			p.log.Warn("analysis cache disabled", "error", err)
		} else {
			p.cache = cache.NewAnalysisCache(c, 0)
		}
	}

	return p
}

// ProviderName returns the active generation service, or "" when disabled
func (p *Pipeline) ProviderName() string {
	if p.provider == nil {
		return ""
	}
	return p.provider.Name()
}

// Run resolves the requested document and generates its question batch.
// Failures are reported in the Result, never as a panic or a nil value.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	runID := uuid.New()

	doc, err := p.resolve(ctx, req)
	if err != nil {
		p.log.Warn("document rejected", "run_id", runID, "document_id", req.DocumentID, "document_type", req.DocumentType, "error", err)
		res := FailedResult(runID, err)
		res.DocumentID = req.DocumentID
		return res
	}

	return p.generate(ctx, runID, doc, req.Offline)
}

// Generate runs the pipeline on an already resolved document
func (p *Pipeline) Generate(ctx context.Context, doc model.SourceDocument, offline bool) Result {
	return p.generate(ctx, uuid.New(), doc, offline)
}

// Analyze resolves the requested document and returns its analysis only
func (p *Pipeline) Analyze(ctx context.Context, req Request) AnalysisResult {
	runID := uuid.New()
	res := AnalysisResult{RunID: runID, DocumentID: req.DocumentID}

	doc, err := p.resolve(ctx, req)
	if err == nil {
		err = p.checkLength(doc)
	}
	if err != nil {
		p.log.Warn("document rejected", "run_id", runID, "document_id", req.DocumentID, "document_type", req.DocumentType, "error", err)
		res.Error = err.Error()
		res.ErrorKind = Classify(err)
		return res
	}

	log := p.runLogger(runID, doc)
	res.DocumentType = doc.DocumentType
	res.Title = doc.Title

	analysis, mode, err := p.analysis(ctx, log, doc, req.Offline)
	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = Classify(err)
		return res
	}

	res.OK = true
	res.Analysis = analysis
	res.Mode = mode
	return res
}

func (p *Pipeline) resolve(ctx context.Context, req Request) (model.SourceDocument, error) {
	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		return model.SourceDocument{}, fmt.Errorf("%w: document id is required", ErrInput)
	}
	docType, err := model.ParseDocumentType(req.DocumentType)
	if err != nil {
		return model.SourceDocument{}, fmt.Errorf("%w: %v", ErrInput, err)
	}
	if p.source == nil {
		return model.SourceDocument{}, fmt.Errorf("%w: no document source configured", ErrConfiguration)
	}

	doc, err := p.source.Resolve(ctx, id, docType)
	if err != nil {
		return model.SourceDocument{}, fmt.Errorf("resolve document: %w", err)
	}
	return doc, nil
}

func (p *Pipeline) checkLength(doc model.SourceDocument) error {
	n := utf8.RuneCountInString(strings.TrimSpace(doc.RawText))
	if minLength := p.config.Pipeline.MinContentLength; n < minLength {
		return fmt.Errorf("%w: content length %d is below the minimum of %d characters", ErrInput, n, minLength)
	}
	return nil
}

func (p *Pipeline) runLogger(runID uuid.UUID, doc model.SourceDocument) *logging.Logger {
	return p.log.With("run_id", runID, "document_id", doc.ID, "document_type", doc.DocumentType)
}

func (p *Pipeline) generate(ctx context.Context, runID uuid.UUID, doc model.SourceDocument, offline bool) Result {
	start := time.Now()
	log := p.runLogger(runID, doc)

	// 1. Validate content length
	if err := p.checkLength(doc); err != nil {
		log.Warn("document rejected", "error", err)
		res := FailedResult(runID, err)
		res.DocumentID, res.DocumentType, res.Title = doc.ID, doc.DocumentType, doc.Title
		return res
	}
	if maxLength := p.config.Pipeline.MaxSourceLength; maxLength > 0 {
		doc.RawText = extract.Truncate(doc.RawText, maxLength)
	}

	res := Result{
		RunID:        runID,
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		Title:        doc.Title,
		Questions:    []model.QuizQuestion{},
	}

	// 2. Analyze the document
	analysis, mode, err := p.analysis(ctx, log, doc, offline)
	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = Classify(err)
		return res
	}
	res.Analysis = analysis

	// 3. Synthesize questions
	var questions []model.QuizQuestion
	if mode == ModeAI {
		questions, err = p.synthesizer.Synthesize(ctx, doc.Title, *analysis, doc.DocumentType)
		if err != nil {
			if !p.degrade(ctx, log, err) {
				res.Error = err.Error()
				res.ErrorKind = Classify(err)
				return res
			}
			mode = ModeFallback
		}
	}
	if mode == ModeFallback {
		questions = p.fallbackQuestions(doc)
	}

	res.OK = true
	res.Mode = mode
	res.Questions = questions
	res.RepairedCount = model.CountRepaired(questions)

	log.Info("quiz generated",
		"mode", mode,
		"questions", len(questions),
		"repaired", res.RepairedCount,
		"elapsed", time.Since(start),
	)
	return res
}

// analysis returns the document analysis and the path that produced it
func (p *Pipeline) analysis(ctx context.Context, log *logging.Logger, doc model.SourceDocument, offline bool) (*model.DocumentAnalysis, Mode, error) {
	if offline || p.provider == nil {
		if !offline && p.providerErr != nil {
			return nil, "", p.providerErr
		}
		return p.fallbackAnalysis(doc), ModeFallback, nil
	}

	var key string
	if p.cache != nil {
		key = cache.AnalysisKey(p.provider.Name(), p.config.LLM.Model, doc)
		if cached, ok := p.cache.Get(ctx, key); ok {
			log.Debug("analysis cache hit")
			return cached, ModeAI, nil
		}
	}

	analysis, err := p.analyzer.Analyze(ctx, doc)
	if err != nil {
		if p.degrade(ctx, log, err) {
			return p.fallbackAnalysis(doc), ModeFallback, nil
		}
		return nil, "", err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, key, analysis); err != nil {
			log.Warn("analysis cache write failed", "error", err)
		}
	}
	return analysis, ModeAI, nil
}

// degrade reports whether a generation failure falls back to the
// rule-based path. Cancellation never does.
func (p *Pipeline) degrade(ctx context.Context, log *logging.Logger, err error) bool {
	if !p.config.Pipeline.FallbackOnError || ctx.Err() != nil {
		log.Error("generation failed", "error", err)
		return false
	}
	log.Warn("generation failed, using rule-based questions", "error", err)
	return true
}

func (p *Pipeline) fallbackAnalysis(doc model.SourceDocument) *model.DocumentAnalysis {
	if p.fallback.IsShort(doc.RawText) {
		analysis := analyze.FromFeatures(doc.RawText, model.TextFeatures{}, p.rules.Vocabulary().Catalog.Placeholders)
		return &analysis
	}
	analysis, _ := p.analyzer.Fallback(doc)
	return analysis
}

func (p *Pipeline) fallbackQuestions(doc model.SourceDocument) []model.QuizQuestion {
	return p.fallback.Generate(doc.Title, doc.RawText)
}
