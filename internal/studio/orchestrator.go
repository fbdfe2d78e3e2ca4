package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nerdneilsfield/imagegen-studio/internal/storage"
	"github.com/nerdneilsfield/imagegen-studio/pkg/imagegen"
	"go.uber.org/zap"
)

// ImageClient performs a single generation call.
type ImageClient interface {
	Generate(ctx context.Context, req imagegen.GenerateRequest) (*imagegen.GenerateResponse, error)
}

// HistoryStore is the part of storage.Store the orchestrator writes to.
type HistoryStore interface {
	Append(entry storage.HistoryEntry) error
	SaveSettings(settings storage.GenerationSettings) error
}

// Translator renders user-visible messages. *i18n.Manager implements it.
type Translator interface {
	T(lang *string, key string, args ...interface{}) string
}

type Options struct {
	// MaxCount is the largest accepted batch, at least 1.
	MaxCount int
	// PersistBatches also records multi-image batches in history.
	PersistBatches bool
	Language       string
	Now            func() time.Time
}

// Orchestrator drives generations and owns the session state: the current
// results, the last successful request and the observers.
type Orchestrator struct {
	client ImageClient
	store  HistoryStore
	tr     Translator
	logger *zap.Logger
	opts   Options

	mu          sync.Mutex
	busy        bool
	state       Snapshot
	observers   []Observer
	current     []GenerationResult
	lastRequest *GenerationRequest
	lastPrompt  string
	lastCount   int
}

func NewOrchestrator(client ImageClient, store HistoryStore, tr Translator, logger *zap.Logger, opts Options) *Orchestrator {
	if opts.MaxCount < 1 {
		opts.MaxCount = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client: client,
		store:  store,
		tr:     tr,
		logger: logger.Named("studio"),
		opts:   opts,
		state:  Snapshot{Phase: PhaseIdle},
	}
}

func (o *Orchestrator) Subscribe(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// State returns the latest snapshot.
func (o *Orchestrator) State() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

func (o *Orchestrator) MaxCount() int {
	return o.opts.MaxCount
}

// LastPrompt is the service-echoed prompt of the last successful generation.
func (o *Orchestrator) LastPrompt() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastPrompt, o.lastPrompt != ""
}

// Current returns the results on display, nil until a generation succeeds.
func (o *Orchestrator) Current() []GenerationResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]GenerationResult(nil), o.current...)
}

func (o *Orchestrator) t(key string, args ...interface{}) string {
	if o.tr == nil {
		return key
	}
	lang := o.opts.Language
	return o.tr.T(&lang, key, args...)
}

func (o *Orchestrator) transition(s Snapshot) {
	o.mu.Lock()
	o.state = s
	observers := append([]Observer(nil), o.observers...)
	o.mu.Unlock()

	for _, obs := range observers {
		obs.OnStateChange(s.clone())
	}
}

// Generate runs count concurrent calls with the same payload and always ends
// in a Settled snapshot, which it returns. The batch succeeds only if every
// call succeeds. A call made while another batch is in flight returns ErrBusy
// and leaves the state untouched.
func (o *Orchestrator) Generate(ctx context.Context, req GenerationRequest, count int) (Snapshot, error) {
	o.mu.Lock()
	if o.busy {
		state := o.state.clone()
		o.mu.Unlock()
		o.logger.Warn("Rejected generation while another batch is in flight")
		return state, ErrBusy
	}
	o.busy = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	return o.run(ctx, req, count)
}

// Regenerate repeats the last successful request with its echoed prompt.
// Without one it fails like an empty prompt.
func (o *Orchestrator) Regenerate(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	var req GenerationRequest
	count := 1
	if o.lastRequest != nil {
		req = *o.lastRequest
		req.Prompt = o.lastPrompt
		count = o.lastCount
	}
	o.mu.Unlock()

	return o.Generate(ctx, req, count)
}

type slotOutcome struct {
	slot   int
	result GenerationResult
	err    error
}

func (o *Orchestrator) run(ctx context.Context, req GenerationRequest, count int) (Snapshot, error) {
	o.transition(Snapshot{Phase: PhaseValidating})

	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return o.fail(&ValidationError{Reason: ReasonEmptyPrompt}, o.t("error_empty_prompt"))
	}
	if count < 1 || count > o.opts.MaxCount {
		return o.fail(&ValidationError{Reason: ReasonInvalidCount}, o.t("error_invalid_count", "max", o.opts.MaxCount))
	}

	o.mu.Lock()
	o.current = nil
	o.mu.Unlock()

	slots := make([]Slot, count)
	for i := range slots {
		slots[i] = Slot{Index: i, Status: SlotPending}
	}
	o.transition(Snapshot{Phase: PhaseDispatching, Count: count, Slots: slots})

	payload := req.Payload()
	log := o.logger.With(zap.Int("count", count), zap.String("fingerprint", imagegen.Fingerprint(payload)))
	log.Info("Starting concurrent generation requests")
	startTime := time.Now()

	var wg sync.WaitGroup
	resultsChan := make(chan slotOutcome, count)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go o.executeRequest(ctx, i, payload, resultsChan, &wg)
	}
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]GenerationResult, count)
	errs := make([]error, count)
	done := 0
	for res := range resultsChan {
		done++
		slots = append([]Slot(nil), slots...)
		if res.err != nil {
			errs[res.slot] = res.err
			slots[res.slot] = Slot{Index: res.slot, Status: SlotFailed}
			log.Warn("Slot failed", zap.Int("slot", res.slot), zap.Error(res.err))
		} else {
			results[res.slot] = res.result
			r := res.result
			slots[res.slot] = Slot{Index: res.slot, Status: SlotLoaded, Result: &r}
			log.Debug("Slot loaded", zap.Int("slot", res.slot))
		}
		o.transition(Snapshot{Phase: PhaseDispatching, Count: count, Slots: slots})
	}
	log.Info("Finished collecting results", zap.Int("completed", done), zap.Duration("total_duration", time.Since(startTime)))

	for _, err := range errs {
		if err != nil {
			return o.fail(err, o.failureMessage(err))
		}
	}
	return o.succeed(req, count, results)
}

func (o *Orchestrator) executeRequest(ctx context.Context, slot int, payload imagegen.GenerateRequest, resultsChan chan<- slotOutcome, wg *sync.WaitGroup) {
	defer wg.Done()

	resp, err := o.client.Generate(imagegen.WithSlot(ctx, slot), payload)
	if err == nil && resp == nil {
		err = &imagegen.ServiceError{Message: imagegen.DefaultErrorMessage, Err: errors.New("empty response")}
	}
	if err != nil {
		resultsChan <- slotOutcome{slot: slot, err: err}
		return
	}
	resultsChan <- slotOutcome{slot: slot, result: GenerationResult{
		Image:     resp.Image,
		Prompt:    resp.Prompt,
		Settings:  resp.Settings,
		Timestamp: o.opts.Now().UnixMilli(),
	}}
}

func (o *Orchestrator) failureMessage(err error) string {
	var serr *imagegen.ServiceError
	if errors.As(err, &serr) && serr.Message != "" && serr.Message != imagegen.DefaultErrorMessage {
		return serr.Message
	}
	return o.t("error_generation_failed")
}

func (o *Orchestrator) fail(err error, message string) (Snapshot, error) {
	o.logger.Info("Generation settled with failure", zap.String("message", message), zap.Error(err))
	s := Snapshot{Phase: PhaseSettled, Outcome: OutcomeFailure, Message: message, Err: err}
	o.transition(s)
	return s, err
}

func (o *Orchestrator) succeed(req GenerationRequest, count int, results []GenerationResult) (Snapshot, error) {
	echoed := results[0].Prompt
	if echoed == "" {
		echoed = req.Prompt
	}

	o.mu.Lock()
	o.current = append([]GenerationResult(nil), results...)
	o.lastRequest = &req
	o.lastPrompt = echoed
	o.lastCount = count
	o.mu.Unlock()

	if o.store != nil {
		if count == 1 || o.opts.PersistBatches {
			o.recordHistory(req, results)
		}
		if err := o.store.SaveSettings(req.GenerationParams.Settings()); err != nil {
			o.logger.Warn("Could not save last-used settings", zap.Error(err))
		}
	}

	o.logger.Info("Generation settled with success", zap.Int("count", count))
	s := Snapshot{Phase: PhaseSettled, Count: count, Outcome: OutcomeSuccess, Results: results}
	o.transition(s)
	return s, nil
}

// recordHistory prepends one entry per result so slot 0 ends up most recent.
func (o *Orchestrator) recordHistory(req GenerationRequest, results []GenerationResult) {
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		prompt := r.Prompt
		if prompt == "" {
			prompt = req.Prompt
		}
		entry := storage.HistoryEntry{
			ID:        newEntryID(),
			Image:     r.Image,
			Prompt:    prompt,
			Settings:  r.Settings,
			CreatedAt: time.UnixMilli(r.Timestamp).UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
		if err := o.store.Append(entry); err != nil {
			o.logger.Warn("Could not persist history entry", zap.String("id", entry.ID), zap.Error(err))
		}
	}
}

// newEntryID returns a time-ordered UUIDv7.
func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return id.String()
}
