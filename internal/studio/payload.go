package studio

import (
	"strings"

	"github.com/nerdneilsfield/imagegen-studio/internal/config"
	"github.com/nerdneilsfield/imagegen-studio/internal/storage"
	"github.com/nerdneilsfield/imagegen-studio/pkg/imagegen"
)

// RandomSeed lets the service choose the seed.
const RandomSeed = -1

// GenerationParams are every request field except the prompt.
type GenerationParams struct {
	Width          int
	Height         int
	Steps          int
	GuidanceScale  float64
	Seed           int
	NegativePrompt string
}

func DefaultParams() GenerationParams {
	return GenerationParams{
		Width:         512,
		Height:        512,
		Steps:         20,
		GuidanceScale: 7.5,
		Seed:          RandomSeed,
	}
}

// ParamsFromConfig takes the configured defaults.
func ParamsFromConfig(cfg config.GenerationConfig) GenerationParams {
	return GenerationParams{
		Width:          cfg.Width,
		Height:         cfg.Height,
		Steps:          cfg.Steps,
		GuidanceScale:  cfg.GuidanceScale,
		Seed:           cfg.Seed,
		NegativePrompt: cfg.NegativePrompt,
	}
}

// ParamsFromSettings restores persisted last-used settings.
func ParamsFromSettings(s storage.GenerationSettings) GenerationParams {
	return GenerationParams{
		Width:          s.Width,
		Height:         s.Height,
		Steps:          s.Steps,
		GuidanceScale:  s.GuidanceScale,
		Seed:           s.Seed,
		NegativePrompt: s.NegativePrompt,
	}
}

func (p GenerationParams) Settings() storage.GenerationSettings {
	return storage.GenerationSettings{
		Width:          p.Width,
		Height:         p.Height,
		Steps:          p.Steps,
		GuidanceScale:  p.GuidanceScale,
		Seed:           p.Seed,
		NegativePrompt: p.NegativePrompt,
	}
}

// Overrides replaces the non-nil fields of the defaults.
type Overrides struct {
	Width          *int
	Height         *int
	Steps          *int
	GuidanceScale  *float64
	Seed           *int
	NegativePrompt *string
}

func Ptr[T any](v T) *T {
	return &v
}

func (o Overrides) apply(p GenerationParams) GenerationParams {
	if o.Width != nil {
		p.Width = *o.Width
	}
	if o.Height != nil {
		p.Height = *o.Height
	}
	if o.Steps != nil {
		p.Steps = *o.Steps
	}
	if o.GuidanceScale != nil {
		p.GuidanceScale = *o.GuidanceScale
	}
	if o.Seed != nil {
		p.Seed = *o.Seed
	}
	if o.NegativePrompt != nil {
		p.NegativePrompt = *o.NegativePrompt
	}
	return p
}

// GenerationRequest is an immutable, validated request.
type GenerationRequest struct {
	Prompt string
	GenerationParams
}

// Payload is the JSON body sent to the service.
func (r GenerationRequest) Payload() imagegen.GenerateRequest {
	return imagegen.GenerateRequest{
		Prompt:         r.Prompt,
		Width:          r.Width,
		Height:         r.Height,
		Steps:          r.Steps,
		GuidanceScale:  r.GuidanceScale,
		Seed:           r.Seed,
		NegativePrompt: r.NegativePrompt,
	}
}

// Builder merges a prompt and overrides with its defaults.
type Builder struct {
	defaults GenerationParams
}

func NewBuilder(defaults GenerationParams) *Builder {
	return &Builder{defaults: defaults}
}

func (b *Builder) Defaults() GenerationParams {
	return b.defaults
}

// Build trims prompt and fails with a ValidationError when nothing is left.
func (b *Builder) Build(prompt string, overrides Overrides) (GenerationRequest, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return GenerationRequest{}, &ValidationError{Reason: ReasonEmptyPrompt}
	}
	return GenerationRequest{
		Prompt:           trimmed,
		GenerationParams: overrides.apply(b.defaults),
	}, nil
}
