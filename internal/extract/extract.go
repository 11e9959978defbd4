// Package extract asks a language model for the version embedded in a
// product name.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"fuid-service/internal/fuid/service"
)

const promptTemplate = `You are cloud marketplace expert.Extract only the version, year, or level number from the product name. Return ONLY the version/number, nothing else.
If you come across a number that could indicate the year/version/level the product might belong to but
is not explicitly stated, return the NUMBER ONLY.
If no version exists, return "00"

These are some of the Examples you can use to understand the pattern:
- intellicus bi server v22.1 5 users → 22.1
- dockermaventerraform on windows server2022 → 2022
- siemonster v5 training non mssps → 5
- windows server 2019 datacenter hardened image level 1 → 2019-level1

Product name: %s
Version: `

var (
	_ service.VersionExtractor = Disabled{}
	_ service.VersionExtractor = (*LLM)(nil)
)

// Disabled never calls out. It stands in when extraction is turned off.
type Disabled struct{}

func (Disabled) ExtractVersion(context.Context, string) (string, error) {
	return service.DefaultVersion, nil
}

// LLM prompts a langchaingo model.
type LLM struct {
	model   llms.Model
	timeout time.Duration
	log     zerolog.Logger
}

func New(model llms.Model, timeout time.Duration, logger zerolog.Logger) *LLM {
	return &LLM{model: model, timeout: timeout, log: logger}
}

// NewOllama builds an extractor backed by an Ollama server.
func NewOllama(host, model string, timeout time.Duration, logger zerolog.Logger) (*LLM, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if host != "" {
		opts = append(opts, ollama.WithServerURL(host))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return New(llm, timeout, logger), nil
}

func (x *LLM) ExtractVersion(ctx context.Context, product string) (string, error) {
	product = strings.TrimSpace(product)
	if product == "" {
		return service.DefaultVersion, nil
	}
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}
	answer, err := llms.GenerateFromSinglePrompt(ctx, x.model, fmt.Sprintf(promptTemplate, product), llms.WithTemperature(0))
	if err != nil {
		x.log.Warn().Err(err).Str("product", product).Msg("version extraction failed")
		return service.DefaultVersion, nil
	}
	return parseAnswer(answer), nil
}

// parseAnswer keeps the first non-empty line without quotes.
func parseAnswer(answer string) string {
	for _, line := range strings.Split(answer, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "\"'`")
		if line != "" {
			return service.CanonicalVersion(line)
		}
	}
	return service.DefaultVersion
}
