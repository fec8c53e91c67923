package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/mdb-curator/internal/platform/envutil"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

const DefaultEmbedModel = "text-embedding-3-small"

// Client is the embedding surface of the OpenAI API used by the similarity scorer.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Config struct {
	APIKey     string        `yaml:"-"`
	BaseURL    string        `yaml:"base_url"`
	EmbedModel string        `yaml:"embed_model"`
	Timeout    time.Duration `yaml:"-"`
}

// ConfigFromEnv overlays OPENAI_* variables on base.
func ConfigFromEnv(base Config) Config {
	cfg := base
	cfg.APIKey = envutil.String("OPENAI_API_KEY", cfg.APIKey)
	cfg.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.BaseURL)
	cfg.EmbedModel = envutil.String("OPENAI_EMBED_MODEL", cfg.EmbedModel)
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	cfg.Timeout = envutil.Seconds("OPENAI_TIMEOUT_SECONDS", cfg.Timeout)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

type client struct {
	log   *logger.Logger
	api   *goopenai.Client
	model string
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	model := strings.TrimSpace(cfg.EmbedModel)
	if model == "" {
		model = DefaultEmbedModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	oc := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		if !strings.HasSuffix(base, "/v1") {
			base += "/v1"
		}
		oc.BaseURL = base
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &client{
		log:   log.With("client", "OpenAIClient"),
		api:   goopenai.NewClientWithConfig(oc),
		model: model,
	}, nil
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	// the API rejects empty strings
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: clean,
		Model: goopenai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	out := make([][]float32, len(clean))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = i
		}
		if idx < len(out) {
			out[idx] = d.Embedding
		}
	}
	for i := range out {
		if out[i] == nil {
			c.log.Warn("Embeddings response missing indices",
				"requested", len(clean),
				"returned", len(resp.Data),
				"model", c.model,
			)
			return nil, fmt.Errorf("openai embeddings: no vector for input %d", i)
		}
	}
	return out, nil
}
