package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"InvestAgent/internal/domain/models"
	domsvc "InvestAgent/internal/domain/service"
	svcmetrics "InvestAgent/internal/service/metrics"
	"InvestAgent/internal/service/ratelimit"
	"InvestAgent/pkg/config"
)

// Client is a Bedrock Runtime completer speaking the Nova messages-v1 schema.
type Client struct {
	api            *bedrockruntime.Client
	limiter        *ratelimit.Limiter
	requestsPerMin float64
	burst          float64
	maxRetries     int
	timeout        time.Duration
	defaultModelID string
}

// New builds a Bedrock client from platform config using the default AWS
// credential chain.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	awscfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Bedrock.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("bedrock aws config: %w", err)
	}

	svcmetrics.Register()

	rpm := cfg.Bedrock.RequestsPerMin
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.Bedrock.BurstCapacity
	if burst <= 0 {
		burst = 5
	}
	timeout := cfg.Bedrock.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.Bedrock.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &Client{
		api:            bedrockruntime.NewFromConfig(awscfg),
		limiter:        ratelimit.New(),
		requestsPerMin: rpm,
		burst:          burst,
		maxRetries:     retries,
		timeout:        timeout,
		defaultModelID: cfg.Bedrock.DefaultModelID,
	}, nil
}

// Nova messages-v1 request/response bodies.

type novaContent struct {
	Text string `json:"text"`
}

type novaMessage struct {
	Role    string        `json:"role"`
	Content []novaContent `json:"content"`
}

type novaInferenceConfig struct {
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"topP,omitempty"`
}

type novaRequest struct {
	SchemaVersion   string              `json:"schemaVersion"`
	System          []novaContent       `json:"system,omitempty"`
	Messages        []novaMessage       `json:"messages"`
	InferenceConfig novaInferenceConfig `json:"inferenceConfig"`
}

type novaResponse struct {
	Output struct {
		Message novaMessage `json:"message"`
	} `json:"output"`
	StopReason string `json:"stopReason"`
	Usage      struct {
		InputTokens  int `json:"inputTokens"`
		OutputTokens int `json:"outputTokens"`
	} `json:"usage"`
}

// Complete invokes the requested model and returns the whole response.
// The streaming flag on the request is accepted but completions are
// returned non-streaming.
func (c *Client) Complete(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResult, error) {
	if req == nil || req.Prompt == "" {
		return nil, fmt.Errorf("completion prompt is required")
	}
	modelID := req.ModelID
	if modelID == "" {
		modelID = c.defaultModelID
	}
	if modelID == "" {
		return nil, fmt.Errorf("no model id and no default configured")
	}

	if !c.limiter.Allow("model:"+modelID, c.burst, c.requestsPerMin/60) {
		svcmetrics.LLMThrottled.WithLabelValues(modelID).Inc()
		return nil, fmt.Errorf("model %s rate limited", modelID)
	}

	body, err := json.Marshal(buildNovaRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.invokeWithRetry(ctx, modelID, body)
	latency := time.Since(start)
	svcmetrics.LLMLatency.WithLabelValues("complete", modelID).Observe(latency.Seconds())
	if err != nil {
		svcmetrics.LLMErrors.WithLabelValues("complete", modelID).Inc()
		return nil, fmt.Errorf("invoke %s: %w", modelID, err)
	}

	var nr novaResponse
	if err := json.Unmarshal(out.Body, &nr); err != nil {
		svcmetrics.LLMErrors.WithLabelValues("decode", modelID).Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var text strings.Builder
	for _, part := range nr.Output.Message.Content {
		text.WriteString(part.Text)
	}

	return &models.CompletionResult{
		ModelID:      modelID,
		Text:         text.String(),
		StopReason:   nr.StopReason,
		InputTokens:  nr.Usage.InputTokens,
		OutputTokens: nr.Usage.OutputTokens,
		Latency:      latency,
	}, nil
}

func buildNovaRequest(req *models.CompletionRequest) novaRequest {
	nr := novaRequest{
		SchemaVersion: "messages-v1",
		Messages: []novaMessage{{
			Role:    "user",
			Content: []novaContent{{Text: req.Prompt}},
		}},
		InferenceConfig: novaInferenceConfig{
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			TopP:        req.TopP,
		},
	}
	if req.SystemPrompt != "" {
		nr.System = []novaContent{{Text: req.SystemPrompt}}
	}
	return nr
}

func (c *Client) invokeWithRetry(ctx context.Context, modelID string, body []byte) (*bedrockruntime.InvokeModelOutput, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(modelID),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isThrottle(err) {
			return nil, err
		}
		select {
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func isThrottle(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "ThrottlingException") || strings.Contains(msg, "TooManyRequests")
}

var _ domsvc.Completer = (*Client)(nil)
