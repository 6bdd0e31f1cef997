// Package inference runs the two model-backed onboarding stages on AWS
// Bedrock: extracting a partner field document from sample records, and
// mapping those fields onto canonical schema leaves. All data stays within
// AWS; there are no external API calls.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/bechidu/partner-sync-ai/internal/canonical"
	"github.com/bechidu/partner-sync-ai/internal/ingest"
	"github.com/bechidu/partner-sync-ai/internal/mapping"
	"github.com/bechidu/partner-sync-ai/internal/pkg/logger"
)

const defaultModelID = "anthropic.claude-3-sonnet-20240229-v1:0"

// PartnerField is one extracted field from a partner sample.
type PartnerField struct {
	PartnerField     string  `json:"partner_field"`
	InferredType     string  `json:"inferred_type"`
	ExampleValue     any     `json:"example_value"`
	ShortDescription string  `json:"short_description"`
	Confidence       float64 `json:"confidence"`
}

// FieldDocument is the stage-one output: the partner's field schema as the
// model saw it in the samples.
type FieldDocument struct {
	PartnerName string         `json:"partner_name"`
	Transport   string         `json:"transport"`
	Source      FieldSource    `json:"source"`
	Fields      []PartnerField `json:"fields"`
	Notes       string         `json:"notes,omitempty"`
}

type FieldSource struct {
	FileURL string `json:"file_url"`
}

// invoker is the slice of bedrockruntime.Client the client needs; tests
// substitute a canned implementation.
type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client calls Bedrock for field extraction and mapping suggestion.
type Client struct {
	bedrock invoker
	modelID string
	region  string
	timeout time.Duration
}

// New builds a Client from the default AWS credential chain.
func New(ctx context.Context, region, modelID string, timeout time.Duration) (*Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	if modelID == "" {
		modelID = defaultModelID
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	c := &Client{
		bedrock: bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		region:  region,
		timeout: timeout,
	}
	logger.Info("inference client initialized", "model", modelID, "region", region)
	return c, nil
}

// modelMessage and friends follow the Anthropic messages shape Bedrock
// expects for Claude models.
type modelMessage struct {
	Role    string              `json:"role"`
	Content []modelContentBlock `json:"content"`
}

type modelContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type modelRequest struct {
	AnthropicVersion string         `json:"anthropic_version"`
	MaxTokens        int            `json:"max_tokens"`
	System           string         `json:"system,omitempty"`
	Messages         []modelMessage `json:"messages"`
	Temperature      float64        `json:"temperature"`
}

type modelResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

const systemPrompt = "You are a strict JSON-output generator. Follow instructions exactly."

// ExtractFields runs stage one: given parsed sample records, ask the model
// for the partner's field schema. At most ten flattened records are sent.
func (c *Client) ExtractFields(ctx context.Context, partnerName string, transport ingest.Transport, fileURL string, records []ingest.Record) (*FieldDocument, error) {
	samples := make([]ingest.Record, 0, 10)
	for _, rec := range records {
		if len(samples) == 10 {
			break
		}
		samples = append(samples, ingest.Flatten(rec))
	}

	payload := map[string]any{
		"partner_name":   partnerName,
		"transport":      string(transport),
		"file_url":       fileURL,
		"sample_records": samples,
	}
	text, err := c.invoke(ctx, extractPrompt, payload, 4096)
	if err != nil {
		return nil, fmt.Errorf("field extraction failed: %w", err)
	}

	var doc FieldDocument
	if err := extractInto(text, &doc); err != nil {
		return nil, fmt.Errorf("field extraction failed: %w", err)
	}
	for i := range doc.Fields {
		doc.Fields[i].PartnerField = mapping.NormalizeFieldName(doc.Fields[i].PartnerField)
	}
	if doc.Source.FileURL == "" {
		doc.Source.FileURL = fileURL
	}
	if doc.PartnerName == "" {
		doc.PartnerName = partnerName
	}
	return &doc, nil
}

// stage-two response shapes; the model sometimes returns a flat
// field-to-path object instead of the documented mappings list.
type mappingResponse struct {
	PartnerName string `json:"partner_name"`
	Mappings    []struct {
		PartnerField string  `json:"partner_field"`
		MappedTo     *string `json:"mapped_to"`
		Confidence   float64 `json:"confidence"`
		Reason       string  `json:"reason"`
	} `json:"mappings"`
}

// SuggestMappings runs stage two: map extracted partner fields onto the
// canonical schema leaves. Fields the model maps to null are dropped.
func (c *Client) SuggestMappings(ctx context.Context, partnerName string, fields []PartnerField, leaves []string) (canonical.MappingSet, error) {
	payload := map[string]any{
		"partner_name":     partnerName,
		"fields":           fields,
		"canonical_leaves": leaves,
	}
	text, err := c.invoke(ctx, mapPrompt, payload, 2048)
	if err != nil {
		return nil, fmt.Errorf("mapping suggestion failed: %w", err)
	}
	return decodeMappings(text)
}

func decodeMappings(text string) (canonical.MappingSet, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("mapping suggestion failed: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected mapping response shape")
	}

	if _, hasMappings := obj["mappings"]; hasMappings {
		var resp mappingResponse
		if err := extractInto(text, &resp); err != nil {
			return nil, fmt.Errorf("mapping suggestion failed: %w", err)
		}
		var set canonical.MappingSet
		for _, m := range resp.Mappings {
			if m.MappedTo == nil || *m.MappedTo == "" {
				continue
			}
			set = append(set, canonical.MappingEntry{
				SourceField:   mapping.NormalizeFieldName(m.PartnerField),
				CanonicalPath: *m.MappedTo,
				Confidence:    m.Confidence,
			})
		}
		return set, nil
	}

	// Flat field-to-path object fallback.
	var set canonical.MappingSet
	for field, target := range obj {
		path, isStr := target.(string)
		if !isStr || path == "" {
			continue
		}
		set = append(set, canonical.MappingEntry{
			SourceField:   mapping.NormalizeFieldName(field),
			CanonicalPath: path,
			Confidence:    0.95,
		})
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("unexpected mapping response shape")
	}
	return set, nil
}

func (c *Client) invoke(ctx context.Context, prompt string, payload any, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	request := modelRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		System:           systemPrompt,
		Messages: []modelMessage{{
			Role: "user",
			Content: []modelContentBlock{
				{Type: "text", Text: prompt + "\n\nINPUT_PAYLOAD:\n" + string(payloadJSON)},
			},
		}},
		Temperature: 0,
	}
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := c.bedrock.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke error: %w", err)
	}

	var response modelResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("failed to parse model response: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	logger.Debug("model invocation complete",
		"in_tokens", response.Usage.InputTokens,
		"out_tokens", response.Usage.OutputTokens,
		"stop", response.StopReason)
	return text, nil
}
