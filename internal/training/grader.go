package training

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	openaishared "github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// Oracle scores a free-text answer against a question.
type Oracle interface {
	Grade(ctx context.Context, question Question, answer string) (*Grade, error)
}

// OpenAIGrader implements Oracle over the OpenAI responses API with a strict
// JSON schema output.
type OpenAIGrader struct {
	client *openai.Client
}

// NewOpenAIGrader builds an OpenAIGrader.
func NewOpenAIGrader(apiKey string) *OpenAIGrader {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIGrader{client: &client}
}

// Grade asks the model for a score and feedback.
func (g *OpenAIGrader) Grade(ctx context.Context, question Question, answer string) (*Grade, error) {
	prompt := fmt.Sprintf(`You are grading an internal training quiz answer.
Score the answer from 0 to %d against the key points. Be strict but fair.
Return a short feedback sentence the trainee can learn from.

Question: %s
Key points: %s
Answer: %s`, question.MaxScore, question.Prompt, question.KeyPoints, answer)

	schemaJSON, err := json.Marshal(gradeSchema())
	if err != nil {
		return nil, fmt.Errorf("training: marshal grade schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("training: unmarshal grade schema: %w", err)
	}

	resp, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: openaishared.ResponsesModel(openaishared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:   constant.JSONSchema("json_schema"),
					Name:   "quiz_grade",
					Strict: param.NewOpt(true),
					Schema: schemaMap,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("training: grade request: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("training: empty grade response")
	}

	var grade Grade
	if err := json.Unmarshal([]byte(content), &grade); err != nil {
		return nil, fmt.Errorf("training: parse grade: %w", err)
	}
	if grade.Score < 0 {
		grade.Score = 0
	}
	if grade.Score > question.MaxScore {
		grade.Score = question.MaxScore
	}
	return &grade, nil
}

func gradeSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var g Grade
	return reflector.Reflect(g)
}
