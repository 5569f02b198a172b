package schemas

// AgentOutputSchema is the fixed contract for the combined three-persona
// document-processing call. The top level requires a one-line summary plus
// exactly three nested persona objects; extra top-level keys are rejected so
// a drifting prompt fails loudly instead of persisting junk.
const AgentOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["summary", "jester", "arbiter", "merchant"],
  "additionalProperties": false,
  "properties": {
    "summary": {
      "type": "string",
      "minLength": 1,
      "description": "One-line summary of the document"
    },
    "jester": {
      "type": "object",
      "required": ["memeCaption", "videoScript", "socialPost"],
      "properties": {
        "memeCaption": {"type": "string"},
        "videoScript": {"type": "string"},
        "socialPost": {"type": "string"}
      }
    },
    "arbiter": {
      "type": "object",
      "required": ["violations", "citations", "analysis"],
      "properties": {
        "violations": {"type": "array", "items": {"type": "string"}},
        "citations": {"type": "array", "items": {"type": "string"}},
        "analysis": {"type": "string"}
      }
    },
    "merchant": {
      "type": "object",
      "required": ["productName", "productDescription", "productLink"],
      "properties": {
        "productName": {"type": "string"},
        "productDescription": {"type": "string"},
        "productLink": {"type": "string"}
      }
    }
  }
}`

// JesterOutput is the viral-content persona group.
type JesterOutput struct {
	MemeCaption string `json:"memeCaption"`
	VideoScript string `json:"videoScript"`
	SocialPost  string `json:"socialPost"`
}

// ArbiterOutput is the legal-violation persona group.
type ArbiterOutput struct {
	Violations []string `json:"violations"`
	Citations  []string `json:"citations"`
	Analysis   string   `json:"analysis"`
}

// MerchantOutput is the monetization persona group.
type MerchantOutput struct {
	ProductName        string `json:"productName"`
	ProductDescription string `json:"productDescription"`
	ProductLink        string `json:"productLink"`
}

// AgentOutputPayload is the parsed result of a structured processing call.
type AgentOutputPayload struct {
	Summary  string         `json:"summary"`
	Jester   JesterOutput   `json:"jester"`
	Arbiter  ArbiterOutput  `json:"arbiter"`
	Merchant MerchantOutput `json:"merchant"`
}

// DecodeAgentOutput validates raw LLM output against AgentOutputSchema and
// decodes it. Returns *ValidationError (with the raw payload) on any mismatch.
func DecodeAgentOutput(payload string) (*AgentOutputPayload, error) {
	var out AgentOutputPayload
	if err := DecodeValidated(AgentOutputSchema, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
