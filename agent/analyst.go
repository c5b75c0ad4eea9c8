package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bdebruin1014/proforma"
	"github.com/bdebruin1014/proforma/docs"
	"github.com/bdebruin1014/proforma/renderer"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model of the experts.
const DefaultModel = "gemini-2.5-pro"

func instruction(s string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: s}}}
}

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: instruction(`
			As a facilitator you are in charge of the conversation and of solving the user's request.

			Learn about the experts' skills from the Tools and ask them questions.
			They are at your service and keep the context of your previous questions.

			The user is a real estate developer reviewing the pro forma of a for-sale project:
			revenues, land, hard and soft costs, the construction loan and the equity.
			Devise a plan of questions to ask each expert and come up with the best response.
			Quote figures exactly as the Analyst reports them, never recompute them yourself.
			`),
		},
		Library: NewLibrary(experts),
	}
}

// NewLender creates an expert in construction lending.
func NewLender(model string) *Expert {
	return &Expert{
		Name: "Lender",
		Description: `This is a construction lender.
		Ask the Lender about loan to cost limits, origination fees, interest reserves
		and how a credit committee would look at the sources and uses of a project.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: instruction(`
			You are a construction lender underwriting for-sale residential projects.
			You Leverage Google Search to ground current market terms.
			You are part of a team of experts; the Analyst owns the figures of the project.
			`),
		},
	}
}

// NewAnalyst creates the expert that reads the pro forma of s.
func NewAnalyst(model string, s *proforma.Service) *Expert {
	lib := analystFunctions(s)
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. It reads the pro forma of the project and its version history.
		It knows every input, every derived metric and whether sources cover uses.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: instruction(`
			You are the analyst in charge of the user's pro forma.
			Use the available tools to get
			  - the summary of the current draft or of a locked version
			  - the derived metrics as JSON
			  - the version history
			Derived metrics are computed by the tools; report them, do not compute your own.
			`),
		},
		Library: NewLibrary(lib),
	}
}

func analystFunctions(s *proforma.Service) []Function {
	versionDoc, err := docs.GetTopic("versions")
	if err != nil {
		versionDoc = "A version is written vMAJOR.MINOR, like v1.2."
	}
	versionArg := &genai.Schema{
		Type:        genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"version": {
				Type:        genai.TypeString,
				Description: "The version to read. The draft is the default.\n\n" + versionDoc,
			},
		},
	}
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Summary",
				Description: "Summary renders a version of the pro forma: returns, sources and uses, and every input.",
				Parameters:  versionArg,
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown document with the metrics and inputs of the version.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				view, err := viewOf(s, args)
				if err != nil {
					return failure(id, "Summary", err)
				}
				return success(id, "Summary", renderer.RenderSummary(renderer.NewSummary(view), renderer.SummaryRenderOptions{}))
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Metrics",
				Description: "Metrics returns the derived metrics and balance status of a version as JSON, with exact amounts.",
				Parameters:  versionArg,
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A JSON object with the metrics and the balance.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				view, err := viewOf(s, args)
				if err != nil {
					return failure(id, "Metrics", err)
				}
				data, err := json.Marshal(struct {
					Metrics proforma.DerivedMetrics `json:"metrics"`
					Balance proforma.BalanceStatus  `json:"balance"`
				}{view.Metrics, view.Balance})
				if err != nil {
					return failure(id, "Metrics", err)
				}
				return success(id, "Metrics", string(data))
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "History",
				Description: "History lists the versions of the pro forma, most recent first, with their status and balance.",
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown table of the versions.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				return success(id, "History", renderer.RenderHistory(renderer.NewHistory(s.Name(), s.Versions())))
			},
		},
	}
}

// viewOf returns the view of the version named in args, or the current view.
func viewOf(s *proforma.Service, args map[string]any) (proforma.View, error) {
	arg, ok := args["version"]
	if !ok {
		return s.View()
	}
	str, ok := arg.(string)
	if !ok {
		return proforma.View{}, fmt.Errorf("argument 'version' is not a string as expected but %T", arg)
	}
	id, err := proforma.ParseVersionID(str)
	if err != nil {
		return proforma.View{}, err
	}
	return s.ViewOf(id)
}
