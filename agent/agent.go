// Package agent reviews a pro forma with a team of Gemini experts.
package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bdebruin1014/proforma"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Agent is the AI assistant that handles the chat session.
type Agent struct {
	w           io.Writer
	r           *bufio.Reader
	Facilitator *Expert
	Experts     []*Expert
	// Print writes a markdown answer, plain text by default.
	Print func(w io.Writer, markdown string) error
}

// New creates an agent whose facilitator can ask the given experts.
//
// w receives the agent's output (e.g., os.Stdout), r the user input (e.g.,
// os.Stdin).
func New(w io.Writer, r io.Reader, model string, experts ...*Expert) *Agent {
	return &Agent{
		w:           w,
		r:           bufio.NewReader(r),
		Experts:     experts,
		Facilitator: newFacilitator(model, experts...),
		Print: func(w io.Writer, markdown string) error {
			_, err := fmt.Fprintln(w, markdown)
			return err
		},
	}
}

// NewReviewer creates an agent that reviews the pro forma of s with an analyst
// and a lender.
func NewReviewer(w io.Writer, r io.Reader, model string, s *proforma.Service, log logrus.FieldLogger) *Agent {
	if model == "" {
		model = DefaultModel
	}
	experts := []*Expert{NewAnalyst(model, s), NewLender(model)}
	a := New(w, r, model, experts...)
	for _, e := range append(experts, a.Facilitator) {
		e.Log = log
	}
	return a
}

// Start opens the chat sessions of every expert.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range a.Experts {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	return a.Facilitator.Start(ctx, client)
}

const prompt = "review> "

// Run starts the interactive session. prompts are answered first, as if the
// user had typed them.
func (a *Agent) Run(ctx context.Context, prompts ...string) error {
	fmt.Fprintln(a.w, "Type 'bye' to exit.")
	for {
		fmt.Fprint(a.w, prompt)
		var input string

		if len(prompts) > 0 {
			input, prompts = strings.TrimSpace(prompts[0]), prompts[1:]
			if input == "" {
				continue
			}
			fmt.Fprintln(a.w, input)
		} else {
			var err error
			input, err = a.r.ReadString('\n')
			if errors.Is(err, io.EOF) && strings.TrimSpace(input) == "" {
				return nil // Ctrl+D
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
		}

		if strings.TrimSpace(input) == "bye" {
			return nil
		}

		content, err := a.Facilitator.Ask(ctx, &genai.Part{Text: input})
		if err != nil {
			return err
		}
		if err := a.Print(a.w, text(content)); err != nil {
			return err
		}
	}
}
