package integrationtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/randalmurphal/convoflow"
	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
	"github.com/randalmurphal/flowgraph/pkg/flowgraph/llm"
)

// ConvState carries one simulated conversation through a flowgraph built
// from a compiled workflow document.
type ConvState struct {
	Context  string
	Step     string
	Turns    []string
	Resolved bool
	Escalate bool
}

// supportLine builds the workflow used across the integration tests: a
// default context that greets, diagnoses, and resolves, plus an escalation
// context a stuck diagnosis can hand off to.
func supportLine() *convoflow.Builder {
	b := convoflow.New()

	main := b.AddContext(convoflow.DefaultContextName)
	main.SetSystemPrompt("You are a patient technical support agent.")
	main.AddStep("greet").
		SetText("Greet the caller and ask what is broken.").
		SetStepCriteria("The caller has described the problem.").
		SetValidSteps("diagnose")
	main.AddStep("diagnose").
		SetText("Walk through one troubleshooting step and check the result.").
		SetValidSteps("diagnose", "resolve").
		SetValidContexts("escalation")
	main.AddStep("resolve").
		SetText("Confirm the fix worked and close out the call.")

	esc := b.AddContext("escalation")
	esc.SetIsolated(true)
	esc.AddEnterFiller(convoflow.FillerDefault, "Let me bring in a specialist...")
	esc.AddStep("handoff").
		SetText("Summarize the problem and transfer to a human specialist.")

	return b
}

func compileDoc(t *testing.T, b *convoflow.Builder) *convoflow.Document {
	t.Helper()

	doc, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return doc
}

// docSteps extracts the ordered step mappings for one context of a compiled
// document.
func docSteps(t *testing.T, doc *convoflow.Document, ctxName string) []map[string]any {
	t.Helper()

	c, ok := doc.Context(ctxName)
	if !ok {
		t.Fatalf("document has no context %q", ctxName)
	}
	raw, ok := c["steps"].([]any)
	if !ok {
		t.Fatalf("context %q has no steps list", ctxName)
	}
	steps := make([]map[string]any, len(raw))
	for i, s := range raw {
		steps[i] = s.(map[string]any)
	}
	return steps
}

// findStep returns the serialized mapping of one named step.
func findStep(t *testing.T, doc *convoflow.Document, ctxName, stepName string) map[string]any {
	t.Helper()

	for _, s := range docSteps(t, doc, ctxName) {
		if s["name"] == stepName {
			return s
		}
	}
	t.Fatalf("step %q not found in context %q", stepName, ctxName)
	return nil
}

// stepNode turns one serialized step into a graph node: the step's text
// becomes the system prompt for one LLM turn, and the response is appended
// to the conversation.
func stepNode(client llm.Client, ctxName string, step map[string]any) flowgraph.NodeFunc[ConvState] {
	name := step["name"].(string)
	text := step["text"].(string)

	return func(ctx flowgraph.Context, state ConvState) (ConvState, error) {
		resp, err := client.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: text,
			Messages:     []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf("step %s", name)}},
		})
		if err != nil {
			return state, err
		}
		state.Context = ctxName
		state.Step = name
		state.Turns = append(state.Turns, resp.Content)
		return state, nil
	}
}

// setupContext creates a flowgraph.Context carrying the mock LLM.
func setupContext(t *testing.T, mockLLM llm.Client) flowgraph.Context {
	t.Helper()

	return flowgraph.NewContext(context.Background(), flowgraph.WithLLM(mockLLM))
}

// mockResponses creates a MockClient with sequential responses.
func mockResponses(responses ...string) *llm.MockClient {
	return llm.NewMockClient("").WithResponses(responses...)
}
