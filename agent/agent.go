package agent

import (
	"fmt"
	"log/slog"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/randalmurphal/llmkit/model"

	"github.com/randalmurphal/convoflow"
)

// Kind classifies the conversation an agent handles. The kind determines
// which model tier is appropriate.
type Kind string

const (
	// Routing-only conversations can use smaller models.
	Triage Kind = "triage"

	// Standard conversations use the default tier.
	Support Kind = "support"
	Sales   Kind = "sales"
	Intake  Kind = "intake"

	// Escalations need reasoning.
	Escalation Kind = "escalation"
)

// TierForKind returns the model tier appropriate for a conversation kind.
func TierForKind(k Kind) model.Tier {
	switch k {
	case Escalation:
		return model.TierThinking
	case Triage:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// SelectModel selects the model for a conversation kind.
func SelectModel(k Kind) model.ModelName {
	switch TierForKind(k) {
	case model.TierThinking:
		return model.ModelOpus
	case model.TierFast:
		return model.ModelHaiku
	default:
		return model.ModelSonnet
	}
}

// NewSelector creates a model selector configured for conversation kinds.
func NewSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if k, ok := task.(Kind); ok {
				return TierForKind(k)
			}
			return model.TierDefault
		}),
	}, opts...)
	return model.NewSelector(allOpts...)
}

// Config configures agent bootstrap.
type Config struct {
	// Name identifies the agent; required.
	Name string

	// Kind selects the model tier. Defaults to Support.
	Kind Kind

	// Model overrides kind-based selection when non-empty.
	Model model.ModelName
}

// Agent is a ready-to-serve conversational agent: a validated, compiled
// workflow document plus identity and model choice. The document is
// immutable and safe for concurrent reads.
type Agent struct {
	ID    string
	Name  string
	Kind  Kind
	Model model.ModelName

	doc *convoflow.Document
}

// New validates and compiles the workflow and returns a ready agent. Any
// structural error in the graph fails here, before any conversation is
// served.
func New(cfg Config, b *convoflow.Builder) (*Agent, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("agent: name is required")
	}
	kind := cfg.Kind
	if kind == "" {
		kind = Support
	}

	doc, err := b.Serialize()
	if err != nil {
		return nil, fmt.Errorf("agent %q: workflow invalid: %w", cfg.Name, err)
	}

	id, err := nanoid.New()
	if err != nil {
		return nil, fmt.Errorf("agent %q: generate id: %w", cfg.Name, err)
	}

	m := cfg.Model
	if m == "" {
		m = SelectModel(kind)
	}

	a := &Agent{
		ID:    "agent_" + id,
		Name:  cfg.Name,
		Kind:  kind,
		Model: m,
		doc:   doc,
	}
	slog.Info("agent initialized",
		"agent", a.Name, "id", a.ID, "kind", string(a.Kind),
		"model", string(a.Model), "contexts", len(doc.Names()))
	return a, nil
}

// Document returns the compiled workflow document.
func (a *Agent) Document() *convoflow.Document {
	return a.doc
}
