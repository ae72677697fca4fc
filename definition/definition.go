package definition

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/convoflow"
	"github.com/randalmurphal/convoflow/prompt"
)

// ErrNoPromptLoader indicates a text_file reference was used without a
// prompt loader to resolve it.
var ErrNoPromptLoader = errors.New("text_file reference requires a prompt loader")

// Definition is a parsed workflow file.
type Definition struct {
	Version  int          `yaml:"version"`
	Contexts []ContextDef `yaml:"contexts"`
}

// ContextDef declares one context.
type ContextDef struct {
	Name           string              `yaml:"name"`
	ValidContexts  []string            `yaml:"valid_contexts"`
	Prompt         *string             `yaml:"prompt"`
	Sections       []SectionDef        `yaml:"sections"`
	PostPrompt     *string             `yaml:"post_prompt"`
	SystemPrompt   *string             `yaml:"system_prompt"`
	SystemSections []SectionDef        `yaml:"system_sections"`
	Consolidate    *bool               `yaml:"consolidate"`
	FullReset      *bool               `yaml:"full_reset"`
	UserPrompt     *string             `yaml:"user_prompt"`
	Isolated       *bool               `yaml:"isolated"`
	EnterFillers   map[string][]string `yaml:"enter_fillers"`
	ExitFillers    map[string][]string `yaml:"exit_fillers"`
	Steps          []StepDef           `yaml:"steps"`
}

// SectionDef declares one titled section with a body or bullets.
type SectionDef struct {
	Title   string   `yaml:"title"`
	Body    string   `yaml:"body"`
	Bullets []string `yaml:"bullets"`
}

// StepDef declares one step.
type StepDef struct {
	Name          string         `yaml:"name"`
	Text          *string        `yaml:"text"`
	TextFile      string         `yaml:"text_file"`
	TextVars      map[string]any `yaml:"text_vars"`
	Sections      []SectionDef   `yaml:"sections"`
	StepCriteria  *string        `yaml:"step_criteria"`
	Functions     *FunctionsDef  `yaml:"functions"`
	ValidSteps    []string       `yaml:"valid_steps"`
	ValidContexts []string       `yaml:"valid_contexts"`
	Reset         *ResetDef      `yaml:"reset"`
}

// ResetDef declares a step's outward context-switch parameters.
type ResetDef struct {
	SystemPrompt *string `yaml:"system_prompt"`
	UserPrompt   *string `yaml:"user_prompt"`
	Consolidate  *bool   `yaml:"consolidate"`
	FullReset    *bool   `yaml:"full_reset"`
}

// FunctionsDef is the YAML form of a tool restriction: the scalar string
// "disabled" or a sequence of tool names.
type FunctionsDef struct {
	disabled bool
	names    []string
}

// UnmarshalYAML accepts either the "disabled" sentinel or a name list.
func (f *FunctionsDef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s != "disabled" {
			return fmt.Errorf("functions: unknown sentinel %q (want \"disabled\" or a list)", s)
		}
		f.disabled = true
		return nil
	case yaml.SequenceNode:
		return value.Decode(&f.names)
	default:
		return fmt.Errorf("functions: must be \"disabled\" or a list of tool names")
	}
}

func (f *FunctionsDef) restriction() convoflow.Functions {
	if f.disabled {
		return convoflow.FunctionsDisabled()
	}
	return convoflow.FunctionsAllowed(f.names...)
}

// Load reads and parses a workflow file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load workflow definition: %w", err)
	}
	return Parse(data)
}

// Parse parses workflow YAML. Unknown fields are rejected so typos in a
// workflow file fail at parse time rather than silently dropping behavior.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse workflow definition: %w", err)
	}
	return &def, nil
}

// Compile builds the declared workflow through the builder API and
// validates it. text_file references fail with ErrNoPromptLoader; use
// CompileWithPrompts to resolve them.
func (d *Definition) Compile() (*convoflow.Builder, error) {
	return d.compile(nil)
}

// CompileWithPrompts is Compile with text_file references resolved through
// the given loader.
func (d *Definition) CompileWithPrompts(loader *prompt.Loader) (*convoflow.Builder, error) {
	return d.compile(loader)
}

func (d *Definition) compile(loader *prompt.Loader) (*convoflow.Builder, error) {
	b := convoflow.New()

	for _, cd := range d.Contexts {
		c := b.AddContext(cd.Name)

		if cd.ValidContexts != nil {
			c.SetValidContexts(cd.ValidContexts...)
		}
		if cd.Prompt != nil {
			c.SetPrompt(*cd.Prompt)
		}
		for _, sec := range cd.Sections {
			applyContextSection(c, sec)
		}
		if cd.PostPrompt != nil {
			c.SetPostPrompt(*cd.PostPrompt)
		}
		if cd.SystemPrompt != nil {
			c.SetSystemPrompt(*cd.SystemPrompt)
		}
		for _, sec := range cd.SystemSections {
			if len(sec.Bullets) > 0 {
				c.AddSystemBullets(sec.Title, sec.Bullets...)
			} else {
				c.AddSystemSection(sec.Title, sec.Body)
			}
		}
		if cd.Consolidate != nil {
			c.SetConsolidate(*cd.Consolidate)
		}
		if cd.FullReset != nil {
			c.SetFullReset(*cd.FullReset)
		}
		if cd.UserPrompt != nil {
			c.SetUserPrompt(*cd.UserPrompt)
		}
		if cd.Isolated != nil {
			c.SetIsolated(*cd.Isolated)
		}
		if cd.EnterFillers != nil {
			c.SetEnterFillers(cd.EnterFillers)
		}
		if cd.ExitFillers != nil {
			c.SetExitFillers(cd.ExitFillers)
		}

		for _, sd := range cd.Steps {
			if err := applyStep(c, sd, loader); err != nil {
				return nil, err
			}
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func applyContextSection(c *convoflow.Context, sec SectionDef) {
	if len(sec.Bullets) > 0 {
		c.AddBullets(sec.Title, sec.Bullets...)
	} else {
		c.AddSection(sec.Title, sec.Body)
	}
}

func applyStep(c *convoflow.Context, sd StepDef, loader *prompt.Loader) error {
	s := c.AddStep(sd.Name)

	if sd.Text != nil {
		s.SetText(*sd.Text)
	}
	if sd.TextFile != "" {
		if loader == nil {
			return fmt.Errorf("step %q: %w", sd.Name, ErrNoPromptLoader)
		}
		text, err := loader.LoadWithVars(sd.TextFile, sd.TextVars)
		if err != nil {
			return fmt.Errorf("step %q: %w", sd.Name, err)
		}
		s.SetText(text)
	}
	for _, sec := range sd.Sections {
		if len(sec.Bullets) > 0 {
			s.AddBullets(sec.Title, sec.Bullets...)
		} else {
			s.AddSection(sec.Title, sec.Body)
		}
	}
	if sd.StepCriteria != nil {
		s.SetStepCriteria(*sd.StepCriteria)
	}
	if sd.Functions != nil {
		s.SetFunctions(sd.Functions.restriction())
	}
	if sd.ValidSteps != nil {
		s.SetValidSteps(sd.ValidSteps...)
	}
	if sd.ValidContexts != nil {
		s.SetValidContexts(sd.ValidContexts...)
	}
	if sd.Reset != nil {
		if sd.Reset.SystemPrompt != nil {
			s.SetResetSystemPrompt(*sd.Reset.SystemPrompt)
		}
		if sd.Reset.UserPrompt != nil {
			s.SetResetUserPrompt(*sd.Reset.UserPrompt)
		}
		if sd.Reset.Consolidate != nil {
			s.SetResetConsolidate(*sd.Reset.Consolidate)
		}
		if sd.Reset.FullReset != nil {
			s.SetResetFullReset(*sd.Reset.FullReset)
		}
	}
	return nil
}
