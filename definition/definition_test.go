package definition

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/randalmurphal/convoflow"
	"github.com/randalmurphal/convoflow/prompt"
)

const claimsWorkflow = `
version: 1
contexts:
  - name: triage
    prompt: Route the caller to the right department.
    valid_contexts: [claims]
    enter_fillers:
      default: ["One moment."]
    steps:
      - name: greet
        text: Greet the caller.
        step_criteria: The caller stated why they are calling.
        valid_steps: [next]
      - name: route
        text: Route the caller.
        functions: disabled
        valid_contexts: [claims]
  - name: claims
    system_prompt: You are the claims specialist.
    isolated: true
    steps:
      - name: collect
        sections:
          - title: Goal
            body: Collect the claim details.
          - title: Required
            bullets: [policy number, incident date]
        functions: [lookup_policy, file_claim]
        reset:
          consolidate: true
`

func TestParseAndCompile(t *testing.T) {
	def, err := Parse([]byte(claimsWorkflow))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Version != 1 || len(def.Contexts) != 2 {
		t.Fatalf("parsed version %d with %d contexts", def.Version, len(def.Contexts))
	}

	b, err := def.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	doc, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !reflect.DeepEqual(doc.Names(), []string{"triage", "claims"}) {
		t.Errorf("context order = %v", doc.Names())
	}

	triage, _ := doc.Context("triage")
	if triage["prompt"] != "Route the caller to the right department." {
		t.Errorf("triage prompt = %v", triage["prompt"])
	}
	steps := triage["steps"].([]any)
	route := steps[1].(map[string]any)
	if route["functions"] != "disabled" {
		t.Errorf("route functions = %v", route["functions"])
	}

	claims, _ := doc.Context("claims")
	if claims["isolated"] != true {
		t.Errorf("claims isolated = %v", claims["isolated"])
	}
	collect := claims["steps"].([]any)[0].(map[string]any)
	if !strings.Contains(collect["text"].(string), "## Required") {
		t.Errorf("collect text should contain the bullet section heading:\n%s", collect["text"])
	}
	if !reflect.DeepEqual(collect["functions"], []string{"lookup_policy", "file_claim"}) {
		t.Errorf("collect functions = %v", collect["functions"])
	}
	reset := collect["reset"].(map[string]any)
	if reset["consolidate"] != true {
		t.Errorf("collect reset = %v", reset)
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
version: 1
contexts:
  - name: default
    stepz:
      - name: greet
`))
	if err == nil {
		t.Fatal("unknown field should fail parsing")
	}
}

func TestParse_FunctionsBadSentinel(t *testing.T) {
	_, err := Parse([]byte(`
version: 1
contexts:
  - name: default
    steps:
      - name: greet
        text: Hi
        functions: none
`))
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("bad functions sentinel should fail with guidance, got %v", err)
	}
}

func TestCompile_DanglingReferenceFails(t *testing.T) {
	def, err := Parse([]byte(`
version: 1
contexts:
  - name: sales
    steps:
      - name: pitch
        text: Pitch.
        valid_contexts: [support]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, err = def.Compile()
	if !errors.Is(err, convoflow.ErrDanglingReference) {
		t.Fatalf("Compile = %v, want ErrDanglingReference", err)
	}
}

func TestCompile_TextFileWithoutLoader(t *testing.T) {
	def, err := Parse([]byte(`
version: 1
contexts:
  - name: default
    steps:
      - name: greet
        text_file: step-greeting
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if _, err := def.Compile(); !errors.Is(err, ErrNoPromptLoader) {
		t.Fatalf("Compile = %v, want ErrNoPromptLoader", err)
	}
}

func TestCompileWithPrompts_ResolvesTextFile(t *testing.T) {
	dir := t.TempDir()
	promptsDir := filepath.Join(dir, "prompts")
	os.MkdirAll(promptsDir, 0o755)
	os.WriteFile(filepath.Join(promptsDir, "verify-identity.txt"),
		[]byte("Verify the caller works at {{.Company}}."), 0o644)

	def, err := Parse([]byte(`
version: 1
contexts:
  - name: default
    steps:
      - name: verify
        text_file: verify-identity
        text_vars:
          Company: Acme
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	b, err := def.CompileWithPrompts(prompt.NewLoader(dir))
	if err != nil {
		t.Fatalf("CompileWithPrompts: %v", err)
	}
	doc, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	m, _ := doc.Context("default")
	verify := m["steps"].([]any)[0].(map[string]any)
	if verify["text"] != "Verify the caller works at Acme." {
		t.Errorf("text = %q", verify["text"])
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	os.WriteFile(path, []byte(claimsWorkflow), 0o644)

	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(def.Contexts) != 2 {
		t.Errorf("contexts = %d, want 2", len(def.Contexts))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
