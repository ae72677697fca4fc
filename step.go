package convoflow

import "fmt"

// NextStep is the sentinel transition target meaning "the following step in
// insertion order".
const NextStep = "next"

// Functions is a step's tool-availability restriction: either the disabled
// sentinel or an explicit allow-list of tool names. No existence check
// against any tool registry happens here; names are opaque.
type Functions struct {
	disabled bool
	names    []string
}

// FunctionsDisabled returns the restriction that disables all tools.
func FunctionsDisabled() Functions {
	return Functions{disabled: true}
}

// FunctionsAllowed returns a restriction allowing only the named tools.
func FunctionsAllowed(names ...string) Functions {
	return Functions{names: append([]string{}, names...)}
}

// Disabled reports whether the restriction is the disabled sentinel.
func (f Functions) Disabled() bool { return f.disabled }

// Allowed returns the allow-list, or nil for the disabled sentinel.
func (f Functions) Allowed() []string {
	if f.disabled {
		return nil
	}
	return append([]string{}, f.names...)
}

// serialize emits the wire form: the string "disabled" or the name list.
func (f Functions) serialize() any {
	if f.disabled {
		return "disabled"
	}
	return append([]string{}, f.names...)
}

// resetParams is the optional exit-transition bundle used when a step
// triggers an outward context switch.
type resetParams struct {
	systemPrompt *string
	userPrompt   *string
	consolidate  *bool
	fullReset    *bool
}

// Step is one workflow node: renderable instructional text plus transition
// and behavior metadata. Steps are created through Context.AddStep and
// mutated through chained setters.
type Step struct {
	name string
	body body

	criteria  *string
	functions *Functions

	validSteps    []string
	validStepsSet bool

	validContexts    []string
	validContextsSet bool

	reset *resetParams

	err error
}

// Name returns the step name.
func (s *Step) Name() string { return s.name }

// Err returns the first construction error recorded on this step, if any.
// The same error also surfaces from Builder.Validate.
func (s *Step) Err() error { return s.err }

func (s *Step) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// SetText sets the flat-text body. Mixing with AddSection/AddBullets records
// ErrConflictingMode.
func (s *Step) SetText(text string) *Step {
	if _, ok := s.body.(sectionBody); ok {
		s.fail(fmt.Errorf("%w: step %q already uses sections, cannot set flat text", ErrConflictingMode, s.name))
		return s
	}
	s.body = textBody(text)
	return s
}

// AddSection appends a titled body section. Mixing with SetText records
// ErrConflictingMode.
func (s *Step) AddSection(title, bodyText string) *Step {
	return s.appendSection(Section{Title: title, Body: bodyText})
}

// AddBullets appends a titled bullet-list section. Mixing with SetText
// records ErrConflictingMode.
func (s *Step) AddBullets(title string, bullets ...string) *Step {
	return s.appendSection(Section{Title: title, Bullets: append([]string{}, bullets...)})
}

func (s *Step) appendSection(sec Section) *Step {
	if _, ok := s.body.(textBody); ok {
		s.fail(fmt.Errorf("%w: step %q already uses flat text, cannot add sections", ErrConflictingMode, s.name))
		return s
	}
	sections, _ := s.body.(sectionBody)
	s.body = append(sections, sec)
	return s
}

// SetStepCriteria stores the opaque completion criteria interpreted by the
// external execution engine. The text is not validated here.
func (s *Step) SetStepCriteria(text string) *Step {
	s.criteria = &text
	return s
}

// SetFunctions sets the tool-availability restriction for this step.
func (s *Step) SetFunctions(f Functions) *Step {
	s.functions = &f
	return s
}

// SetValidSteps sets the allow-list of step names navigable from this step.
// Entries may include the NextStep sentinel; everything else must resolve to
// a step in the same context by the time Builder.Validate runs.
func (s *Step) SetValidSteps(names ...string) *Step {
	s.validSteps = append([]string{}, names...)
	s.validStepsSet = true
	return s
}

// SetValidContexts sets the allow-list of context names reachable from this
// step. Resolution is deferred to Builder.Validate.
func (s *Step) SetValidContexts(names ...string) *Step {
	s.validContexts = append([]string{}, names...)
	s.validContextsSet = true
	return s
}

// SetResetSystemPrompt sets the system prompt applied when this step
// triggers an outward context switch.
func (s *Step) SetResetSystemPrompt(text string) *Step {
	s.ensureReset().systemPrompt = &text
	return s
}

// SetResetUserPrompt sets the user prompt applied on an outward context
// switch.
func (s *Step) SetResetUserPrompt(text string) *Step {
	s.ensureReset().userPrompt = &text
	return s
}

// SetResetConsolidate sets the consolidate flag for an outward context
// switch.
func (s *Step) SetResetConsolidate(v bool) *Step {
	s.ensureReset().consolidate = &v
	return s
}

// SetResetFullReset sets the full-reset flag for an outward context switch.
func (s *Step) SetResetFullReset(v bool) *Step {
	s.ensureReset().fullReset = &v
	return s
}

func (s *Step) ensureReset() *resetParams {
	if s.reset == nil {
		s.reset = &resetParams{}
	}
	return s.reset
}

// renderText returns the flat text verbatim or the flattened section text.
func (s *Step) renderText() (string, error) {
	if s.body == nil {
		return "", fmt.Errorf("%w: step %q has neither text nor sections", ErrEmptyContent, s.name)
	}
	return s.body.render(), nil
}

// serialize emits the step's wire mapping. Optional keys are omitted
// entirely when unset, never emitted as null; downstream consumers treat key
// presence as a feature switch.
func (s *Step) serialize() (map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	text, err := s.renderText()
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"name": s.name,
		"text": text,
	}
	if s.criteria != nil {
		out["step_criteria"] = *s.criteria
	}
	if s.functions != nil {
		out["functions"] = s.functions.serialize()
	}
	if s.validStepsSet {
		out["valid_steps"] = append([]string{}, s.validSteps...)
	}
	if s.validContextsSet {
		out["valid_contexts"] = append([]string{}, s.validContexts...)
	}
	if s.reset != nil {
		reset := map[string]any{}
		if s.reset.systemPrompt != nil {
			reset["system_prompt"] = *s.reset.systemPrompt
		}
		if s.reset.userPrompt != nil {
			reset["user_prompt"] = *s.reset.userPrompt
		}
		if s.reset.consolidate != nil {
			reset["consolidate"] = *s.reset.consolidate
		}
		if s.reset.fullReset != nil {
			reset["full_reset"] = *s.reset.fullReset
		}
		out["reset"] = reset
	}
	return out, nil
}
