package convoflow

import (
	"fmt"

	"golang.org/x/text/language"
)

// FillerDefault is the filler-map key used when no language tag applies.
const FillerDefault = "default"

// Context is a named, ordered collection of steps representing one phase or
// persona of a conversation. It carries its own descriptive prompt, entry
// parameters for context switches, and spoken transition fillers.
type Context struct {
	name string

	steps     []*Step
	stepIndex map[string]*Step

	validContexts    []string
	validContextsSet bool

	// prompt is the context-level descriptive prompt; systemPrompt is the
	// entry-transition system prompt. The two are independent fields, each
	// internally exclusive between text and section modes.
	prompt       body
	systemPrompt body

	postPrompt  *string
	userPrompt  *string
	consolidate *bool
	fullReset   *bool
	isolated    *bool

	enterFillers map[string][]string
	exitFillers  map[string][]string

	err error
}

func newContext(name string) *Context {
	return &Context{
		name:      name,
		stepIndex: make(map[string]*Step),
	}
}

// Name returns the context name.
func (c *Context) Name() string { return c.name }

// Err returns the first construction error recorded on this context, if
// any. The same error also surfaces from Builder.Validate.
func (c *Context) Err() error { return c.err }

func (c *Context) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// AddStep creates, registers, and returns a step. A repeated name records
// ErrDuplicateName on the context and leaves the original step in place.
func (c *Context) AddStep(name string) *Step {
	if _, exists := c.stepIndex[name]; exists {
		c.fail(fmt.Errorf("%w: step %q already exists in context %q", ErrDuplicateName, name, c.name))
		return &Step{name: name}
	}
	s := &Step{name: name}
	c.steps = append(c.steps, s)
	c.stepIndex[name] = s
	return s
}

// Steps returns the context's steps in insertion order.
func (c *Context) Steps() []*Step {
	return append([]*Step{}, c.steps...)
}

// SetValidContexts sets the allow-list of context names reachable from
// anywhere in this context. Resolution is deferred to Builder.Validate.
func (c *Context) SetValidContexts(names ...string) *Context {
	c.validContexts = append([]string{}, names...)
	c.validContextsSet = true
	return c
}

// SetPrompt sets the context-level descriptive prompt as flat text. Mixing
// with AddSection/AddBullets records ErrConflictingMode.
func (c *Context) SetPrompt(text string) *Context {
	if _, ok := c.prompt.(sectionBody); ok {
		c.fail(fmt.Errorf("%w: context %q prompt already uses sections, cannot set flat text", ErrConflictingMode, c.name))
		return c
	}
	c.prompt = textBody(text)
	return c
}

// AddSection appends a titled body section to the context-level prompt.
func (c *Context) AddSection(title, bodyText string) *Context {
	return c.appendPromptSection(Section{Title: title, Body: bodyText})
}

// AddBullets appends a titled bullet-list section to the context-level
// prompt.
func (c *Context) AddBullets(title string, bullets ...string) *Context {
	return c.appendPromptSection(Section{Title: title, Bullets: append([]string{}, bullets...)})
}

func (c *Context) appendPromptSection(sec Section) *Context {
	if _, ok := c.prompt.(textBody); ok {
		c.fail(fmt.Errorf("%w: context %q prompt already uses flat text, cannot add sections", ErrConflictingMode, c.name))
		return c
	}
	sections, _ := c.prompt.(sectionBody)
	c.prompt = append(sections, sec)
	return c
}

// SetSystemPrompt sets the entry-transition system prompt as flat text.
// Mixing with AddSystemSection/AddSystemBullets records ErrConflictingMode.
func (c *Context) SetSystemPrompt(text string) *Context {
	if _, ok := c.systemPrompt.(sectionBody); ok {
		c.fail(fmt.Errorf("%w: context %q system prompt already uses sections, cannot set flat text", ErrConflictingMode, c.name))
		return c
	}
	c.systemPrompt = textBody(text)
	return c
}

// AddSystemSection appends a titled body section to the entry-transition
// system prompt.
func (c *Context) AddSystemSection(title, bodyText string) *Context {
	return c.appendSystemSection(Section{Title: title, Body: bodyText})
}

// AddSystemBullets appends a titled bullet-list section to the
// entry-transition system prompt.
func (c *Context) AddSystemBullets(title string, bullets ...string) *Context {
	return c.appendSystemSection(Section{Title: title, Bullets: append([]string{}, bullets...)})
}

func (c *Context) appendSystemSection(sec Section) *Context {
	if _, ok := c.systemPrompt.(textBody); ok {
		c.fail(fmt.Errorf("%w: context %q system prompt already uses flat text, cannot add sections", ErrConflictingMode, c.name))
		return c
	}
	sections, _ := c.systemPrompt.(sectionBody)
	c.systemPrompt = append(sections, sec)
	return c
}

// SetPostPrompt overrides the post prompt when this context is entered.
func (c *Context) SetPostPrompt(text string) *Context {
	c.postPrompt = &text
	return c
}

// SetUserPrompt sets the user prompt injected when this context is entered.
func (c *Context) SetUserPrompt(text string) *Context {
	c.userPrompt = &text
	return c
}

// SetConsolidate sets whether prior conversation is consolidated on entry.
func (c *Context) SetConsolidate(v bool) *Context {
	c.consolidate = &v
	return c
}

// SetFullReset sets whether the conversation restarts fully on entry.
func (c *Context) SetFullReset(v bool) *Context {
	c.fullReset = &v
	return c
}

// SetIsolated sets whether conversation history is truncated on entry.
func (c *Context) SetIsolated(v bool) *Context {
	c.isolated = &v
	return c
}

// SetEnterFillers replaces the spoken fillers played while entering this
// context, keyed by language tag or FillerDefault.
func (c *Context) SetEnterFillers(fillers map[string][]string) *Context {
	c.enterFillers = normalizeFillers(fillers)
	return c
}

// SetExitFillers replaces the spoken fillers played while leaving this
// context.
func (c *Context) SetExitFillers(fillers map[string][]string) *Context {
	c.exitFillers = normalizeFillers(fillers)
	return c
}

// AddEnterFiller merges phrases into the enter-filler list for one language.
func (c *Context) AddEnterFiller(lang string, phrases ...string) *Context {
	if c.enterFillers == nil {
		c.enterFillers = make(map[string][]string)
	}
	key := normalizeLangTag(lang)
	c.enterFillers[key] = append(c.enterFillers[key], phrases...)
	return c
}

// AddExitFiller merges phrases into the exit-filler list for one language.
func (c *Context) AddExitFiller(lang string, phrases ...string) *Context {
	if c.exitFillers == nil {
		c.exitFillers = make(map[string][]string)
	}
	key := normalizeLangTag(lang)
	c.exitFillers[key] = append(c.exitFillers[key], phrases...)
	return c
}

// RenderPrompt flattens the context-level prompt. The second return is false
// when no prompt was ever set; an absent context prompt is not an error.
func (c *Context) RenderPrompt() (string, bool) {
	if c.prompt == nil {
		return "", false
	}
	return c.prompt.render(), true
}

// RenderSystemPrompt flattens the entry-transition system prompt, reporting
// absence the same way as RenderPrompt.
func (c *Context) RenderSystemPrompt() (string, bool) {
	if c.systemPrompt == nil {
		return "", false
	}
	return c.systemPrompt.render(), true
}

// serialize emits the context's wire mapping: the ordered steps list plus
// any set optional fields. Optional keys are omitted when unset, never null.
func (c *Context) serialize() (map[string]any, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.steps) == 0 {
		return nil, fmt.Errorf("%w: context %q has no steps", ErrEmptyContent, c.name)
	}

	steps := make([]any, 0, len(c.steps))
	for _, s := range c.steps {
		m, err := s.serialize()
		if err != nil {
			return nil, err
		}
		steps = append(steps, m)
	}

	out := map[string]any{"steps": steps}
	if c.validContextsSet {
		out["valid_contexts"] = append([]string{}, c.validContexts...)
	}
	if c.postPrompt != nil {
		out["post_prompt"] = *c.postPrompt
	}
	if text, ok := c.RenderSystemPrompt(); ok {
		out["system_prompt"] = text
	}
	if c.consolidate != nil {
		out["consolidate"] = *c.consolidate
	}
	if c.fullReset != nil {
		out["full_reset"] = *c.fullReset
	}
	if c.userPrompt != nil {
		out["user_prompt"] = *c.userPrompt
	}
	if c.isolated != nil {
		out["isolated"] = *c.isolated
	}

	// Exactly one of pom/prompt, depending on the construction mode used.
	switch p := c.prompt.(type) {
	case sectionBody:
		out["pom"] = p.serialize()
	case textBody:
		out["prompt"] = string(p)
	}

	if len(c.enterFillers) > 0 {
		out["enter_fillers"] = copyFillers(c.enterFillers)
	}
	if len(c.exitFillers) > 0 {
		out["exit_fillers"] = copyFillers(c.exitFillers)
	}
	return out, nil
}

// normalizeLangTag canonicalizes a BCP 47 language tag ("EN-us" becomes
// "en-US"). FillerDefault and unparseable keys pass through unchanged.
func normalizeLangTag(lang string) string {
	if lang == FillerDefault {
		return lang
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

func normalizeFillers(fillers map[string][]string) map[string][]string {
	if fillers == nil {
		return nil
	}
	out := make(map[string][]string, len(fillers))
	for lang, phrases := range fillers {
		key := normalizeLangTag(lang)
		out[key] = append(out[key], phrases...)
	}
	return out
}

func copyFillers(fillers map[string][]string) map[string][]string {
	out := make(map[string][]string, len(fillers))
	for lang, phrases := range fillers {
		out[lang] = append([]string{}, phrases...)
	}
	return out
}
