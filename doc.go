// Package convoflow models multi-phase, multi-persona conversational
// workflows as a declarative state machine that compiles into a nested
// document for an external conversational-AI execution engine.
//
// The package is organized into the core model plus subpackages by domain:
//
//   - convoflow (root): Step, Context, and Builder entities, graph
//     validation, and deterministic serialization
//   - definition: declarative YAML workflow files compiled through the
//     builder API
//   - prompt: prompt template loading for externalized step text
//   - agent: agent bootstrap with fail-fast validation and model selection
//   - docstore: SQLite-backed registry of compiled documents
//   - config: hierarchical configuration resolution
//
// # Quick Start
//
//	b := convoflow.New()
//	c := b.AddContext("default")
//	c.AddStep("greet").
//	    SetText("Greet the caller and ask how you can help.").
//	    SetStepCriteria("The caller has stated a reason for the call.").
//	    SetValidSteps(convoflow.NextStep)
//	c.AddStep("close").
//	    SetText("Thank the caller and end the conversation.")
//
//	doc, err := b.Serialize()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Construction is single-threaded and happens once during agent
// initialization. A Document returned by Serialize is immutable and safe for
// concurrent reads; the builder itself provides no locking.
package convoflow
