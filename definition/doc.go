// Package definition compiles declarative YAML workflow files into a
// convoflow.Builder.
//
// The YAML format mirrors the builder API one to one: a list of contexts,
// each with steps, prompts, entry parameters, and fillers. Compilation goes
// through the public builder methods, so every structural invariant the core
// enforces also holds for declared workflows. Step text may reference an
// external template via text_file, resolved through a prompt.Loader.
package definition
