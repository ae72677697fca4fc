// Package prompt loads and renders prompt text templates for workflow
// steps and context system prompts.
//
// Templates are plain text files with Go template syntax, searched in the
// project's .convoflow/prompts/ and prompts/ directories before falling back
// to the defaults embedded in the binary. The definition package resolves
// text_file references through a Loader so step text can live outside the
// workflow file.
package prompt
