// Package agent bootstraps a conversational agent from a workflow builder.
//
// New validates and compiles the workflow before the agent is considered
// ready, so a structurally broken graph fails initialization instead of
// surfacing at the first conversation. Each agent gets a unique ID and a
// model selected for its conversation kind unless an explicit override is
// given.
package agent
