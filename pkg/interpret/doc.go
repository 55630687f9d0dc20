// Package interpret converts between orchestrator responses and agent text.
//
// Presenter renders responses; Rules and Model map free text onto actions, the first
// with fixed command patterns, the second with a tool-calling language model. Both
// satisfy ports.Interpreter.
package interpret
