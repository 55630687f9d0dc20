/*
Package domain contains the core models of the Concierge orchestration engine.

It defines the immutable workflow description (Workflows, Stages, Tasks and their
parameter schemas), the per-conversation Session, and the Action/Response envelope
exchanged with agents. This package is kept free of I/O and persistence concerns,
following Hexagonal Architecture principles.

# Key Entities

  - Workflow: A named set of stages plus the directed transition graph between them.
  - Stage: A phase exposing a fixed task set, guarded by prerequisite state paths.
  - Task: An invocable operation with an ordered parameter schema and a TaskFunc body.
  - Session: One agent conversation (current stage, state store, history, pending request).
  - Action: What the agent asks for (invoke, answer, enter, ...).
  - Response: The structured outcome relayed back (ok, needs_input, prerequisite_failed, ...).
*/
package domain
