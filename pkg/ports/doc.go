/*
Package ports defines the driven ports (interfaces) for the Concierge engine.

These interfaces decouple the orchestration core from external implementations,
allowing it to work with various session stores, lock providers, audit sinks
and natural-language interpreters.

# Key Interfaces

  - SessionStore: Persists sessions between requests (memory, Redis).
  - DistributedLocker: Serializes requests for one session across replicas.
  - HistoryRecorder: Writes the audit trail of handled actions (SQLite).
  - Interpreter: Renders responses as text and maps free text to actions.
  - Engine: The orchestrator surface consumed by transports.
*/
package ports
