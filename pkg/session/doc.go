/*
Package session implements session locking and persistence orchestration.

Requests against different sessions run in parallel; requests against the same
session are serialized by a per-session lock, optionally backed by a distributed
locker when several replicas share one store. A separate execution gate keeps task
bodies of one session from overlapping even after a request gives up waiting.
*/
package session
