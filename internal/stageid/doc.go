/*
Package stageid provides a structured identifier for stages in an execution
graph.

An identifier is a dot-separated sequence of segments, each optionally
carrying an instance index, e.g. `deploy`, `bake.us[0]` or
`canary.region[2].verify`.

Parsing and formatting live here so that stores and the graph can key their
maps by the canonical string form without re-validating it.
*/
package stageid
