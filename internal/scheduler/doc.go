// Package scheduler provides the decision-making engine for the execution graph.
// Its primary role is to analyze the state of a graph and determine which nodes
// are ready to be executed, providing them to the Executor.
package scheduler
