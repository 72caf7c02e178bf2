// Package main hosts the subvoice CLI entrypoint and command graph.
//
// Commands resolve configuration once through commandContext, build the
// pipeline components from it, and print human-readable summaries. Analysis
// results are persisted as run state under the work directory so captions can
// be re-rendered or exported without repeating the remote jobs.
package main
