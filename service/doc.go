// Package service is the single write entry point into the tree engine.
//
// It serializes every call into the (single-threaded) rbtree core, numbers
// each committed mutation, records it in the event outbox and exposes
// operation metrics. Transports such as gRPC and the REPL talk to the
// service, never to the tree directly.
package service
