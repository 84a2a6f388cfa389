// Package adae bridges an audio engine to a garbage-collected scripting host.
//
// The host holds engine entities (tracks, clips, the engine itself) through
// handles it can keep forever, call from anywhere, and close explicitly. The
// bridge guarantees that no call observes a closed or half-mutated engine and
// that a panic on an engine worker goroutine becomes a rejected promise on
// the host side instead of a dead process.
//
// # Architecture Overview
//
//	adae/            Process-wide Context: crash bridge and debug channel
//	├── handle/      Encapsulation protocol and root anchors
//	├── resource/    Root-anchor table
//	├── shared/      Ref-counted, mutex-guarded engine cell (open/closed/poisoned)
//	├── crash/       Panic hook slot, worker guard, crash bridge
//	├── debugout/    Bounded debug backlog with a single waiter
//	├── async/       Deferred completions and host callback channels
//	├── engine/      In-memory audio engine: mixer, timeline, transport, config
//	├── facade/      Per-entity capability interfaces over the shared engine
//	├── jsbind/      goja module exposing the facades to JavaScript
//	├── config/      TOML configuration for the CLI
//	├── errors/      Structured error types
//	└── cmd/adae/    Command-line runner, REPL and meter monitor
//
// # Quick Start
//
//	ctx := adae.Init(adae.WithLogger(logger))
//	defer ctx.Teardown()
//
//	eng, failed, err := facade.New(engine.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	for f := range failed {
//	    log.Printf("preload %s: %v", f.Path, f.Err)
//	}
//	defer eng.Drop()
//
//	crashed := ctx.Crash.ListenFuture(async.Direct)
//	_ = eng.Play()
//
// # Threading
//
// Engine methods may be called from any goroutine. Host callbacks (promise
// settlement, debug delivery) are always sent through an async.Channel so
// they run on the host's own queue.
package adae
