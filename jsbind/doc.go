// Package jsbind exposes the audio engine to JavaScript running in goja.
//
// Every object handed to a script is a handle.Handle materialised as a goja
// object: the handle sits in a non-enumerable "data" property and each
// method of its table becomes a function property. Arguments that are such
// objects are unwrapped back to their handle before dispatch, so methods
// never see goja values.
//
// Install must run on the event loop goroutine that owns the runtime.
// Promise settlement from engine goroutines is routed back onto that loop
// with RunOnLoop; once the loop has stopped those settlements are dropped.
package jsbind
