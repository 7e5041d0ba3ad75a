// Package executor turns a command's steps into a running, streaming process.
//
// An Engine is bound to one component and one Backend. Runner returns a
// function that, given an Environment, creates an Instance; Instance.Run
// starts executing the expanded steps in order and returns immediately.
//
//	eng := executor.New("web", executor.NewShellBackend(""), executor.DefaultOptions())
//	inst := eng.Runner(model.CommandStart, cmd)(env)
//	inst.Channels.Out.OnReceive(func(chunk []byte) bool {
//	    if chunk == nil {
//	        return false // end of stream
//	    }
//	    fmt.Print(string(chunk))
//	    return true
//	})
//	inst.OnResult(func(r executor.Result) { ... })
//	_ = inst.Run(nil)
//
// Each channel delivers chunks from a bounded queue on its own goroutine. The
// consumer's return value is a continuation flag: returning false stops
// further deliveries on that channel and the producer stops enqueuing, but the
// run itself keeps going. A final nil chunk marks the end of the stream.
//
// The first failing step ends the run with a NotOk result. Steps already
// executed are not rolled back. A run with no output for Options.IdleTimeout is
// cancelled and reported as NotOk with ErrIdleTimeout.
//
// Invalidate detaches an instance from its owner: queued chunks are dropped,
// the run context is cancelled and the result callback is never invoked.
package executor
