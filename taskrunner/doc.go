// Package taskrunner provides the platform task runner: a time-ordered queue
// of deferred work that executes on exactly one goroutine.
//
// The goroutine that calls New becomes the platform thread. Any goroutine may
// post work; posting from elsewhere signals the runner (and an optional wake
// hook) so a blocked event loop can pick the task up.
//
//	runner := taskrunner.New(taskrunner.WithWake(glfwPostEmptyEvent))
//
//	// from any goroutine
//	runner.Post(func() { boundary.Respond(h, reply) })
//
//	// on the platform goroutine
//	next, ok := runner.ExecuteTasks()
//
// Tasks run in due-time order with ties broken by posting order. A panicking
// task is logged and the remaining due tasks still run. ExecuteTasks and Run
// panic with a thread affinity error when called from any other goroutine.
package taskrunner
