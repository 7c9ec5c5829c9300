// Package proactor is a portable, reactor-backed proactor-style core I/O
// runtime for Go: an execution context, a descriptor/completion
// demultiplexer, a deadline-ordered timer queue, a serial sub-executor
// (Strand), and a composed-operation framework layered over non-blocking
// read/write/connect primitives.
//
// # Architecture
//
// A [Context] owns a [Reactor], a timer queue and a ready-task queue. I/O
// objects ([StreamSocket]) and [Timer] values register against a Context;
// asynchronous operations enqueue into the Reactor's per-descriptor,
// per-direction queues and are attempted non-blockingly as readiness
// events arrive. Completions are transferred to the Context's ready-task
// queue and, from there, dispatched through each operation's associated
// [Executor] — either the Context itself or a [Strand] layered over it.
//
// # Platform support
//
// The reactor backend is selected per platform:
//   - Linux: epoll
//   - Darwin/BSD: kqueue
//   - other unix: poll(2)
//
// # Concurrency
//
// Any number of goroutines may call [Context.Run]/[Context.RunOne] on the
// same Context concurrently. Several may block inside the reactor's OS wait
// at the same time; each ready task is taken by exactly one of them, and
// operations queued on one descriptor and direction are attempted by one
// goroutine at a time, in submission order.
// [Strand] guarantees at most one of its handlers runs at a time, in
// submission order, regardless of which goroutine happens to pump them.
package proactor
