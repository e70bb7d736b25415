package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"imagecluster/logging"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM so a
// running batch can stop its workers. A second signal exits immediately.
// Calling the returned cancel func releases the signal handler.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop, _ := setupHandler(parent)
	return ctx, stop
}

// setupHandler also returns a channel closed once the handler goroutine has
// stopped listening
func setupHandler(parent context.Context) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)

	done := make(chan struct{})
	exited := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
		cancel()
	}

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(exited)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %v, stopping", sig)
			cancel()
		case <-ctx.Done():
			return
		}
		select {
		case <-sigChan:
			os.Exit(1)
		case <-done:
		}
	}()

	return ctx, stop, exited
}

// GetOptimalProcs returns the default number of fingerprinting workers
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Leave headroom for decoding done by cgo loaders
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
