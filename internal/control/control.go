// Package control is the venue's command plane: a registry mapping command
// values to subscriber handlers, with delivery on a dedicated control
// goroutine, and a websocket admin channel feeding it.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Command is an administrative command value.
type Command string

const (
	PriceFeedStart Command = "price-feed-start"
	PriceFeedStop  Command = "price-feed-stop"
)

// ParseCommand validates a textual command.
func ParseCommand(s string) (Command, error) {
	switch Command(s) {
	case PriceFeedStart, PriceFeedStop:
		return Command(s), nil
	default:
		return "", fmt.Errorf("unknown command %q", s)
	}
}

// Handler reacts to a command. Handlers run on the control goroutine and
// must not block.
type Handler func(Command)

// Registry routes commands to subscribed handlers. Components register for
// the commands they care about; Dispatch enqueues and the Run loop
// delivers.
type Registry struct {
	mu       sync.Mutex
	handlers map[Command][]Handler
	queue    chan Command
	log      *slog.Logger
}

// NewRegistry creates a registry with a bounded command queue.
func NewRegistry(buffer int, log *slog.Logger) *Registry {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		handlers: make(map[Command][]Handler),
		queue:    make(chan Command, buffer),
		log:      log,
	}
}

// Handle subscribes one handler to each of the given commands.
func (r *Registry) Handle(commands []Command, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range commands {
		r.handlers[c] = append(r.handlers[c], h)
	}
}

// Dispatch enqueues a command for delivery. A full queue drops the command
// rather than blocking the caller.
func (r *Registry) Dispatch(cmd Command) {
	select {
	case r.queue <- cmd:
	default:
		r.log.Error("control queue full, command dropped", "command", string(cmd))
	}
}

// Run delivers queued commands to their subscribers until ctx is done.
// This goroutine is the control executor; everything a handler touches is
// serialised through it.
func (r *Registry) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.queue:
			r.mu.Lock()
			subs := r.handlers[cmd]
			r.mu.Unlock()
			if len(subs) == 0 {
				r.log.Warn("command has no subscribers", "command", string(cmd))
				continue
			}
			for _, h := range subs {
				h(cmd)
			}
		}
	}
}
