package sandbox

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
)

// Runtime wraps a goja VM configured as an isolated execution
// context for one assembled document. The only host channel is the
// __sandpost function used by the instrumentation snippet.
type Runtime struct {
	vm     *goja.Runtime
	post   PostFunc
	logger *logging.Logger
	dom    *DOM

	mu     sync.Mutex
	closed bool

	// window event listeners by event name
	listeners map[string][]goja.Callable

	// promises rejected with no handler yet
	rejected []*goja.Promise
}

// New creates a fresh sandboxed runtime. Messages emitted by user
// code flow through post.
func New(post PostFunc, logger *logging.Logger) *Runtime {
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Runtime{
		vm:        goja.New(),
		post:      post,
		logger:    logger,
		listeners: make(map[string][]goja.Callable),
	}
	r.vm.SetMaxCallStackSize(2048)
	r.setupGlobals()
	return r
}

// Load parses the document, installs the DOM, and executes every
// inline script in document order. Browser-style: a script that
// throws does not abort later scripts. Returns once all scripts ran
// to completion; non-terminating code keeps Load blocked until
// Interrupt is called.
func (r *Runtime) Load(document string) error {
	dom, scripts, err := Parse(document)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.dom = dom
	r.mu.Unlock()
	r.injectDocument(dom)

	for _, s := range scripts {
		if r.isClosed() {
			return fmt.Errorf("runtime torn down during load")
		}
		if _, err := r.vm.RunScript(s.Source, s.Code); err != nil {
			if isInterrupt(err) {
				return err
			}
			r.dispatchError(toErrorEvent(err))
		}
		r.flushRejections()
	}
	return nil
}

// Interrupt aborts any running script. Unconditional; the context is
// discarded, not gracefully drained.
func (r *Runtime) Interrupt(reason string) {
	r.vm.Interrupt(reason)
}

// Close marks the runtime dead and interrupts outstanding execution
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	r.vm.Interrupt("runtime closed")
}

// Mutations returns DOM modifications recorded during execution
func (r *Runtime) Mutations() []Mutation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dom == nil {
		return nil
	}
	return r.dom.Mutations()
}

func (r *Runtime) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// setupGlobals configures the isolation policy: no module system, no
// timers, no window escape hatches. The native console logs to the
// host logger and is what the instrumentation snippet wraps.
func (r *Runtime) setupGlobals() {
	vm := r.vm

	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())

	console := vm.NewObject()
	for _, level := range []string{"log", "warn", "error", "info"} {
		console.Set(level, r.makeConsoleFunc(level))
	}
	vm.Set("console", console)

	// Inert timers: scheduled callbacks never fire
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	vm.Set("setTimeout", noop)
	vm.Set("setInterval", noop)
	vm.Set("clearTimeout", noop)
	vm.Set("clearInterval", noop)
	vm.Set("alert", noop)

	window := vm.NewObject()
	window.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		name := call.Arguments[0].String()
		if fn, ok := goja.AssertFunction(call.Arguments[1]); ok {
			r.mu.Lock()
			r.listeners[name] = append(r.listeners[name], fn)
			r.mu.Unlock()
		}
		return goja.Undefined()
	})
	// Navigation denial: open returns null, location writes are inert
	window.Set("open", func(call goja.FunctionCall) goja.Value { return goja.Null() })
	location := vm.NewObject()
	location.Set("href", "about:sandbox")
	location.Set("assign", noop)
	location.Set("replace", noop)
	location.Set("reload", noop)
	window.Set("location", location)
	vm.Set("window", window)
	vm.Set("location", location)

	vm.Set("__sandpost", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || r.post == nil {
			return goja.Undefined()
		}
		r.post(call.Arguments[0].String())
		return goja.Undefined()
	})

	vm.SetPromiseRejectionTracker(func(p *goja.Promise, op goja.PromiseRejectionOperation) {
		r.mu.Lock()
		defer r.mu.Unlock()
		switch op {
		case goja.PromiseRejectionReject:
			r.rejected = append(r.rejected, p)
		case goja.PromiseRejectionHandle:
			// A late handler arrived; the rejection is no longer unhandled
			for i, tracked := range r.rejected {
				if tracked == p {
					r.rejected = append(r.rejected[:i], r.rejected[i+1:]...)
					break
				}
			}
		}
	})
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		r.logger.Debug("sandbox console",
			zap.String("level", level),
			zap.String("text", strings.Join(parts, " ")),
		)
		return goja.Undefined()
	}
}

// dispatchError delivers an uncaught error to window 'error'
// listeners. The instrumentation snippet is normally the only
// listener; without one the error is logged host-side.
func (r *Runtime) dispatchError(ev errorEvent) {
	r.mu.Lock()
	listeners := append([]goja.Callable{}, r.listeners["error"]...)
	r.mu.Unlock()

	if len(listeners) == 0 {
		r.logger.Debug("uncaught sandbox error", zap.String("message", ev.Message))
		return
	}

	obj := r.vm.NewObject()
	obj.Set("message", ev.Message)
	obj.Set("lineno", ev.Line)
	obj.Set("colno", ev.Column)
	errObj := r.vm.NewObject()
	errObj.Set("stack", ev.Stack)
	obj.Set("error", errObj)
	obj.Set("preventDefault", func(call goja.FunctionCall) goja.Value { return goja.Undefined() })

	for _, fn := range listeners {
		// A listener that itself throws must not take down the host
		if _, err := fn(goja.Undefined(), obj); err != nil {
			r.logger.Debug("error listener threw", zap.Error(err))
		}
	}
}

// flushRejections turns unhandled promise rejections into
// 'unhandledrejection' events after each script runs
func (r *Runtime) flushRejections() {
	r.mu.Lock()
	rejected := r.rejected
	r.rejected = nil
	listeners := append([]goja.Callable{}, r.listeners["unhandledrejection"]...)
	r.mu.Unlock()

	for _, p := range rejected {
		reason := p.Result()
		if len(listeners) == 0 {
			r.logger.Debug("unhandled sandbox rejection", zap.String("reason", reason.String()))
			continue
		}
		obj := r.vm.NewObject()
		obj.Set("reason", reason)
		obj.Set("preventDefault", func(call goja.FunctionCall) goja.Value { return goja.Undefined() })
		for _, fn := range listeners {
			if _, err := fn(goja.Undefined(), obj); err != nil {
				r.logger.Debug("rejection listener threw", zap.Error(err))
			}
		}
	}
}

// injectDocument installs the document proxy
func (r *Runtime) injectDocument(dom *DOM) {
	vm := r.vm
	document := vm.NewObject()

	single := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		els := dom.Query(call.Arguments[0].String())
		if len(els) == 0 {
			return goja.Null()
		}
		return r.elementProxy(els[0])
	}
	many := func(query func(string) []*Element) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue([]interface{}{})
			}
			els := query(call.Arguments[0].String())
			out := make([]interface{}, len(els))
			for i, el := range els {
				out[i] = r.elementProxy(el)
			}
			return vm.ToValue(out)
		}
	}

	document.Set("querySelector", single)
	document.Set("querySelectorAll", many(dom.Query))
	document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		els := dom.Query("#" + call.Arguments[0].String())
		if len(els) == 0 {
			return goja.Null()
		}
		return r.elementProxy(els[0])
	})
	document.Set("getElementsByClassName", many(func(s string) []*Element { return dom.Query("." + s) }))
	document.Set("getElementsByTagName", many(func(s string) []*Element { return dom.Query(s) }))

	vm.Set("document", document)
}

// elementProxy exposes one element to user script
func (r *Runtime) elementProxy(el *Element) goja.Value {
	obj := r.vm.NewObject()
	obj.Set("tagName", strings.ToUpper(el.TagName))
	obj.Set("id", el.ID)
	obj.Set("className", el.ClassName)
	obj.Set("textContent", el.TextContent)
	obj.Set("getAttribute", func(name string) string { return el.GetAttribute(name) })
	obj.Set("setAttribute", func(name, value string) { el.SetAttribute(name, value) })
	obj.Set("setTextContent", func(text string) { el.SetTextContent(text) })
	return obj
}

var positionRe = regexp.MustCompile(`:(\d+):(\d+)`)

// toErrorEvent extracts message and position from a goja error
func toErrorEvent(err error) errorEvent {
	ev := errorEvent{Message: err.Error()}

	if ex, ok := err.(*goja.Exception); ok {
		ev.Message = ex.Value().String()
		ev.Stack = ex.String()
	}
	if m := positionRe.FindStringSubmatch(ev.stackOrMessage()); m != nil {
		fmt.Sscanf(m[1], "%d", &ev.Line)
		fmt.Sscanf(m[2], "%d", &ev.Column)
	}
	return ev
}

func (ev *errorEvent) stackOrMessage() string {
	if ev.Stack != "" {
		return ev.Stack
	}
	return ev.Message
}

func isInterrupt(err error) bool {
	_, ok := err.(*goja.InterruptedError)
	return ok
}
