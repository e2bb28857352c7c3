package headless

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// LogEntry is one captured console message.
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}

// Runtime executes page scripts (visibility nudges, recovery snippets)
// in a sandboxed goja VM with a minimal DOM stub.
type Runtime struct {
	vm      *goja.Runtime
	timeout time.Duration
	mu      sync.Mutex

	console   []LogEntry
	consoleMu sync.Mutex

	// styles records style properties set through the DOM stub, keyed
	// by element id ("" for body). Lets tests observe script effects.
	styles   map[string]map[string]string
	stylesMu sync.Mutex
}

// NewRuntime creates a script runtime with the given per-script
// timeout.
func NewRuntime(timeout time.Duration) (*Runtime, error) {
	r := &Runtime{
		vm:      goja.New(),
		timeout: timeout,
		styles:  make(map[string]map[string]string),
	}
	r.vm.SetMaxCallStackSize(1024)
	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Exec runs a script. Scripts exceeding the timeout are interrupted.
func (r *Runtime) Exec(script string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	done := make(chan struct{})
	go func() {
		select {
		case <-timer.C:
			r.vm.Interrupt("script timeout exceeded")
		case <-done:
		}
	}()

	_, err := r.vm.RunString(script)
	close(done)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// Console returns captured console output and clears the buffer.
func (r *Runtime) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	out := r.console
	r.console = nil
	return out
}

// Style returns a style property set by a script on the element with
// the given id ("" for body).
func (r *Runtime) Style(elementID, property string) (string, bool) {
	r.stylesMu.Lock()
	defer r.stylesMu.Unlock()
	props, ok := r.styles[elementID]
	if !ok {
		return "", false
	}
	v, ok := props[property]
	return v, ok
}

func (r *Runtime) setupGlobals() error {
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())

	console := r.vm.NewObject()
	console.Set("log", r.makeConsoleFunc("log"))
	console.Set("warn", r.makeConsoleFunc("warn"))
	console.Set("error", r.makeConsoleFunc("error"))
	console.Set("info", r.makeConsoleFunc("info"))
	r.vm.Set("console", console)

	// Timers are no-ops: scripts here are one-shot nudges.
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	r.vm.Set("setTimeout", noop)
	r.vm.Set("setInterval", noop)

	document := r.vm.NewObject()
	document.Set("body", r.makeElement(""))
	document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		return r.vm.ToValue(r.makeElement(call.Arguments[0].String()))
	})
	document.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		sel := call.Arguments[0].String()
		if strings.HasPrefix(sel, "#") {
			return r.vm.ToValue(r.makeElement(strings.TrimPrefix(sel, "#")))
		}
		return r.vm.ToValue(r.makeElement(sel))
	})
	r.vm.Set("document", document)

	window := r.vm.NewObject()
	window.Set("dispatchEvent", noop)
	r.vm.Set("window", window)
	r.vm.Set("Event", func(call goja.ConstructorCall) *goja.Object {
		return call.This
	})

	return nil
}

// makeElement builds an element stub whose style writes are recorded.
func (r *Runtime) makeElement(id string) map[string]interface{} {
	style := r.vm.NewDynamicObject(&styleRecorder{runtime: r, elementID: id})
	return map[string]interface{}{
		"id":           id,
		"style":        style,
		"offsetHeight": 600,
		"offsetWidth":  800,
	}
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()
		return goja.Undefined()
	}
}

// styleRecorder backs the element style object and records writes.
type styleRecorder struct {
	runtime   *Runtime
	elementID string
}

func (s *styleRecorder) Get(key string) goja.Value {
	v, ok := s.runtime.Style(s.elementID, key)
	if !ok {
		return goja.Undefined()
	}
	return s.runtime.vm.ToValue(v)
}

func (s *styleRecorder) Set(key string, val goja.Value) bool {
	s.runtime.stylesMu.Lock()
	defer s.runtime.stylesMu.Unlock()
	props, ok := s.runtime.styles[s.elementID]
	if !ok {
		props = make(map[string]string)
		s.runtime.styles[s.elementID] = props
	}
	props[key] = val.String()
	return true
}

func (s *styleRecorder) Has(key string) bool {
	_, ok := s.runtime.Style(s.elementID, key)
	return ok
}

func (s *styleRecorder) Delete(key string) bool {
	s.runtime.stylesMu.Lock()
	defer s.runtime.stylesMu.Unlock()
	if props, ok := s.runtime.styles[s.elementID]; ok {
		delete(props, key)
	}
	return true
}

func (s *styleRecorder) Keys() []string {
	s.runtime.stylesMu.Lock()
	defer s.runtime.stylesMu.Unlock()
	props := s.runtime.styles[s.elementID]
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	return keys
}
