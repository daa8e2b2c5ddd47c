package webview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

// newRuntime creates the JavaScript realm for one page load
func (v *View) newRuntime(url string) *goja.Runtime {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	global := vm.GlobalObject()
	vm.Set("window", global)
	vm.Set("self", global)

	// No module system or process access in page code
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		console.Set(level, v.makeConsoleFunc(level))
	}
	vm.Set("console", console)

	location := vm.NewObject()
	location.Set("href", url)
	location.Set("pathname", pathOf(url))
	location.Set("protocol", "file:")
	location.Set("host", "")
	vm.Set("location", location)

	vm.Set("setTimeout", v.makeTimerFunc(vm, false))
	vm.Set("setInterval", v.makeTimerFunc(vm, true))
	vm.Set("clearTimeout", v.clearTimer)
	vm.Set("clearInterval", v.clearTimer)

	handlers := vm.NewObject()
	for _, name := range v.registry.Names() {
		handler := vm.NewObject()
		handler.Set("postMessage", v.makePostMessage(name))
		handlers.Set(name, handler)
	}
	webkit := vm.NewObject()
	webkit.Set("messageHandlers", handlers)
	vm.Set("webkit", webkit)

	return vm
}

// makePostMessage queues a dispatch of the posted body on the loop
func (v *View) makePostMessage(channel string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		body, err := bridge.Marshal(call.Argument(0).Export())
		if err != nil {
			v.logger.Warn("Dropping unencodable message",
				zap.String("channel", channel),
				zap.Error(err))
			return goja.Undefined()
		}
		msg := bridge.Inbound{Channel: channel, Body: body}
		ctx := v.context()
		v.loop.Post(func() { _ = v.dispatcher.Dispatch(ctx, msg) })
		return goja.Undefined()
	}
}

// makeConsoleFunc creates a console function
func (v *View) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		v.record(level, strings.Join(parts, " "))
		return goja.Undefined()
	}
}

func (v *View) record(level, msg string) {
	v.mu.Lock()
	v.console = append(v.console, LogEntry{Level: level, Message: msg, Time: time.Now()})
	v.mu.Unlock()

	fields := []zap.Field{zap.String("page", v.URL()), zap.String("message", msg)}
	switch level {
	case "error":
		v.logger.Warn("Page console error", fields...)
	case "warn":
		v.logger.Info("Page console warning", fields...)
	default:
		v.logger.Debug("Page console", fields...)
	}
}

// makeTimerFunc implements setTimeout and setInterval on the dispatch loop.
// Timers belong to the page that created them and never fire after a
// navigation.
func (v *View) makeTimerFunc(vm *goja.Runtime, repeat bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			return vm.ToValue(0)
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}

		v.nextTimer++
		id := v.nextTimer
		generation := v.generation

		var fire func()
		fire = func() {
			v.loop.Post(func() {
				if generation != v.generation {
					return
				}
				if _, live := v.timers[id]; !live {
					return
				}
				if repeat {
					v.timers[id] = time.AfterFunc(delay, fire)
				} else {
					delete(v.timers, id)
				}
				if _, err := v.guard(vm, func() (goja.Value, error) {
					return fn(goja.Undefined())
				}); err != nil {
					v.record("error", err.Error())
				}
			})
		}
		v.timers[id] = time.AfterFunc(delay, fire)
		return vm.ToValue(id)
	}
}

func (v *View) clearTimer(call goja.FunctionCall) goja.Value {
	id := int(call.Argument(0).ToInteger())
	if t, ok := v.timers[id]; ok {
		t.Stop()
		delete(v.timers, id)
	}
	return goja.Undefined()
}

func (v *View) stopTimers() {
	for id, t := range v.timers {
		t.Stop()
		delete(v.timers, id)
	}
	v.generation++
}

// run evaluates code in vm under the configured timeout
func (v *View) run(vm *goja.Runtime, name, code string) (goja.Value, error) {
	return v.guard(vm, func() (goja.Value, error) {
		return vm.RunScript(name, code)
	})
}

func (v *View) guard(vm *goja.Runtime, fn func() (goja.Value, error)) (goja.Value, error) {
	if v.cfg.Timeout > 0 {
		timer := time.AfterFunc(v.cfg.Timeout, func() {
			vm.Interrupt("execution timeout exceeded")
		})
		defer func() {
			timer.Stop()
			vm.ClearInterrupt()
		}()
	}

	val, err := fn()
	if err != nil {
		var exc *goja.Exception
		if errors.As(err, &exc) {
			return nil, fmt.Errorf("script error: %s", exc.Error())
		}
		return nil, err
	}
	return val, nil
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

func pathOf(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i]
	}
	return url
}
