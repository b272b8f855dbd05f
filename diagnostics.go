package logrich

import (
	"github.com/bitranox/lib-log-rich/selflog"
)

// diagnose invokes the configured diagnostic hook. A panicking hook is
// contained so observers cannot break the pipeline; the panic is still
// visible in the internal error log.
func (rt *Runtime) diagnose(name string, payload map[string]any) {
	hook := rt.opts.DiagnosticHook
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			selflog.Report("diagnostic", "hook panicked on %q: %v", name, r)
		}
	}()
	hook(name, payload)
}
