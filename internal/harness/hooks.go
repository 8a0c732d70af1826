package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Hook script file names, looked up in a fixture's source directory.
// Chain-level hooks live in the chain directory itself.
const (
	HookSetUp    = "set_up.go"
	HookTearDown = "tear_down.go"
	HookPostRun  = "post_run.go"
)

// HookEntryPoint is the function every hook script must export.
const HookEntryPoint = "main.Run"

// Hook is a loaded fixture script. The context map carries the running
// test's view: "data_dir", "fixture_dir", and "state" keys.
type Hook func(hctx map[string]any) error

// LoadHook interprets the Go script at path and resolves its entry point,
// func Run(ctx map[string]any) error. A missing file is not an error; a
// present file without the entry point is a fatal configuration error,
// never a silent skip.
func LoadHook(path string) (Hook, error) {
	src, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("read hook %s", path), Err: err}
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, &ConfigError{Msg: "initialize hook interpreter", Err: err}
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("hook %s does not compile", filepath.Base(path)), Err: err}
	}

	v, err := i.Eval(HookEntryPoint)
	if err != nil {
		return nil, &ConfigError{
			Msg: fmt.Sprintf("hook %s has no Run entry point", filepath.Base(path)),
			Err: err,
		}
	}
	fn, ok := v.Interface().(func(map[string]any) error)
	if !ok {
		return nil, &ConfigError{
			Msg: fmt.Sprintf("hook %s: Run must be func(map[string]any) error", filepath.Base(path)),
		}
	}
	return Hook(fn), nil
}

// runHook loads and executes one hook script if present. The returned
// error is always a ConfigError or an execution failure from the script.
func runHook(dir, name string, hctx map[string]any) error {
	hook, err := LoadHook(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if hook == nil {
		return nil
	}
	if err := hook(hctx); err != nil {
		return fmt.Errorf("hook %s: %w", name, err)
	}
	return nil
}
