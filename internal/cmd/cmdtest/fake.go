// Package cmdtest provides a scripted cmd.Runner for tests.
package cmdtest

import (
	"context"
	"strings"
	"sync"

	"github.com/raphi011/iwt/internal/cmd"
)

// Call records a command invocation for verification.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as "name arg1 arg2".
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is the scripted result for a matched command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error // returned as-is, e.g. exec.ErrNotFound
}

type rule struct {
	name   string
	prefix []string
	handle func(Call) Response
}

func (r rule) matches(c Call) bool {
	if r.name != c.Name || len(c.Args) < len(r.prefix) {
		return false
	}
	for i, a := range r.prefix {
		if c.Args[i] != a {
			return false
		}
	}
	return true
}

// Fake is a cmd.Runner returning scripted responses. Rules registered later
// take precedence, so tests can override a default. Unmatched commands
// succeed with empty output.
type Fake struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{}
}

// Set scripts a static response for commands starting with name and prefix.
func (f *Fake) Set(resp Response, name string, prefix ...string) *Fake {
	return f.Handle(func(Call) Response { return resp }, name, prefix...)
}

// Handle scripts a dynamic response, useful for simulating side effects.
func (f *Fake) Handle(fn func(Call) Response, name string, prefix ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{name: name, prefix: prefix, handle: fn})
	return f
}

// Calls returns all recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded invocations starting with name and prefix.
func (f *Fake) CallsTo(name string, prefix ...string) []Call {
	r := rule{name: name, prefix: prefix}
	var out []Call
	for _, c := range f.Calls() {
		if r.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// Run implements cmd.Runner.
func (f *Fake) Run(ctx context.Context, dir, name string, args ...string) (cmd.Result, error) {
	c := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	var match *rule
	for i := len(f.rules) - 1; i >= 0; i-- {
		if f.rules[i].matches(c) {
			match = &f.rules[i]
			break
		}
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return cmd.Result{}, err
	}
	if match == nil {
		return cmd.Result{}, nil
	}

	resp := match.handle(c)
	res := cmd.Result{Stdout: []byte(resp.Stdout), Stderr: []byte(resp.Stderr), ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return res, resp.Err
	}
	if resp.ExitCode != 0 {
		return res, &cmd.ExitError{Name: name, Args: c.Args, Result: res}
	}
	return res, nil
}

var _ cmd.Runner = (*Fake)(nil)
