package shell

import (
	"context"
)

// Param describes one positional argument slot.
type Param struct {
	Name     string
	Optional bool
}

// FlagSpec describes one `-x` flag. Bare flags take no value; the rest
// consume the next non-flag token as their value.
type FlagSpec struct {
	Name string
	Bare bool
}

// Args is the result of assembling a tokenized line against a Command's
// schema: positionals in declared order, flag values by name, and the bare
// flags that were present.
type Args struct {
	Positional []string
	Flags      map[string]string
	Bare       map[string]bool
}

func (a *Args) Flag(name string) (string, bool) {
	v, ok := a.Flags[name]
	return v, ok
}

func (a *Args) FlagOr(name, fallback string) string {
	if v, ok := a.Flags[name]; ok {
		return v
	}
	return fallback
}

// Handler executes a command against the runtime context with its
// assembled arguments, returning a value for the REPL's result adapter.
type Handler func(ctx context.Context, sh *Context, args *Args) (interface{}, error)

// Command is one named operation a module contributes to the registry.
type Command struct {
	Name        string
	Module      string
	Handler     Handler
	Required    []Param
	Optional    []Param
	Flags       []FlagSpec
	Help        string
	PromptAware bool
}

func (c Command) flagSpec(name string) (FlagSpec, bool) {
	for _, f := range c.Flags {
		if f.Name == name {
			return f, true
		}
	}
	return FlagSpec{}, false
}

// Assemble applies Unix-like arg assembly to tokens following
// the command name: `-x` marks a flag whose value is the next non-flag
// token unless declared bare; everything else is positional in order.
// Fails with InvalidArgs on an unknown flag or a missing required
// positional.
func (c Command) Assemble(tokens []Token) (*Args, error) {
	args := &Args{Flags: map[string]string{}, Bare: map[string]bool{}}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i].Text
		if len(t) > 1 && t[0] == '-' && !looksNumeric(t) {
			name := t[1:]
			spec, ok := c.flagSpec(name)
			if !ok {
				return nil, invalidArgs(c.Name, "unknown flag '-"+name+"'")
			}
			if spec.Bare {
				args.Bare[name] = true
				continue
			}
			if i+1 >= len(tokens) {
				return nil, invalidArgs(c.Name, "flag '-"+name+"' requires a value")
			}
			if next := tokens[i+1].Text; len(next) > 1 && next[0] == '-' && !looksNumeric(next) {
				return nil, invalidArgs(c.Name, "flag '-"+name+"' requires a value")
			}
			i++
			args.Flags[name] = tokens[i].Text
			continue
		}
		args.Positional = append(args.Positional, t)
	}

	if len(args.Positional) < len(c.Required) {
		missing := c.Required[len(args.Positional)]
		return nil, invalidArgs(c.Name, "missing required argument '"+missing.Name+"'")
	}
	maxPositional := len(c.Required) + len(c.Optional)
	if len(args.Positional) > maxPositional {
		return nil, invalidArgs(c.Name, "too many arguments")
	}

	return args, nil
}

func looksNumeric(t string) bool {
	if len(t) < 2 {
		return false
	}
	c := t[1]
	return c >= '0' && c <= '9'
}
