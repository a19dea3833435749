package shell

import "fmt"

// Module contributes a name, label, prompt, command list, session
// variables, and a shutdown hook to the shell. Input/output source
// factories are not part of this interface; they are registered on the
// Registry by URL prefix (e.g. "zk://", "kafka://") through RegisterSource.
type Module interface {
	Name() string
	Label() string
	Prompt() string
	Commands() []Command
	SessionVars() map[string]string
	Shutdown() error
}

// SourceFactory builds an input or output stream for a URL-prefixed
// argument (e.g. a module that reads/writes files addressed as
// "zk:///brokers/ids/1").
type SourceFactory func(path string) (interface{}, error)

const coreModuleName = "core"

// Registry merges commands across installed modules. Duplicate command
// names across modules are a boot-time configuration error.
type Registry struct {
	modules      map[string]Module
	commands     map[string]Command
	sources      map[string]SourceFactory
	active       Module
	onActiveSwap func(Module)
}

func newRegistry() *Registry {
	return &Registry{
		modules:  map[string]Module{},
		commands: map[string]Command{},
		sources:  map[string]SourceFactory{},
	}
}

// Install merges each module's commands into the registry. Returns an
// error naming the offending command if two modules declare the same
// command name.
func (r *Registry) Install(modules ...Module) error {
	for _, m := range modules {
		if _, exists := r.modules[m.Name()]; exists {
			return fmt.Errorf("module %q is already installed", m.Name())
		}
		for _, cmd := range m.Commands() {
			if existing, exists := r.commands[cmd.Name]; exists {
				return fmt.Errorf("command %q is declared by both %q and %q", cmd.Name, existing.Module, m.Name())
			}
			cmd.Module = m.Name()
			r.commands[cmd.Name] = cmd
		}
		r.modules[m.Name()] = m
	}
	return nil
}

// RegisterSource associates a URL prefix with a source factory.
func (r *Registry) RegisterSource(prefix string, f SourceFactory) {
	r.sources[prefix] = f
}

// Lookup resolves a command by name.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Module returns an installed module by name.
func (r *Registry) Module(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Active returns the currently active module, or nil before any module has
// been installed and activated.
func (r *Registry) Active() Module {
	return r.active
}

// SetActiveModule updates the active module, used to drive the REPL
// prompt.
func (r *Registry) SetActiveModule(m Module) {
	r.active = m
	if r.onActiveSwap != nil {
		r.onActiveSwap(m)
	}
}

// MaybeAutoSwitch implements the auto-switching rule: on successful
// execution, if the command is promptAware or its owning module is not
// "core", the active module becomes the command's owner.
func (r *Registry) MaybeAutoSwitch(cmd Command) {
	if cmd.Module == coreModuleName && !cmd.PromptAware {
		return
	}
	if m, ok := r.modules[cmd.Module]; ok {
		r.SetActiveModule(m)
	}
}
