package bot

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/config"
)

type moduleEntry struct {
	name     string
	priority int
	factory  ModuleFactory
}

// Registry holds the compile-time table of known modules and produces the
// filtered, deterministically ordered active set. It is read-only after
// construction.
type Registry struct {
	entries map[string]moduleEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]moduleEntry{}}
}

// Add records a module under a unique name. Lower priority activates first;
// modules that don't care pass 0. Re-adding a name replaces the previous
// entry.
func (r *Registry) Add(name string, priority int, factory ModuleFactory) {
	if name == "" || factory == nil {
		log.Warn("ignoring empty module registration")
		return
	}
	if _, ok := r.entries[name]; ok {
		log.WithField("module", name).Warn("module registered twice, replacing")
	}
	r.entries[name] = moduleEntry{name: name, priority: priority, factory: factory}
}

// Names returns all registered module names in activation order, before
// allow/deny filtering.
func (r *Registry) Names() []string {
	ordered := r.ordered()
	names := make([]string, 0, len(ordered))
	for _, e := range ordered {
		names = append(names, e.name)
	}
	return names
}

// ActiveNames applies the allow/deny filter without constructing modules.
// A non-empty allow list keeps only listed names; deny always removes a name,
// even when it is also allowed.
func (r *Registry) ActiveNames(allow, deny []string) []string {
	allowSet := toSet(allow)
	denySet := toSet(deny)

	var names []string
	for _, e := range r.ordered() {
		if len(allowSet) > 0 {
			if _, ok := allowSet[e.name]; !ok {
				continue
			}
		}
		if _, ok := denySet[e.name]; ok {
			continue
		}
		names = append(names, e.name)
	}
	return names
}

// BuildActiveSet filters and constructs the modules to activate. A factory
// error excludes that module and is logged; all remaining modules still
// activate. An empty registry is a bootstrap error.
func (r *Registry) BuildActiveSet(s Service, allow, deny []string) ([]Module, error) {
	if len(r.entries) == 0 {
		return nil, errors.New("no modules registered")
	}
	if s == nil {
		return nil, errors.New("nil service")
	}

	var modules []Module
	for _, name := range r.ActiveNames(allow, deny) {
		entry := r.entries[name]
		m, err := entry.factory(s)
		if err != nil {
			log.WithError(err).WithField("module", name).Error("module failed to load, skipping")
			continue
		}
		if m == nil {
			log.WithField("module", name).Error("module factory returned nil, skipping")
			continue
		}
		modules = append(modules, m)
		log.WithField("module", name).Info("module activated")
	}
	return modules, nil
}

func (r *Registry) ordered() []moduleEntry {
	ordered := make([]moduleEntry, 0, len(r.entries))
	for _, e := range r.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].priority != ordered[j].priority {
			return ordered[i].priority < ordered[j].priority
		}
		return ordered[i].name < ordered[j].name
	})
	return ordered
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

var defaultRegistry = NewRegistry()

// RegisterModule adds a module to the process-wide registry. Called from
// main during start-up, before the active set is built.
func RegisterModule(name string, priority int, factory ModuleFactory) {
	defaultRegistry.Add(name, priority, factory)
}

// ModuleNames lists the process-wide registry's module names in activation
// order.
func ModuleNames() []string {
	return defaultRegistry.Names()
}

// ActiveModules builds the active set from the process-wide registry using
// the configured allow/deny lists.
func ActiveModules(s Service) ([]Module, error) {
	cfg := config.Get()
	return defaultRegistry.BuildActiveSet(s, cfg.EnabledModules, cfg.DisabledModules)
}
