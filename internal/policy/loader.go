package policy

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/stafflane/hr-copilot/internal/domain"
)

// fileOverrides is the YAML shape of a policy file. Every section is
// optional; present sections replace the corresponding default table for
// the roles they name.
type fileOverrides struct {
	RestrictedIntents map[string][]string                 `yaml:"restricted_intents"`
	Attributes        map[string]map[string][]string      `yaml:"attributes"`
	Redactions        map[string][]redactionSpec          `yaml:"redactions"`
	SystemPrompts     map[string]string                   `yaml:"system_prompts"`
	Suggestions       map[string][]string                 `yaml:"suggestions"`
	QuickActions      map[string]map[string][]QuickAction `yaml:"quick_actions"`
	Snippets          []string                            `yaml:"snippets"`
}

type redactionSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// Loader owns the active policy tables snapshot and reloads it from a
// YAML file. When no file is configured the compiled-in defaults are
// used. Consumers read through Tables(), which is safe under concurrent
// reloads.
type Loader struct {
	path    string
	current atomic.Pointer[Tables]
	logger  *log.Logger

	watcher    *fsnotify.Watcher
	stopWatch  chan struct{}
	reloadLock sync.Mutex
	onReload   []func(*Tables)
}

// NewLoader creates a loader for the given policy file path. An empty
// path means defaults only.
func NewLoader(path string, logger *log.Logger) *Loader {
	return &Loader{
		path:      path,
		logger:    logger,
		stopWatch: make(chan struct{}),
	}
}

// Load reads the policy file (or installs defaults) and swaps the active
// snapshot atomically.
func (l *Loader) Load() error {
	tables := Defaults()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		switch {
		case os.IsNotExist(err):
			l.logger.Printf("[policy] file %s does not exist, using defaults", l.path)
		case err != nil:
			return fmt.Errorf("read policy file: %w", err)
		default:
			if err := applyOverrides(tables, data); err != nil {
				return fmt.Errorf("apply policy overrides: %w", err)
			}
			l.logger.Printf("[policy] loaded overrides from %s", l.path)
		}
	}

	if err := tables.validate(); err != nil {
		return fmt.Errorf("validate policy tables: %w", err)
	}

	l.current.Store(tables)
	for _, fn := range l.onReload {
		fn(tables)
	}
	return nil
}

// Tables returns the active snapshot. Load must have succeeded once.
func (l *Loader) Tables() *Tables {
	return l.current.Load()
}

// OnReload registers a callback invoked with each new snapshot. Register
// before StartHotReload; callbacks run on the reload goroutine.
func (l *Loader) OnReload(fn func(*Tables)) {
	l.onReload = append(l.onReload, fn)
}

// StartHotReload watches the policy file and reloads on change. A failed
// reload keeps the previous snapshot active.
func (l *Loader) StartHotReload() error {
	if l.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	if err := watcher.Add(l.path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch policy file: %w", err)
	}
	l.watcher = watcher

	go l.watchLoop()
	l.logger.Printf("[policy] hot-reload enabled for %s", l.path)
	return nil
}

// StopHotReload stops the file watcher.
func (l *Loader) StopHotReload() {
	if l.watcher != nil {
		close(l.stopWatch)
		l.watcher.Close()
	}
}

func (l *Loader) watchLoop() {
	// Debounce rapid editor saves.
	var debounceTimer *time.Timer
	debounce := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					l.reloadLock.Lock()
					defer l.reloadLock.Unlock()
					if err := l.Load(); err != nil {
						l.logger.Printf("[policy] hot-reload failed, keeping previous tables: %v", err)
					} else {
						l.logger.Printf("[policy] hot-reload succeeded")
					}
				})
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Printf("[policy] watcher error: %v", err)
		case <-l.stopWatch:
			return
		}
	}
}

func applyOverrides(t *Tables, data []byte) error {
	var o fileOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse policy YAML: %w", err)
	}

	for roleName, tags := range o.RestrictedIntents {
		role, err := domain.ParseRole(roleName)
		if err != nil {
			return err
		}
		t.RestrictedIntents[role] = tags
	}

	for recordType, byRole := range o.Attributes {
		if _, ok := t.Attributes[recordType]; !ok {
			return fmt.Errorf("unknown record type %q in attribute policy", recordType)
		}
		for roleName, attrs := range byRole {
			role, err := domain.ParseRole(roleName)
			if err != nil {
				return err
			}
			t.Attributes[recordType][role] = attrs
		}
	}

	for roleName, specs := range o.Redactions {
		role, err := domain.ParseRole(roleName)
		if err != nil {
			return err
		}
		compiled := make([]Redaction, 0, len(specs))
		for _, spec := range specs {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return fmt.Errorf("compile redaction %q: %w", spec.Name, err)
			}
			compiled = append(compiled, Redaction{Name: spec.Name, Pattern: re})
		}
		t.Redactions[role] = compiled
	}

	for roleName, prompt := range o.SystemPrompts {
		role, err := domain.ParseRole(roleName)
		if err != nil {
			return err
		}
		t.SystemPrompts[role] = prompt
	}

	for roleName, suggestions := range o.Suggestions {
		role, err := domain.ParseRole(roleName)
		if err != nil {
			return err
		}
		t.Suggestions[role] = suggestions
	}

	for tag, byRole := range o.QuickActions {
		if t.QuickActions[tag] == nil {
			t.QuickActions[tag] = make(map[domain.Role][]QuickAction)
		}
		for roleName, actions := range byRole {
			role, err := domain.ParseRole(roleName)
			if err != nil {
				return err
			}
			t.QuickActions[tag][role] = actions
		}
	}

	if len(o.Snippets) > 0 {
		t.Snippets = o.Snippets
	}
	return nil
}
