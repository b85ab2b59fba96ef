package extension

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrUnknownExtension is returned for a name no extension was added under.
var ErrUnknownExtension = errors.New("unknown extension")

// State of the selection machine.
type State int

const (
	// Idle means no extension is selected; map clicks are ignored.
	Idle State = iota
	// Active means one extension is selected and receives map clicks.
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// holeRemover is implemented by extensions that honour the remove-holes toggle.
type holeRemover interface {
	SetRemoveHoles(bool)
	RemoveHoles() bool
}

// RemovesHoles reports the remove-holes setting of ext. supported is false
// when ext has no such setting.
func RemovesHoles(ext Extension) (enabled, supported bool) {
	hr, ok := ext.(holeRemover)
	if !ok {
		return false, false
	}
	return hr.RemoveHoles(), true
}

// Manager keeps at most one extension selected and routes button presses and
// map clicks to it.
type Manager struct {
	name   string
	host   Map
	logger zerolog.Logger

	mu         sync.Mutex
	extensions []Extension
	byName     map[string]Extension
	selected   Extension
}

// NewManager returns an idle manager rendering on host.
func NewManager(name string, host Map) *Manager {
	return &Manager{
		name:   name,
		host:   host,
		logger: log.Logger.With().Str("manager", name).Logger(),
		byName: make(map[string]Extension),
	}
}

// WithLogger replaces the manager logger.
func (m *Manager) WithLogger(l zerolog.Logger) *Manager {
	m.logger = l
	return m
}

// Name returns the manager name.
func (m *Manager) Name() string {
	return m.name
}

// AddExtensions registers extensions and binds each to a host layer of the
// same name.
func (m *Manager) AddExtensions(exts ...Extension) error {
	for _, ext := range exts {
		m.mu.Lock()
		_, dup := m.byName[ext.Name()]
		m.mu.Unlock()
		if dup {
			return fmt.Errorf("extension %q already added", ext.Name())
		}

		layer, err := m.host.AddLayer(ext.Name())
		if err != nil {
			return fmt.Errorf("layer for %q: %w", ext.Name(), err)
		}
		ext.Bind(m.host, layer, func() bool { return m.IsActive(ext) })

		m.mu.Lock()
		m.extensions = append(m.extensions, ext)
		m.byName[ext.Name()] = ext
		m.mu.Unlock()

		m.logger.Debug().Str("extension", ext.Name()).Str("kind", ext.Kind()).Msg("Extension added")
	}
	return nil
}

// Extensions returns the registered extensions in insertion order.
func (m *Manager) Extensions() []Extension {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Extension(nil), m.extensions...)
}

// Extension returns the extension called name.
func (m *Manager) Extension(name string) (Extension, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ext, ok := m.byName[name]
	return ext, ok
}

// State returns the machine state and the selected extension, nil when idle.
func (m *Manager) State() (State, Extension) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return Idle, nil
	}
	return Active, m.selected
}

// IsActive reports whether ext is the selected extension.
func (m *Manager) IsActive(ext Extension) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected != nil && m.selected == ext
}

// Select handles a press on the button of extension name. Pressing the
// selected extension again deselects it without running its button action.
// Otherwise any selected extension is deselected first, then name becomes
// selected and its button action runs. If the action fails the machine goes
// back to Idle.
func (m *Manager) Select(ctx context.Context, name string) (State, error) {
	m.mu.Lock()
	ext, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return Idle, fmt.Errorf("%w: %s", ErrUnknownExtension, name)
	}

	if m.selected == ext {
		m.deselectLocked()
		m.mu.Unlock()
		m.logger.Info().Str("extension", name).Msg("Extension deselected")
		return Idle, nil
	}

	m.deselectLocked()
	m.selected = ext
	m.mu.Unlock()

	m.logger.Info().Str("extension", name).Msg("Extension selected")

	if err := ext.ActionButton(ctx); err != nil {
		m.mu.Lock()
		if m.selected == ext {
			m.deselectLocked()
		}
		m.mu.Unlock()
		m.logger.Error().Err(err).Str("extension", name).Msg("Button action failed")
		return Idle, err
	}

	st, _ := m.State()
	return st, nil
}

// Deselect returns the machine to Idle.
func (m *Manager) Deselect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deselectLocked()
}

// Click handles a map click at pt. handled is false when no extension is
// selected. After a successful click the selected extension is deselected
// unless it persists. A failed click leaves the selection as it was.
func (m *Manager) Click(ctx context.Context, pt orb.Point) (handled bool, err error) {
	m.mu.Lock()
	ext := m.selected
	m.mu.Unlock()

	if ext == nil {
		return false, nil
	}

	if err := ext.ActionMap(ctx, pt); err != nil {
		m.logger.Error().Err(err).Str("extension", ext.Name()).Msg("Map action failed")
		return true, err
	}

	if !ext.Persist() {
		m.mu.Lock()
		if m.selected == ext {
			m.deselectLocked()
		}
		m.mu.Unlock()
	}

	return true, nil
}

// Clear removes the geometry rendered by extension name.
func (m *Manager) Clear(name string) error {
	ext, ok := m.Extension(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExtension, name)
	}
	ext.RemoveGeometries()
	m.logger.Info().Str("extension", name).Msg("Geometry cleared")
	return nil
}

// SetRemoveHoles sets the remove-holes toggle on every extension supporting it.
func (m *Manager) SetRemoveHoles(v bool) {
	for _, ext := range m.Extensions() {
		if hr, ok := ext.(holeRemover); ok {
			hr.SetRemoveHoles(v)
		}
	}
}

// RemoveHoles reports whether every extension supporting the toggle has it
// enabled. It is false when no extension supports it.
func (m *Manager) RemoveHoles() bool {
	supported := false
	for _, ext := range m.Extensions() {
		enabled, ok := RemovesHoles(ext)
		if !ok {
			continue
		}
		if !enabled {
			return false
		}
		supported = true
	}
	return supported
}

func (m *Manager) deselectLocked() {
	m.selected = nil
	m.host.SetCursor(CursorDefault)
}
