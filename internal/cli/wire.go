package cli

import (
	"context"
	"path/filepath"

	"github.com/openfield/formgate/internal/analytics"
	"github.com/openfield/formgate/internal/gate"
	"github.com/openfield/formgate/internal/settings"
	"github.com/openfield/formgate/internal/store"
)

// gateEnv is the wired-up runtime a command works against.
type gateEnv struct {
	settings  *settings.Settings
	store     *store.Store
	validator *gate.Validator
	sink      analytics.Sink

	closers []func() error
}

// defaultDBPath places the database under the settings data_dir.
func defaultDBPath(sett *settings.Settings) string {
	return filepath.Join(sett.DataDir, "formgate.db")
}

// openGate loads settings, opens the store, and wires a validator. An empty
// dbPath defaults to formgate.db under the settings data_dir.
func openGate(ctx context.Context, settingsPath, dbPath string) (*gateEnv, error) {
	sett, err := settings.Load(settingsPath)
	if err != nil {
		return nil, err
	}

	if dbPath == "" {
		dbPath = defaultDBPath(sett)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	env := &gateEnv{settings: sett, store: st, sink: analytics.Nop{}}
	env.closers = append(env.closers, st.Close)

	if sett.Analytics.Enabled && sett.Analytics.Path != "" {
		fileSink, err := analytics.NewFileSink(sett.Analytics.Path)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.sink = fileSink
		env.closers = append(env.closers, fileSink.Close)
	}

	current := sett.CurrentProject
	if current == "" {
		projects, err := st.Projects.GetAll(ctx)
		if err != nil {
			env.Close()
			return nil, err
		}
		if len(projects) > 0 {
			current = projects[0].UUID
		}
	}

	env.validator = gate.New(gate.Config{
		Projects:           st.Projects,
		Forms:              st.Forms,
		Instances:          st.Instances,
		Deleter:            st.Instances,
		Sink:               env.sink,
		CurrentProject:     current,
		EditCompletedForms: sett.EditCompletedForms,
		Locale:             sett.Language,
	})
	return env, nil
}

// Close releases everything openGate acquired, sink before store.
func (e *gateEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}
