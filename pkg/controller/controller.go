// Package controller wires the code source, the mapping engine and the
// profile store together and runs the polling loop.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DavidRHannah/IRKeybridge/pkg/config"
	"github.com/DavidRHannah/IRKeybridge/pkg/mapper"
	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
	"github.com/DavidRHannah/IRKeybridge/pkg/receiver"
)

// pollInterval bounds the wait on the code source per loop tick. Short
// relative to the mapper's release timeout so deadline checks stay fresh.
const pollInterval = 10 * time.Millisecond

// Controller owns one source/mapper pair for the lifetime of a session.
type Controller struct {
	log      *logrus.Logger
	settings *config.Manager
	store    *profile.Store
	source   receiver.Source
	mapper   *mapper.Mapper

	mu          sync.Mutex
	running     bool
	profileName string
	profile     *profile.Profile

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	Running       bool
	Connected     bool
	Profile       string
	GhostEnabled  bool
	TapEnabled    bool
	RepeatEnabled bool
	Receiver      receiver.Stats
}

// New creates a controller. The mapper must already be constructed with its
// actuator; the controller registers its own callbacks on it.
func New(settings *config.Manager, store *profile.Store, source receiver.Source, m *mapper.Mapper, log *logrus.Logger) *Controller {
	if log == nil {
		log = logrus.New()
	}
	return &Controller{
		log:      log,
		settings: settings,
		store:    store,
		source:   source,
		mapper:   m,
		stopCh:   make(chan struct{}),
	}
}

// Start resolves and loads a profile, connects the source and prepares the
// mapper. profileName may be empty, in which case the last used profile is
// tried, then the first available one, and as a last resort the built-in
// default profile is created.
func (c *Controller) Start(profileName string) error {
	name, prof, err := c.resolveProfile(profileName)
	if err != nil {
		return err
	}

	c.mapper.SetProfile(prof)
	c.mapper.SetCallbacks(c.Stop, func(msg string) {
		c.log.Info(msg)
	})

	if err := c.source.Start(); err != nil {
		return fmt.Errorf("failed to start receiver: %w", err)
	}

	c.mu.Lock()
	c.running = true
	c.profileName = name
	c.profile = prof
	c.mu.Unlock()

	c.settings.Settings.LastProfile = name
	if err := c.settings.Save(); err != nil {
		c.log.WithError(err).Warn("could not persist last used profile")
	}

	c.log.Infof("Controller started with profile: %s", prof.Name)
	return nil
}

// resolveProfile picks the profile for this session.
func (c *Controller) resolveProfile(name string) (string, *profile.Profile, error) {
	if name != "" {
		p, err := c.store.Load(name)
		if err != nil {
			return "", nil, err
		}
		return name, p, nil
	}

	if last := c.settings.Settings.LastProfile; last != "" {
		if p, err := c.store.Load(last); err == nil {
			return last, p, nil
		} else {
			c.log.WithError(err).Warnf("failed to load last profile %s", last)
		}
	}

	names, err := c.store.List()
	if err != nil {
		return "", nil, err
	}
	if len(names) == 0 {
		c.log.Info("No profiles found, creating default...")
		saved, err := c.store.Save(profile.DefaultProfile())
		if err != nil {
			return "", nil, fmt.Errorf("failed to create default profile: %w", err)
		}
		names = []string{saved}
	}
	p, err := c.store.Load(names[0])
	if err != nil {
		return "", nil, err
	}
	return names[0], p, nil
}

// Run drives the polling loop until the context is cancelled or a stop
// special action fires. Keys are always released on the way out, whatever
// the exit path.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return fmt.Errorf("controller not started")
	}

	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.stopCh:
			return nil
		default:
		}
		if code, ok := c.source.GetCode(pollInterval); ok {
			c.mapper.ProcessCode(code)
		}
	}
}

// Stop requests the run loop to exit. Idempotent; also used as the mapper's
// stop callback.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// shutdown tears everything down exactly once per session.
func (c *Controller) shutdown() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.log.Info("Stopping controller...")
	c.source.Stop()
	c.mapper.Disable()
	c.mapper.Cleanup()
	c.log.Info("Controller stopped")
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	running, name := c.running, c.profileName
	c.mu.Unlock()
	ghost, tap, repeat := c.mapper.Modes()
	return Status{
		Running:       running,
		Connected:     c.source.Connected(),
		Profile:       name,
		GhostEnabled:  ghost,
		TapEnabled:    tap,
		RepeatEnabled: repeat,
		Receiver:      c.source.Stats(),
	}
}
