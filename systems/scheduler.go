// Package systems runs per-tick logic over the rows of depot queries.
package systems

import (
	"context"
	"slices"
	"time"

	"github.com/TheBitDrifter/depot"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

var (
	ErrSystemExists   = eris.New("system already registered")
	ErrSystemNotFound = eris.New("system not registered")
	ErrNoRequirements = eris.New("system requires at least one component type")
)

// System updates every entity holding all of its required component types, once per tick.
type System interface {
	Name() string
	Required() []depot.Typed
	Update(world *depot.World, row depot.Row) error
}

// BeforeUpdater is implemented by systems that run code before their first row.
type BeforeUpdater interface {
	BeforeUpdate(world *depot.World) error
}

// AfterUpdater is implemented by systems that run code after their last row.
type AfterUpdater interface {
	AfterUpdate(world *depot.World) error
}

// Handle identifies a registered system.
type Handle uint32

type registered struct {
	handle Handle
	system System
}

// Scheduler runs its systems in registration order.
type Scheduler struct {
	world *depot.World

	// registeredSystems is kept in registration order.
	registeredSystems []registered
	names             map[string]Handle
	next              Handle

	log zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.log = logger
	}
}

func NewScheduler(world *depot.World, opts ...Option) *Scheduler {
	s := &Scheduler{
		world:             world,
		registeredSystems: make([]registered, 0),
		names:             make(map[string]Handle),
		log:               zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds sys to the end of the run order. Names must be unique.
func (s *Scheduler) Register(sys System) (Handle, error) {
	if sys == nil {
		return 0, eris.New("system cannot be nil")
	}
	name := sys.Name()
	if _, ok := s.names[name]; ok {
		return 0, eris.Wrapf(ErrSystemExists, "system %q", name)
	}
	if len(sys.Required()) == 0 {
		return 0, eris.Wrapf(ErrNoRequirements, "system %q", name)
	}

	s.next++
	h := s.next
	s.names[name] = h
	s.registeredSystems = append(s.registeredSystems, registered{handle: h, system: sys})
	s.log.Debug().Str("system", name).Uint32("handle", uint32(h)).Msg("system registered")
	return h, nil
}

// Remove unregisters the system behind h.
func (s *Scheduler) Remove(h Handle) error {
	i := slices.IndexFunc(s.registeredSystems, func(r registered) bool {
		return r.handle == h
	})
	if i < 0 {
		return eris.Wrapf(ErrSystemNotFound, "handle %d", h)
	}
	delete(s.names, s.registeredSystems[i].system.Name())
	s.registeredSystems = slices.Delete(s.registeredSystems, i, i+1)
	return nil
}

// Systems returns the registered system names in run order.
func (s *Scheduler) Systems() []string {
	names := make([]string, len(s.registeredSystems))
	for i, r := range s.registeredSystems {
		names[i] = r.system.Name()
	}
	return names
}

// Tick runs every system once with the world locked. Mutations must be queued with the
// world's Enqueue methods; they apply when the tick ends. The first system error stops
// the tick.
func (s *Scheduler) Tick(ctx context.Context) error {
	tickStart := time.Now()
	s.world.Lock()

	runErr := s.runSystems(ctx)
	if err := s.world.Unlock(); err != nil && runErr == nil {
		runErr = eris.Wrap(err, "failed to apply queued operations")
	}

	s.log.Debug().Dur("duration", time.Since(tickStart)).Int("systems", len(s.registeredSystems)).Msg("tick")
	return runErr
}

func (s *Scheduler) runSystems(ctx context.Context) error {
	for _, r := range s.registeredSystems {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "tick cancelled")
		}
		if err := s.runSystem(r.system); err != nil {
			return eris.Wrapf(err, "system %s generated an error", r.system.Name())
		}
	}
	return nil
}

func (s *Scheduler) runSystem(sys System) error {
	if b, ok := sys.(BeforeUpdater); ok {
		if err := b.BeforeUpdate(s.world); err != nil {
			return err
		}
	}

	rows, err := s.world.Query(sys.Required()...)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := sys.Update(s.world, row); err != nil {
			return err
		}
	}

	if a, ok := sys.(AfterUpdater); ok {
		if err := a.AfterUpdate(s.world); err != nil {
			return err
		}
	}
	return nil
}
