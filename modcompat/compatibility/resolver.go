/*
Package compatibility resolves whether a mod targets the same compatibility epoch as the installed application.
*/
package compatibility

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/modcompat/internal/bus"
	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/distribution"
	"github.com/anchore/modcompat/modcompat/epoch"
	"github.com/anchore/modcompat/modcompat/event"
	"github.com/anchore/modcompat/modcompat/installation"
	"github.com/anchore/modcompat/modcompat/mod"
	"github.com/anchore/modcompat/modcompat/state"
	"github.com/anchore/modcompat/modcompat/version"
)

// UnknownVersion is reported as the current version until the installed application version has been read.
const UnknownVersion = "unknown"

type Config struct {
	StateDir     string
	InstallRoot  string
	VersionFiles []string
	UpdateURL    string
	CACert       string
	Timeout      time.Duration
	UserAgent    string
}

// VersionDetector finds the version of the installed application.
type VersionDetector interface {
	Detect() (*installation.Installed, error)
}

// snapshot is the resolver runtime state. A snapshot is never mutated once published.
type snapshot struct {
	state          state.State
	currentRaw     string
	currentVersion *version.Version
	currentEpoch   *epoch.Epoch
}

// with derives a snapshot for the given state, re-flooring the current version into its table.
func (s *snapshot) with(st state.State) *snapshot {
	next := &snapshot{
		state:          st,
		currentRaw:     s.currentRaw,
		currentVersion: s.currentVersion,
	}
	if next.currentVersion != nil {
		next.currentEpoch = st.Table.Floor(next.currentVersion)
	}
	return next
}

type Resolver struct {
	fs        afero.Fs
	statePath string
	detector  VersionDetector
	fetcher   distribution.Fetcher
	now       func() time.Time

	autoUpdate bool

	// lock serializes Initialize and Refresh, readers never take it
	lock    sync.Mutex
	current atomic.Pointer[snapshot]
	cache   atomic.Pointer[sync.Map]
}

type Option func(*Resolver)

// WithFs sets the filesystem used for the persisted state and the installed version files.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

func WithFetcher(f distribution.Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

func WithDetector(d VersionDetector) Option {
	return func(r *Resolver) {
		r.detector = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithAutoUpdate controls whether Initialize attempts a refresh of the epoch table (enabled by default).
func WithAutoUpdate(enabled bool) Option {
	return func(r *Resolver) {
		r.autoUpdate = enabled
	}
}

// NewResolver creates a resolver and loads the compatibility state. Loading the state never fails: a missing or
// unreadable persisted state falls back to the bundled state, and that to an empty state.
func NewResolver(cfg Config, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		fs:         afero.NewOsFs(),
		statePath:  state.Path(cfg.StateDir),
		now:        time.Now,
		autoUpdate: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.detector == nil {
		r.detector = installation.NewDetector(r.fs, installation.Config{
			Root:         cfg.InstallRoot,
			VersionFiles: cfg.VersionFiles,
		})
	}

	if r.fetcher == nil {
		client, err := distribution.NewClient(distribution.Config{
			URL:       cfg.UpdateURL,
			CACert:    cfg.CACert,
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create compatibility table client: %w", err)
		}
		r.fetcher = client
	}

	r.current.Store(&snapshot{
		state:      bootstrapState(r.fs, r.statePath),
		currentRaw: UnknownVersion,
	})
	r.cache.Store(&sync.Map{})

	return r, nil
}

func bootstrapState(fs afero.Fs, statePath string) state.State {
	var errs error

	s, err := state.Read(fs, statePath)
	if err == nil {
		log.Debugf("loaded compatibility state from %q: %s", statePath, s)
		return s
	}
	errs = multierror.Append(errs, err)

	s, err = state.Default()
	if err == nil {
		log.Debugf("using bundled compatibility state: %s (reason: %v)", s, errs)
		return s
	}
	errs = multierror.Append(errs, err)

	log.Warnf("unable to load any compatibility state, starting without compatibility epochs")
	log.Debugf("compatibility state load failures: %+v", errs)
	return state.Empty()
}

// Initialize reads the installed application version and then attempts a single refresh of the epoch table (unless
// auto update is disabled). Only a failure to determine the installed version is returned, refresh failures leave the
// current state in place.
func (r *Resolver) Initialize(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	installed, err := r.detector.Detect()
	if err != nil {
		return fmt.Errorf("unable to determine installed application version: %w", err)
	}

	prev := r.current.Load()
	next := &snapshot{
		state:          prev.state,
		currentRaw:     installed.Raw,
		currentVersion: installed.Version,
		currentEpoch:   prev.state.Table.Floor(installed.Version),
	}
	r.publish(prev, next, false)

	if next.currentEpoch == nil {
		log.Warnf("installed application version %q is not covered by any compatibility epoch", installed.Raw)
	} else {
		log.Infof("installed application version %q belongs to compatibility epoch %s", installed.Raw, next.currentEpoch.Version())
	}

	r.persist(next.state)

	if r.autoUpdate {
		r.refresh(ctx)
	}
	return nil
}

// Refresh performs a single conditional fetch of the epoch table and persists the state, regardless of the outcome.
func (r *Resolver) Refresh(ctx context.Context) distribution.Result {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.refresh(ctx)
}

func (r *Resolver) refresh(ctx context.Context) distribution.Result {
	stage := &progress.Stage{Current: "checking for update"}
	fetchProgress := &progress.Manual{Total: 1}
	defer fetchProgress.SetCompleted()

	bus.Publish(partybus.Event{
		Type: event.CompatibilityTableUpdateStarted,
		Value: progress.StagedProgressable(&struct {
			progress.Stager
			progress.Progressable
		}{
			Stager:       progress.Stager(stage),
			Progressable: progress.Progressable(fetchProgress),
		}),
	})

	prev := r.current.Load()
	result := r.fetcher.Fetch(ctx, prev.state.ETag)

	nextState := prev.state
	switch result.Outcome {
	case distribution.Updated:
		log.Infof("compatibility table updated (%d epochs)", result.Table.Len())
		nextState = nextState.WithTable(result.Table, result.ETag)
		stage.Current = "updated"
	case distribution.NotModified:
		log.Debugf("compatibility table is up to date")
		stage.Current = "no update available"
	case distribution.Unchanged:
		log.Debugf("compatibility table server responded with status=%d, keeping current table", result.StatusCode)
		stage.Current = "no update available"
	default:
		log.Warnf("unable to check for compatibility table update")
		log.Debugf("compatibility table update failed: %+v", result.Err)
		stage.Current = "update check failed"
	}

	next := prev.with(nextState.WithChecked(r.now()))
	r.publish(prev, next, result.Outcome == distribution.Updated)
	r.persist(next.state)

	bus.Publish(partybus.Event{
		Type:  event.CompatibilityTableRefreshed,
		Value: result,
	})

	return result
}

// Import replaces the epoch table with the given one and persists the state. The stored ETag is cleared so the next
// refresh fetches the remote table unconditionally. Unlike a refresh, a failure to persist is returned.
func (r *Resolver) Import(table epoch.Table) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	prev := r.current.Load()
	next := prev.with(prev.state.WithTable(table, "").WithChecked(r.now()))
	r.publish(prev, next, true)

	if err := next.state.Write(r.fs, r.statePath); err != nil {
		return fmt.Errorf("unable to save imported compatibility table: %w", err)
	}
	log.Infof("imported compatibility table (%d epochs)", table.Len())
	return nil
}

// publish swaps in the next snapshot, discarding memoized results when they could be affected.
func (r *Resolver) publish(prev, next *snapshot, tableChanged bool) {
	r.current.Store(next)

	if tableChanged || !prev.currentEpoch.Equal(next.currentEpoch) {
		r.Invalidate()
	}
}

func (r *Resolver) persist(s state.State) {
	if err := s.Write(r.fs, r.statePath); err != nil {
		log.Warnf("unable to save compatibility state")
		log.Debugf("compatibility state save failed: %+v", err)
	}
}

// Compatibility returns the compatibility of the given mod, computing it at most once per mod identity until the
// next Invalidate.
func (r *Resolver) Compatibility(m mod.Definition) Compatibility {
	// the cache must be loaded before the snapshot, a result computed from a snapshot that is being replaced then
	// only ever lands in the discarded cache
	cache := r.cache.Load()
	if c, ok := cache.Load(m.ID()); ok {
		return c.(Compatibility)
	}

	snap := r.current.Load()
	c := resolve(snap.state.Table, snap.currentEpoch, m)

	actual, _ := cache.LoadOrStore(m.ID(), c)
	return actual.(Compatibility)
}

func resolve(table epoch.Table, current *epoch.Epoch, m mod.Definition) Compatibility {
	if current == nil {
		return Unknown
	}

	var modEpoch *epoch.Epoch
	if compatibleWith := m.ParsedCompatibleWith(); compatibleWith != nil {
		modEpoch = table.Floor(compatibleWith)
	} else {
		modEpoch = table.FloorDate(m.ReleaseDate())
	}

	if current.Equal(modEpoch) {
		return OK
	}
	return Old
}

// Invalidate discards all memoized results.
func (r *Resolver) Invalidate() {
	r.cache.Store(&sync.Map{})
}

// CurrentVersion returns the installed application version as read from the version file.
func (r *Resolver) CurrentVersion() string {
	return r.current.Load().currentRaw
}

// CurrentEpoch returns the epoch of the installed application, nil when unknown.
func (r *Resolver) CurrentEpoch() *epoch.Epoch {
	return r.current.Load().currentEpoch
}

// StatePath is where the compatibility state is persisted.
func (r *Resolver) StatePath() string {
	return r.statePath
}

func (r *Resolver) State() state.State {
	return r.current.Load().state
}
