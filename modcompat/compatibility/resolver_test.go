package compatibility

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/modcompat/modcompat/distribution"
	"github.com/anchore/modcompat/modcompat/epoch"
	"github.com/anchore/modcompat/modcompat/installation"
	"github.com/anchore/modcompat/modcompat/mod"
	"github.com/anchore/modcompat/modcompat/state"
	"github.com/anchore/modcompat/modcompat/version"
)

const stateDir = "/cache/modcompat"

var fixedNow = time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	lock    sync.Mutex
	results []distribution.Result
	etags   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, etag string) distribution.Result {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.etags = append(f.etags, etag)
	if len(f.results) == 0 {
		return distribution.Result{Outcome: distribution.NotModified, StatusCode: 304}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

func (f *fakeFetcher) seenEtags() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.etags...)
}

type fakeDetector struct {
	raw string
	err error
}

func (d fakeDetector) Detect() (*installation.Installed, error) {
	if d.err != nil {
		return nil, d.err
	}
	v, err := version.Parse(d.raw)
	if err != nil {
		return nil, err
	}
	return &installation.Installed{Raw: v.String(), Version: v, Path: "/fake/version.txt"}, nil
}

// countingMod records how often the resolver inspects it.
type countingMod struct {
	id             string
	compatibleWith *version.Version
	released       time.Time
	inspections    int32
}

func (m *countingMod) ID() string {
	return m.id
}

func (m *countingMod) ParsedCompatibleWith() *version.Version {
	atomic.AddInt32(&m.inspections, 1)
	return m.compatibleWith
}

func (m *countingMod) ReleaseDate() time.Time {
	return m.released
}

func (m *countingMod) count() int {
	return int(atomic.LoadInt32(&m.inspections))
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func table(entries ...string) epoch.Table {
	var epochs []epoch.Epoch
	for i := 0; i < len(entries); i += 2 {
		epochs = append(epochs, epoch.New(version.MustParse(entries[i]), day(entries[i+1])))
	}
	return epoch.NewTable(epochs...)
}

func exampleTable() epoch.Table {
	return table("1.0", "2020-01-01", "2.0", "2021-01-01")
}

func newMod(t *testing.T, name, compatibleWith, released string) *mod.Mod {
	t.Helper()
	m, err := mod.New(name, "1.0.0", compatibleWith, day(released))
	require.NoError(t, err)
	return m
}

func writeState(t *testing.T, fs afero.Fs, s state.State) {
	t.Helper()
	require.NoError(t, s.Write(fs, state.Path(stateDir)))
}

func newTestResolver(t *testing.T, fs afero.Fs, current string, fetcher distribution.Fetcher) *Resolver {
	t.Helper()
	r, err := NewResolver(
		Config{StateDir: stateDir},
		WithFs(fs),
		WithFetcher(fetcher),
		WithDetector(fakeDetector{raw: current}),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return r
}

func TestResolver_ExampleScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

	r := newTestResolver(t, fs, "2.5", &fakeFetcher{})
	require.NoError(t, r.Initialize(context.Background()))

	assert.Equal(t, "2.5", r.CurrentVersion())
	require.NotNil(t, r.CurrentEpoch())
	assert.Equal(t, "2.0", r.CurrentEpoch().Version().String())

	tests := []struct {
		name   string
		mod    mod.Definition
		expect Compatibility
	}{
		{
			name:   "declared compatible version in the current epoch",
			mod:    newMod(t, "A", "2.1", "2018-01-01"),
			expect: OK,
		},
		{
			name:   "declared compatible version in an older epoch",
			mod:    newMod(t, "B", "1.2", "2022-01-01"),
			expect: Old,
		},
		{
			name:   "release date before the first epoch",
			mod:    newMod(t, "C", "", "2019-06-01"),
			expect: Old,
		},
		{
			name:   "release date within the current epoch",
			mod:    newMod(t, "D", "", "2021-06-01"),
			expect: OK,
		},
		{
			name:   "release date within an older epoch",
			mod:    newMod(t, "E", "", "2020-06-01"),
			expect: Old,
		},
		{
			name:   "declared version below the first epoch",
			mod:    newMod(t, "F", "0.5", "2021-06-01"),
			expect: Old,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expect, r.Compatibility(test.mod))
		})
	}
}

func TestResolver_EpochEqualityNotOrdering(t *testing.T) {
	epochs := table("1.0", "2020-01-01", "2.0", "2021-01-01", "3.0", "2022-01-01")

	tests := []struct {
		name    string
		current string
		target  string
		expect  Compatibility
	}{
		{name: "older epoch than installed", current: "3.0", target: "1.0", expect: Old},
		{name: "newer epoch than installed", current: "1.0", target: "3.0", expect: Old},
		{name: "same epoch", current: "2.0", target: "2.0", expect: OK},
		{name: "same epoch different versions", current: "2.7", target: "2.1", expect: OK},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeState(t, fs, state.Empty().WithTable(epochs, ""))

			r := newTestResolver(t, fs, test.current, &fakeFetcher{})
			require.NoError(t, r.Initialize(context.Background()))

			assert.Equal(t, test.expect, r.Compatibility(newMod(t, "mod", test.target, "2021-06-01")))
		})
	}
}

func TestResolver_UnknownWithoutCurrentEpoch(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), ""))

	mods := []mod.Definition{
		newMod(t, "A", "2.1", "2021-06-01"),
		newMod(t, "B", "1.0", "2020-06-01"),
		newMod(t, "C", "", "2019-06-01"),
		newMod(t, "D", "0.1", "2019-06-01"),
	}

	t.Run("installed version below the first epoch", func(t *testing.T) {
		r := newTestResolver(t, fs, "0.9", &fakeFetcher{})
		require.NoError(t, r.Initialize(context.Background()))
		assert.Nil(t, r.CurrentEpoch())

		for _, m := range mods {
			assert.Equal(t, Unknown, r.Compatibility(m))
		}
	})

	t.Run("not initialized", func(t *testing.T) {
		r := newTestResolver(t, fs, "2.5", &fakeFetcher{})
		assert.Equal(t, UnknownVersion, r.CurrentVersion())

		for _, m := range mods {
			assert.Equal(t, Unknown, r.Compatibility(m))
		}
	})

	t.Run("empty table", func(t *testing.T) {
		emptyFs := afero.NewMemMapFs()
		writeState(t, emptyFs, state.Empty())

		r := newTestResolver(t, emptyFs, "2.5", &fakeFetcher{})
		require.NoError(t, r.Initialize(context.Background()))

		for _, m := range mods {
			assert.Equal(t, Unknown, r.Compatibility(m))
		}
	})
}

func TestResolver_Memoization(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), ""))

	r := newTestResolver(t, fs, "2.5", &fakeFetcher{})
	require.NoError(t, r.Initialize(context.Background()))

	m := &countingMod{id: "counted", compatibleWith: version.MustParse("2.1")}

	first := r.Compatibility(m)
	second := r.Compatibility(m)
	assert.Equal(t, OK, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.count())

	r.Invalidate()
	assert.Equal(t, OK, r.Compatibility(m))
	assert.Equal(t, 2, m.count())
}

func TestResolver_InvalidateObservesNewEpoch(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

	fetcher := &fakeFetcher{}
	r := newTestResolver(t, fs, "2.5", fetcher)
	require.NoError(t, r.Initialize(context.Background()))

	m := &countingMod{id: "counted", compatibleWith: version.MustParse("2.1")}
	assert.Equal(t, OK, r.Compatibility(m))

	// a new boundary at 2.3 moves the installed version into a newer epoch than the mod's target
	fetcher.results = []distribution.Result{{
		Outcome:    distribution.Updated,
		Table:      table("1.0", "2020-01-01", "2.0", "2021-01-01", "2.3", "2021-09-01"),
		ETag:       `"etag-2"`,
		StatusCode: 200,
	}}

	result := r.Refresh(context.Background())
	assert.Equal(t, distribution.Updated, result.Outcome)
	assert.Equal(t, "2.3", r.CurrentEpoch().Version().String())

	assert.Equal(t, Old, r.Compatibility(m))
	assert.Equal(t, 2, m.count())
}

func TestResolver_RefreshNotModified(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

	fetcher := &fakeFetcher{}
	r := newTestResolver(t, fs, "2.5", fetcher)
	require.NoError(t, r.Initialize(context.Background()))

	before := r.State()
	epochBefore := r.CurrentEpoch()

	later := fixedNow.Add(time.Hour)
	r.now = func() time.Time { return later }

	result := r.Refresh(context.Background())
	assert.Equal(t, distribution.NotModified, result.Outcome)

	after := r.State()
	assert.Equal(t, before.ETag, after.ETag)
	assert.Equal(t, before.Table.Entries(), after.Table.Entries())
	assert.True(t, epochBefore.Equal(r.CurrentEpoch()))
	require.NotNil(t, after.Checked)
	assert.True(t, later.Equal(*after.Checked))

	assert.Equal(t, []string{`"etag-1"`, `"etag-1"`}, fetcher.seenEtags())

	persisted, err := state.Read(fs, state.Path(stateDir))
	require.NoError(t, err)
	require.NotNil(t, persisted.Checked)
	assert.True(t, later.Equal(*persisted.Checked))
	assert.Equal(t, `"etag-1"`, persisted.ETag)
}

func TestResolver_RefreshUpdated(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

	fetcher := &fakeFetcher{results: []distribution.Result{{
		Outcome:    distribution.Updated,
		Table:      table("1.0", "2020-01-01", "2.0", "2021-01-01", "3.0", "2022-01-01"),
		ETag:       `"etag-2"`,
		StatusCode: 200,
	}}}

	r := newTestResolver(t, fs, "3.1", fetcher)
	require.NoError(t, r.Initialize(context.Background()))

	assert.Equal(t, `"etag-2"`, r.State().ETag)
	assert.Equal(t, 3, r.State().Table.Len())
	assert.Equal(t, "3.0", r.CurrentEpoch().Version().String())

	persisted, err := state.Read(fs, state.Path(stateDir))
	require.NoError(t, err)
	assert.Equal(t, `"etag-2"`, persisted.ETag)
	assert.Equal(t, 3, persisted.Table.Len())
	require.NotNil(t, persisted.Checked)
	assert.True(t, fixedNow.Equal(*persisted.Checked))
}

func TestResolver_RefreshFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name   string
		result distribution.Result
	}{
		{
			name:   "transport failure",
			result: distribution.Result{Outcome: distribution.Failed, Err: errors.New("connection refused")},
		},
		{
			name:   "server error",
			result: distribution.Result{Outcome: distribution.Unchanged, StatusCode: 503},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

			r := newTestResolver(t, fs, "2.5", &fakeFetcher{results: []distribution.Result{test.result}})
			require.NoError(t, r.Initialize(context.Background()))

			assert.Equal(t, `"etag-1"`, r.State().ETag)
			assert.Equal(t, 2, r.State().Table.Len())
			assert.Equal(t, "2.0", r.CurrentEpoch().Version().String())
			require.NotNil(t, r.State().Checked)
			assert.True(t, fixedNow.Equal(*r.State().Checked))

			persisted, err := state.Read(fs, state.Path(stateDir))
			require.NoError(t, err)
			require.NotNil(t, persisted.Checked)
			assert.True(t, fixedNow.Equal(*persisted.Checked))
			assert.Equal(t, `"etag-1"`, persisted.ETag)
			assert.Equal(t, 2, persisted.Table.Len())
		})
	}
}

func TestResolver_Bootstrap(t *testing.T) {
	bundled, err := state.Default()
	require.NoError(t, err)

	tests := []struct {
		name        string
		setup       func(t *testing.T, fs afero.Fs)
		expectLen   int
		expectEtag  string
		expectedMin string
	}{
		{
			name: "persisted state",
			setup: func(t *testing.T, fs afero.Fs) {
				writeState(t, fs, state.Empty().WithTable(exampleTable(), `"persisted"`))
			},
			expectLen:   2,
			expectEtag:  `"persisted"`,
			expectedMin: "1.0",
		},
		{
			name:        "no persisted state",
			setup:       func(t *testing.T, fs afero.Fs) {},
			expectLen:   bundled.Table.Len(),
			expectedMin: bundled.Table.Min().Version().String(),
		},
		{
			name: "unreadable persisted state",
			setup: func(t *testing.T, fs afero.Fs) {
				require.NoError(t, afero.WriteFile(fs, state.Path(stateDir), []byte("{{{"), 0644))
			},
			expectLen:   bundled.Table.Len(),
			expectedMin: bundled.Table.Min().Version().String(),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			test.setup(t, fs)

			r := newTestResolver(t, fs, "2.5", &fakeFetcher{})
			s := r.State()
			assert.Equal(t, test.expectLen, s.Table.Len())
			assert.Equal(t, test.expectEtag, s.ETag)
			assert.Equal(t, test.expectedMin, s.Table.Min().Version().String())
		})
	}
}

func TestResolver_InitializeVersionErrors(t *testing.T) {
	t.Run("version file not found", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		r, err := NewResolver(
			Config{StateDir: stateDir, InstallRoot: "/games/tld"},
			WithFs(fs),
			WithFetcher(&fakeFetcher{}),
		)
		require.NoError(t, err)

		err = r.Initialize(context.Background())
		assert.ErrorIs(t, err, installation.ErrVersionFileNotFound)
		assert.Equal(t, UnknownVersion, r.CurrentVersion())
	})

	t.Run("version file unreadable", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/games/tld/tld_Data/StreamingAssets/version.txt", []byte("\n"), 0644))

		fetcher := &fakeFetcher{}
		r, err := NewResolver(
			Config{StateDir: stateDir, InstallRoot: "/games/tld"},
			WithFs(fs),
			WithFetcher(fetcher),
		)
		require.NoError(t, err)

		err = r.Initialize(context.Background())
		assert.ErrorIs(t, err, installation.ErrVersionReadFailure)
		assert.Empty(t, fetcher.seenEtags(), "no refresh should be attempted without a local version")
	})

	t.Run("version file present", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/games/tld/tld_Data/StreamingAssets/version.txt", []byte("2.5 12345\n"), 0644))
		writeState(t, fs, state.Empty().WithTable(exampleTable(), ""))

		r, err := NewResolver(
			Config{StateDir: stateDir, InstallRoot: "/games/tld"},
			WithFs(fs),
			WithFetcher(&fakeFetcher{}),
		)
		require.NoError(t, err)

		require.NoError(t, r.Initialize(context.Background()))
		assert.Equal(t, "2.5", r.CurrentVersion())
		assert.Equal(t, "2.0", r.CurrentEpoch().Version().String())
	})
}

func TestResolver_PersistFailureIsSwallowed(t *testing.T) {
	base := afero.NewMemMapFs()
	writeState(t, base, state.Empty().WithTable(exampleTable(), `"etag-1"`))
	fs := afero.NewReadOnlyFs(base)

	r := newTestResolver(t, fs, "2.5", &fakeFetcher{results: []distribution.Result{{
		Outcome: distribution.Updated,
		Table:   table("1.0", "2020-01-01", "2.0", "2021-01-01", "2.4", "2021-06-01"),
		ETag:    `"etag-2"`,
	}}})

	require.NoError(t, r.Initialize(context.Background()))
	assert.Equal(t, `"etag-2"`, r.State().ETag)
	assert.Equal(t, "2.4", r.CurrentEpoch().Version().String())
}

func TestResolver_ConcurrentReaders(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

	fetcher := &fakeFetcher{}
	r := newTestResolver(t, fs, "2.5", fetcher)
	require.NoError(t, r.Initialize(context.Background()))

	m := newMod(t, "shared", "2.2", "2021-06-01")

	var wg sync.WaitGroup
	results := make([]Compatibility, 64)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = r.Compatibility(m)
		}(i)
	}

	// refreshes swap the snapshot while readers are active
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Refresh(context.Background())
		}()
	}
	wg.Wait()

	for _, c := range results {
		assert.Equal(t, OK, c)
	}
	assert.Equal(t, OK, r.Compatibility(m))
}

func TestResolve(t *testing.T) {
	epochs := exampleTable()
	current := epochs.Floor(version.MustParse("2.5"))

	assert.Equal(t, Unknown, resolve(epochs, nil, newMod(t, "A", "2.1", "2021-06-01")))
	assert.Equal(t, OK, resolve(epochs, current, newMod(t, "A", "2.1", "2021-06-01")))
	// an explicit declaration wins over the release date
	assert.Equal(t, Old, resolve(epochs, current, newMod(t, "B", "1.1", "2021-06-01")))
	assert.Equal(t, OK, resolve(epochs, current, newMod(t, "C", "", "2021-06-01")))
}

func TestResolver_InitializeWithoutAutoUpdate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

	fetcher := &fakeFetcher{}
	r, err := NewResolver(
		Config{StateDir: stateDir},
		WithFs(fs),
		WithFetcher(fetcher),
		WithDetector(fakeDetector{raw: "2.5"}),
		WithAutoUpdate(false),
	)
	require.NoError(t, err)

	require.NoError(t, r.Initialize(context.Background()))
	assert.Empty(t, fetcher.seenEtags())
	assert.Equal(t, "2.0", r.CurrentEpoch().Version().String())
	assert.Nil(t, r.State().Checked)
	assert.Equal(t, state.Path(stateDir), r.StatePath())
}

func TestResolver_Import(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeState(t, fs, state.Empty().WithTable(exampleTable(), `"etag-1"`))

	fetcher := &fakeFetcher{}
	r := newTestResolver(t, fs, "2.5", fetcher)
	require.NoError(t, r.Initialize(context.Background()))

	m := &countingMod{id: "counted", compatibleWith: version.MustParse("2.1")}
	assert.Equal(t, OK, r.Compatibility(m))

	require.NoError(t, r.Import(table("1.0", "2020-01-01", "2.0", "2021-01-01", "2.2", "2021-08-01")))

	assert.Equal(t, "", r.State().ETag)
	assert.Equal(t, "2.2", r.CurrentEpoch().Version().String())
	assert.Equal(t, Old, r.Compatibility(m))

	persisted, err := state.Read(fs, state.Path(stateDir))
	require.NoError(t, err)
	assert.Equal(t, 3, persisted.Table.Len())
	assert.Equal(t, "", persisted.ETag)

	// the next refresh is unconditional
	r.Refresh(context.Background())
	etags := fetcher.seenEtags()
	assert.Equal(t, "", etags[len(etags)-1])
}

func TestResolver_ImportPersistFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	r := newTestResolver(t, fs, "2.5", &fakeFetcher{})

	assert.Error(t, r.Import(exampleTable()))
	// the in-memory state is still replaced
	assert.Equal(t, 2, r.State().Table.Len())
}
