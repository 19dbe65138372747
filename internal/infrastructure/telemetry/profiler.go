package telemetry

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig configures continuous profiling against a Pyroscope server.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string // http://pyroscope:4040
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	// ProfileTypes takes names from ProfileTypeNames. Empty selects cpu,
	// alloc_space and inuse_space.
	ProfileTypes []string
}

func (c ProfilerConfig) check() error {
	if c.ServerAddress == "" {
		return errors.New("profiling enabled without a server address")
	}
	if c.ApplicationName == "" {
		return errors.New("profiling enabled without an application name")
	}
	return nil
}

var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// sampling rate applied when mutex or block profiles are requested
const contentionSampleRate = 5

// ProfileTypeNames returns every accepted profile type name in order.
func ProfileTypeNames() []string {
	return slices.Sorted(maps.Keys(profileTypes))
}

func parseProfileTypes(names []string) ([]pyroscope.ProfileType, error) {
	if len(names) == 0 {
		names = []string{"cpu", "alloc_space", "inuse_space"}
	}
	out := make([]pyroscope.ProfileType, len(names))
	for i, raw := range names {
		pt, known := profileTypes[strings.ToLower(strings.TrimSpace(raw))]
		if !known {
			return nil, fmt.Errorf("unknown profile type %q, want one of %s", raw, strings.Join(ProfileTypeNames(), ", "))
		}
		out[i] = pt
	}
	return out, nil
}

// enableContentionProfiling turns on the runtime sampling that mutex and
// block profiles read from; both are off by default.
func enableContentionProfiling(types []pyroscope.ProfileType) {
	for _, pt := range types {
		switch pt {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			runtime.SetMutexProfileFraction(contentionSampleRate)
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			runtime.SetBlockProfileRate(contentionSampleRate)
		}
	}
}

// Profiler owns a running Pyroscope session. The zero session (profiling
// disabled) is valid and every method is a no-op.
type Profiler struct {
	session  *pyroscope.Profiler
	logger   *zap.Logger
	stopOnce sync.Once
	stopErr  error
}

func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	types, err := parseProfileTypes(cfg.ProfileTypes)
	if err != nil {
		return nil, err
	}
	enableContentionProfiling(types)

	tags := map[string]string{"version": ServiceVersion}
	if host, _ := os.Hostname(); host != "" {
		tags["hostname"] = host
	}
	p.session, err = pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		ProfileTypes:      types,
		Tags:              tags,
		Logger:            pyroscopeLogger{logger.Named("pyroscope").Sugar()},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	logger.Info("Continuous profiling enabled",
		zap.String("server", cfg.ServerAddress),
		zap.String("application", cfg.ApplicationName),
		zap.Strings("types", cfg.ProfileTypes),
	)
	return p, nil
}

// Stop uploads what is buffered and ends the session. Repeated calls
// return the first result.
func (p *Profiler) Stop() error {
	p.stopOnce.Do(func() {
		if p.session == nil {
			return
		}
		if err := p.session.Stop(); err != nil {
			p.stopErr = fmt.Errorf("stop pyroscope: %w", err)
			return
		}
		p.logger.Info("Continuous profiling stopped")
	})
	return p.stopErr
}

func (p *Profiler) IsEnabled() bool {
	return p.session != nil
}

// pyroscopeLogger satisfies pyroscope.Logger
type pyroscopeLogger struct{ *zap.SugaredLogger }
