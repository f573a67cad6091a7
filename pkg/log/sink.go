package log

import (
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

const rotateScheme = "rotate"

var (
	sinkOnce sync.Once

	rotationMu sync.Mutex
	rotation   = map[string]RotationOptions{}
)

// rotateSink adapts a lumberjack logger to zap.Sink.
type rotateSink struct {
	*lumberjack.Logger
}

func (rotateSink) Sync() error { return nil }

func registerSinks() {
	sinkOnce.Do(func() {
		// RegisterSink only fails on a duplicate scheme, which sinkOnce rules out.
		_ = zap.RegisterSink(rotateScheme, newRotateSink)
	})
}

// rotatePaths records the rotation policy for every rotate:// path so the sink factory can find it.
func rotatePaths(paths []string, ro RotationOptions) []string {
	rotationMu.Lock()
	defer rotationMu.Unlock()
	for _, p := range paths {
		if strings.HasPrefix(p, rotateScheme+"://") {
			rotation[p] = ro
		}
	}
	return paths
}

func newRotateSink(u *url.URL) (zap.Sink, error) {
	rotationMu.Lock()
	ro, ok := rotation[u.String()]
	rotationMu.Unlock()
	if !ok {
		ro = NewOptions().Rotation
	}

	filename := u.Path
	if u.Host != "" {
		// rotate://relative/dir/file.log
		filename = u.Host + u.Path
	}

	return rotateSink{&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    ro.MaxSizeMB,
		MaxBackups: ro.MaxBackups,
		MaxAge:     ro.MaxAgeDays,
		Compress:   ro.Compress,
	}}, nil
}
