package resolve

import (
	"time"

	"github.com/djherbis/times"
)

// FileTimes holds the filesystem timestamps of one file.
type FileTimes struct {
	Birth    time.Time
	HasBirth bool
	Mod      time.Time
}

// FileTimesReader reads filesystem timestamps.
type FileTimesReader interface {
	Times(path string) (FileTimes, error)
}

// OSFileTimes reads timestamps from the real filesystem. Birth time is
// reported only where the platform and filesystem record it.
type OSFileTimes struct{}

func (OSFileTimes) Times(path string) (FileTimes, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return FileTimes{}, err
	}
	ft := FileTimes{Mod: ts.ModTime()}
	if ts.HasBirthTime() {
		ft.Birth = ts.BirthTime()
		ft.HasBirth = true
	}
	return ft, nil
}
