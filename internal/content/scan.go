package content

import (
	"fmt"
	"log/slog"

	"github.com/starford/kiln/internal/logfields"
	"github.com/starford/kiln/internal/models"
)

// Source is the read capability Scan walks.
type Source interface {
	List(dir string) ([]models.FileMeta, error)
	Read(path string) ([]byte, error)
}

// Scan reads every file listed by src into a new arena and freezes it.
// Files that cannot be read are logged and skipped.
func Scan(src Source, logger *slog.Logger) (*Content, error) {
	if logger == nil {
		logger = slog.Default()
	}

	metas, err := src.List("")
	if err != nil {
		return nil, fmt.Errorf("content: scan: %w", err)
	}

	var size int64
	for _, m := range metas {
		size += int64(len(m.Path)) + m.Size
	}

	arena := NewArena(int(size))
	skipped := 0
	for _, m := range metas {
		data, err := src.Read(m.Path)
		if err != nil {
			logger.Warn("content: read failed, skipping", logfields.Path(m.Path), logfields.Error(err))
			skipped++
			continue
		}
		if _, err := arena.PushFile(m.Path, data); err != nil {
			return nil, err
		}
	}

	logger.Debug("content: scan complete", logfields.Count(arena.Len()), slog.Int("skipped", skipped))
	c := arena.Freeze()
	c.skipped = skipped
	return c, nil
}
