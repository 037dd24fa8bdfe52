package deploy

import (
	"time"

	"github.com/sagebind/robo-ftp/internal/logger"
	"go.uber.org/zap"
)

type decision struct {
	upload bool
	reason string
}

type metadataProber interface {
	FileSize(path string) (int64, error)
	ModTime(path string) (time.Time, error)
}

// evaluate decides whether a local file must be uploaded. Remote metadata
// is fetched only when the corresponding policy is enabled. Policy order is
// fixed: size equality before modification time. A failed metadata probe
// cannot prove the file skippable, so it falls through toward upload.
func evaluate(cfg Config, entry Entry, remotePath string, present bool, meta metadataProber) decision {
	if !present {
		return decision{upload: true, reason: "absent"}
	}

	if cfg.SkipEqualSize {
		size, err := meta.FileSize(remotePath)
		if err != nil {
			logger.Log.Warn("failed to fetch remote size",
				zap.String("path", remotePath),
				zap.Error(err))
		} else if size == entry.Size {
			return decision{reason: "size unchanged"}
		}
	}

	if cfg.SkipUnmodified {
		remote, err := meta.ModTime(remotePath)
		if err != nil {
			logger.Log.Warn("failed to fetch remote mtime",
				zap.String("path", remotePath),
				zap.Error(err))
		} else if !remote.Before(entry.ModTime.Truncate(time.Second)) {
			// MDTM has second resolution; local times are truncated
			// before the comparison.
			return decision{reason: "remote not older"}
		}
	}

	if !cfg.SkipEqualSize && !cfg.SkipUnmodified && !cfg.Overwrite {
		return decision{reason: "exists"}
	}

	return decision{upload: true, reason: "overwrite"}
}
