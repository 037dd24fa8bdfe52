package deploy

import (
	"path"
	"strings"

	"github.com/sagebind/robo-ftp/internal/logger"
	"go.uber.org/zap"
)

// MarkerFileName is the well-known file at the target root recording the
// last successfully deployed revision id.
const MarkerFileName = ".robo-ftp-revision"

// readMarker fetches the stored revision id. Absence or a read failure is
// the valid "no marker" state, never an error.
func readMarker(sess Session, root string) string {
	content, err := sess.ReadFile(path.Join(root, MarkerFileName))
	if err != nil {
		logger.Log.Debug("no revision marker",
			zap.String("root", root),
			zap.Error(err))
		return ""
	}

	return strings.TrimSpace(content)
}

func writeMarker(sess Session, root, revision string) error {
	return sess.WriteFile(path.Join(root, MarkerFileName), revision+"\n")
}
