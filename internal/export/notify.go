package export

import "github.com/charmbracelet/log"

// Notifier is the progress side-channel for export pipelines.
//
// The only transition is started -> succeeded or started -> failed.
// A succeeded presentation replaces the started one; implementations must
// tear down "started" before presenting "succeeded". No retries are
// modeled here.
type Notifier interface {
	// Started is shown while acquire/serialize/deliver are in flight.
	Started()
	// Succeeded carries an actionable reference to the delivered file.
	// The reference is empty for direct-to-destination exports.
	Succeeded(ref string)
	// Failed is terminal and carries no reference.
	Failed()
}

// LogNotifier reports export progress through the application log.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses the default.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.WithPrefix("export")
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Started() {
	n.logger.Info("export started")
}

func (n *LogNotifier) Succeeded(ref string) {
	if ref == "" {
		n.logger.Info("export succeeded")
		return
	}
	n.logger.Info("export succeeded", "file", ref)
}

func (n *LogNotifier) Failed() {
	n.logger.Error("export failed")
}
