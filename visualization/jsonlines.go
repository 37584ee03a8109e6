package visualization

import (
	"io"
	"log/slog"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/model"
)

// Event is one line of a JSONLines stream.
type Event struct {
	Kind    string `json:"kind"`
	Version string `json:"version,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Label   string `json:"label,omitempty"`
}

// JSONLines streams every visualization event as one JSON object per line.
// Write errors are logged and the stream stops; the exploration goes on.
type JSONLines struct {
	mutex   sync.Mutex
	encoder *jsontext.Encoder
	logger  *slog.Logger
	failed  bool
}

func NewJSONLines(w io.Writer, logger *slog.Logger) *JSONLines {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &JSONLines{
		encoder: jsontext.NewEncoder(w),
		logger:  logger.With("component", "jsonlines"),
	}
}

func (j *JSONLines) write(e *Event) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.failed {
		return
	}
	err := json.MarshalEncode(j.encoder, e)
	if err != nil {
		j.failed = true
		j.logger.Error("write visualization event", "error", err)
	}
}

func (j *JSONLines) AddState(version model.Version, label string) {
	j.write(&Event{Kind: "state", Version: version.String(), Label: label})
}

func (j *JSONLines) AddTransition(from, to model.Version, label string) {
	j.write(&Event{Kind: "transition", From: from.String(), To: to.String(), Label: label})
}

func (j *JSONLines) AddSolution(version model.Version) {
	j.write(&Event{Kind: "solution", Version: version.String()})
}

// Failed reports whether writing has stopped on an error.
func (j *JSONLines) Failed() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.failed
}

// Tee forwards every event to all visualizers.
type Tee []dse.Visualizer

func (t Tee) AddState(version model.Version, label string) {
	for _, v := range t {
		v.AddState(version, label)
	}
}

func (t Tee) AddTransition(from, to model.Version, label string) {
	for _, v := range t {
		v.AddTransition(from, to, label)
	}
}

func (t Tee) AddSolution(version model.Version) {
	for _, v := range t {
		v.AddSolution(version)
	}
}
