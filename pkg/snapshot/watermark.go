package snapshot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/panbanda/cogmark/pkg/models"
)

// State is a step of a watermark check.
type State int

const (
	StateIgnored State = iota
	StateNoBaseline
	StateComparing
	StatePassed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIgnored:
		return "IGNORED"
	case StateNoBaseline:
		return "NO_BASELINE"
	case StateComparing:
		return "COMPARING"
	case StatePassed:
		return "PASSED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	msgNoBaseline = "Snapshot watermark requested but no snapshot file was found. Run cogmark with --snapshot-create first."
	msgLegacy     = "Snapshot file was created with an older version of cogmark. Please recreate it with --snapshot-create."
)

// Outcome is the result of one watermark check.
type Outcome struct {
	// State is the terminal state: StateIgnored, StatePassed or StateFailed.
	State State
	// Transitions lists every state visited, ending with State.
	Transitions []State
	// Messages holds the directive or the violations for a failed check.
	Messages []string
	// BaselineErr is set when a passing check could not rewrite the
	// baseline. It does not change the outcome.
	BaselineErr error
}

// OK reports whether the check lets the run succeed.
func (o Outcome) OK() bool {
	return o.State != StateFailed
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Transitions = append(o.Transitions, s)
}

// Watermark ratchets complexity against a stored baseline. Functions over the
// threshold are tolerated only if the baseline already recorded them at the
// same or higher complexity.
type Watermark struct {
	Enabled    bool
	Path       string
	MaxAllowed uint32
	// Incomplete marks results missing inputs that could not be analyzed.
	// A passing check then leaves the baseline untouched so their entries
	// survive.
	Incomplete bool
}

// Check compares files against the baseline. On success the baseline is
// rewritten from files unless the results are incomplete; a failed check
// leaves it untouched.
func (w Watermark) Check(files []models.FileComplexity) Outcome {
	var out Outcome
	if !w.Enabled {
		out.enter(StateIgnored)
		return out
	}

	if !Exists(w.Path) {
		out.enter(StateNoBaseline)
		out.enter(StateFailed)
		out.Messages = []string{msgNoBaseline}
		return out
	}

	snap, err := Load(w.Path)
	if err != nil {
		out.enter(StateFailed)
		if errors.Is(err, ErrLegacySnapshot) || errors.Is(err, ErrSnapshotCorrupt) {
			slog.Debug("rejected snapshot", "path", w.Path, "error", err)
			out.Messages = []string{msgLegacy}
		} else {
			out.Messages = []string{fmt.Sprintf("Failed to read snapshot file %s: %v", w.Path, err)}
		}
		return out
	}

	out.enter(StateComparing)
	if violations := Violations(snap, w.MaxAllowed, files); len(violations) > 0 {
		out.enter(StateFailed)
		out.Messages = violations
		return out
	}

	out.enter(StatePassed)
	if w.Incomplete {
		slog.Debug("snapshot baseline kept, results are incomplete", "path", w.Path)
		return out
	}
	if err := Save(w.Path, w.MaxAllowed, files); err != nil {
		slog.Warn("could not update snapshot baseline", "path", w.Path, "error", err)
		out.BaselineErr = err
	}
	return out
}

// Violations lists the functions over maxAllowed that are either missing
// from snap or worse than recorded, in result order.
func Violations(snap Snapshot, maxAllowed uint32, files []models.FileComplexity) []string {
	var violations []string
	for _, f := range files {
		for _, fn := range f.Over(maxAllowed) {
			key := f.Key(fn.Name)
			prev, ok := snap.Lookup(key)
			switch {
			case !ok:
				violations = append(violations,
					fmt.Sprintf("%s exceeds %d but was not part of the snapshot.", key, maxAllowed))
			case fn.Complexity > prev:
				violations = append(violations,
					fmt.Sprintf("%s increased from %d to %d.", key, prev, fn.Complexity))
			}
		}
	}
	return violations
}

// Grandfathered reports whether a function over the threshold is tolerated
// because snap recorded it at the same or higher complexity.
func (s Snapshot) Grandfathered(key models.FunctionKey, complexity uint32) bool {
	prev, ok := s.Lookup(key)
	return ok && complexity <= prev
}
