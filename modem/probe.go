package modem

import (
	"context"
	"errors"
	"fmt"

	"i4.energy/across/atprobe/at"
)

// Reporter receives the output of a sequence as it happens.
type Reporter interface {
	// Block reports the reply lines of one command under a title.
	Block(title string, lines []string)
	// Notef reports a progress message.
	Notef(format string, args ...any)
}

// ProbeResults maps each probe command to its reply lines.
type ProbeResults map[string][]string

// ProbeAll issues every at.ProbeCommands query in order and reports each
// reply as soon as it arrives. A failing command is reported without a reply
// and does not stop the sequence; only cancellation of ctx does.
func (m *Modem) ProbeAll(ctx context.Context, r Reporter) (ProbeResults, error) {
	cmds := at.ProbeCommands()
	results := make(ProbeResults, len(cmds))

	for _, cmd := range cmds {
		lines, err := m.Send(ctx, cmd.Text)
		if err != nil {
			if isFatal(ctx, err) {
				return results, err
			}
			m.logger.Warn("Probe command failed", "cmd", cmd.Text, "error", err)
			lines = nil
		}

		results[cmd.Text] = lines
		r.Block(fmt.Sprintf("%s  (%s)", cmd.Text, cmd.Description), lines)
	}

	return results, nil
}

// isFatal reports whether err from Send means no further command can
// succeed.
func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, ErrAlreadyClosed) ||
		errors.Is(err, ErrNotInitialized)
}
