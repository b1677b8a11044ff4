package modem

import (
	"context"
	"strings"
	"time"

	"i4.energy/across/atprobe/at"
)

const (
	defineContextWait = 300 * time.Millisecond
	attachWait        = time.Second
	activateWait      = time.Second
	addressWait       = 500 * time.Millisecond
	// stepSettle is slept after attaching and after activating.
	stepSettle = time.Second
)

// ConfigureAPN defines PDP context 1 with apn, attaches to the packet domain
// if the modem does not report being attached, activates the context and
// returns the reply to the address query.
//
// Replies are reported but never validated: a step answered with ERROR does
// not stop the remaining steps. Only cancellation of ctx or an unusable
// session ends the sequence early.
func (m *Modem) ConfigureAPN(ctx context.Context, apn string, r Reporter) ([]string, error) {
	r.Notef("Setting APN: %s", apn)

	lines, err := m.step(ctx, at.DefineContext(apn), defineContextWait)
	if err != nil {
		return nil, err
	}
	r.Block("AT+CGDCONT", lines)

	lines, err = m.step(ctx, at.CmdAttachStatus, DefaultWait)
	if err != nil {
		return nil, err
	}
	r.Block("AT+CGATT? (before)", lines)

	if !IsAttached(lines) {
		r.Notef("Attaching: %s", at.CmdAttach)
		lines, err = m.step(ctx, at.CmdAttach, attachWait)
		if err != nil {
			return nil, err
		}
		r.Block(at.CmdAttach, lines)
		if err := m.sleep(ctx, stepSettle); err != nil {
			return nil, err
		}
	}

	r.Notef("Activating PDP context: %s", at.CmdActivatePDP)
	lines, err = m.step(ctx, at.CmdActivatePDP, activateWait)
	if err != nil {
		return nil, err
	}
	r.Block(at.CmdActivatePDP, lines)
	if err := m.sleep(ctx, stepSettle); err != nil {
		return nil, err
	}

	lines, err = m.step(ctx, at.CmdPDPAddress, addressWait)
	if err != nil {
		return nil, err
	}
	r.Block("AT+CGPADDR (after activation)", lines)

	return lines, nil
}

// step sends one command of the APN sequence. Write failures are logged and
// treated as an empty reply so the sequence carries on.
func (m *Modem) step(ctx context.Context, cmd string, wait time.Duration) ([]string, error) {
	lines, err := m.Send(ctx, cmd, WithWait(wait))
	if err == nil {
		return lines, nil
	}
	if isFatal(ctx, err) {
		return nil, err
	}
	m.logger.Warn("APN step failed", "cmd", cmd, "error", err)
	return nil, nil
}

// IsAttached reports whether an AT+CGATT? reply confirms the packet domain
// is attached.
//
// Only plain substring tests are applied: any line mentioning +CGATT that
// contains a "0" means detached, and at least one such line must contain a
// "1".
func IsAttached(lines []string) bool {
	confirmed := false
	for _, l := range lines {
		if !strings.Contains(l, at.AttachField) {
			continue
		}
		if strings.Contains(l, "0") {
			return false
		}
		if strings.Contains(l, "1") {
			confirmed = true
		}
	}
	return confirmed
}
