// File: internal/infra/adapters/gameserver/a2s_probe.go
package gameserver

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"

	"hostilerust-bot/internal/domain/model"
	"hostilerust-bot/internal/domain/ports/adapter"
)

var _ adapter.GameServerProbe = (*A2SProbe)(nil)

// a2sInfoRequest is the Source engine A2S_INFO query payload.
var a2sInfoRequest = []byte("\xFF\xFF\xFF\xFFTSource Engine Query\x00")

const (
	a2sHeaderInfo      = 0x49 // S2A_INFO reply
	a2sHeaderChallenge = 0x41 // server demands a challenge round-trip first
)

// A2SProbe queries Source-engine game servers over UDP.
//
// Probe never surfaces an error: any dial, timeout or parse failure collapses
// to ServerStatus{Online: false}, logged at debug level only. Offline servers
// are an expected steady state, not an operational fault.
type A2SProbe struct {
	timeout time.Duration
	log     *zerolog.Logger
}

func NewA2SProbe(timeout time.Duration, logger *zerolog.Logger) *A2SProbe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &A2SProbe{timeout: timeout, log: logger}
}

func (p *A2SProbe) Probe(ctx context.Context, address string) model.ServerStatus {
	status, err := p.query(ctx, address)
	if err != nil {
		p.log.Debug().Err(err).Str("address", address).Msg("server probe failed")
		return model.ServerStatus{Online: false}
	}
	return status
}

func (p *A2SProbe) query(ctx context.Context, address string) (model.ServerStatus, error) {
	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", address)
	if err != nil {
		return model.ServerStatus{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return model.ServerStatus{}, err
	}

	if _, err := conn.Write(a2sInfoRequest); err != nil {
		return model.ServerStatus{}, err
	}

	buf := make([]byte, 1400)
	n, err := conn.Read(buf)
	if err != nil {
		return model.ServerStatus{}, err
	}

	// Modern servers answer the bare query with a challenge token that must
	// be echoed back on a second request.
	if n >= 9 && buf[4] == a2sHeaderChallenge {
		retry := append(append([]byte{}, a2sInfoRequest...), buf[5:9]...)
		if _, err := conn.Write(retry); err != nil {
			return model.ServerStatus{}, err
		}
		n, err = conn.Read(buf)
		if err != nil {
			return model.ServerStatus{}, err
		}
	}

	return parseInfoReply(buf[:n])
}

// parseInfoReply extracts player counts from an S2A_INFO payload. Only the
// fields the bot displays are decoded; the rest of the packet is skipped.
func parseInfoReply(pkt []byte) (model.ServerStatus, error) {
	if len(pkt) < 6 || !bytes.HasPrefix(pkt, []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		return model.ServerStatus{}, errMalformedReply
	}
	if pkt[4] != a2sHeaderInfo {
		return model.ServerStatus{}, errMalformedReply
	}

	// Layout after the header byte: protocol(1), then four null-terminated
	// strings (name, map, folder, game), then appid(2), players(1), max(1).
	rest := pkt[6:]
	for i := 0; i < 4; i++ {
		idx := bytes.IndexByte(rest, 0x00)
		if idx < 0 {
			return model.ServerStatus{}, errMalformedReply
		}
		rest = rest[idx+1:]
	}
	if len(rest) < 4 {
		return model.ServerStatus{}, errMalformedReply
	}

	return model.ServerStatus{
		Online:     true,
		Players:    int(rest[2]),
		MaxPlayers: int(rest[3]),
	}, nil
}

type probeError string

func (e probeError) Error() string { return string(e) }

const errMalformedReply = probeError("malformed a2s info reply")
