//go:build !integration

package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// infoReply assembles an S2A_INFO packet the way a Source server would.
func infoReply(name, mapName, folder, game string, players, max byte) []byte {
	pkt := []byte{0xFF, 0xFF, 0xFF, 0xFF, a2sHeaderInfo, 0x11}
	for _, s := range []string{name, mapName, folder, game} {
		pkt = append(pkt, []byte(s)...)
		pkt = append(pkt, 0x00)
	}
	pkt = append(pkt, 0x52, 0x0F) // appid
	pkt = append(pkt, players, max)
	return pkt
}

func TestParseInfoReply(t *testing.T) {
	t.Run("should decode player counts from a valid reply", func(t *testing.T) {
		pkt := infoReply("Hostile Rust #1", "Procedural Map", "rust", "Rust", 87, 200)

		status, err := parseInfoReply(pkt)
		if err != nil {
			t.Fatalf("parseInfoReply: %v", err)
		}
		if !status.Online {
			t.Fatal("expected online status")
		}
		if status.Players != 87 || status.MaxPlayers != 200 {
			t.Fatalf("expected 87/200, got %d/%d", status.Players, status.MaxPlayers)
		}
	})

	t.Run("should decode an empty server", func(t *testing.T) {
		pkt := infoReply("Hostile Rust #2", "Procedural Map", "rust", "Rust", 0, 150)

		status, err := parseInfoReply(pkt)
		if err != nil {
			t.Fatalf("parseInfoReply: %v", err)
		}
		if status.Players != 0 || status.MaxPlayers != 150 {
			t.Fatalf("expected 0/150, got %d/%d", status.Players, status.MaxPlayers)
		}
	})

	t.Run("should reject a truncated packet", func(t *testing.T) {
		if _, err := parseInfoReply([]byte{0xFF, 0xFF, 0xFF}); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("should reject a wrong response header", func(t *testing.T) {
		pkt := infoReply("srv", "map", "rust", "Rust", 1, 2)
		pkt[4] = a2sHeaderChallenge
		if _, err := parseInfoReply(pkt); err == nil {
			t.Fatal("expected an error for a non-info header")
		}
	})

	t.Run("should reject a packet without the prefix", func(t *testing.T) {
		pkt := infoReply("srv", "map", "rust", "Rust", 1, 2)
		pkt[0] = 0x00
		if _, err := parseInfoReply(pkt); err == nil {
			t.Fatal("expected an error for a bad prefix")
		}
	})

	t.Run("should reject a reply cut inside the string block", func(t *testing.T) {
		pkt := []byte{0xFF, 0xFF, 0xFF, 0xFF, a2sHeaderInfo, 0x11}
		pkt = append(pkt, []byte("Hostile Rust #1")...) // no terminator, nothing after
		if _, err := parseInfoReply(pkt); err == nil {
			t.Fatal("expected an error for missing string terminators")
		}
	})

	t.Run("should reject a reply cut before the count bytes", func(t *testing.T) {
		pkt := []byte{0xFF, 0xFF, 0xFF, 0xFF, a2sHeaderInfo, 0x11}
		for _, s := range []string{"srv", "map", "rust", "Rust"} {
			pkt = append(pkt, []byte(s)...)
			pkt = append(pkt, 0x00)
		}
		pkt = append(pkt, 0x52) // appid truncated, counts missing
		if _, err := parseInfoReply(pkt); err == nil {
			t.Fatal("expected an error for missing count bytes")
		}
	})
}

func TestProbe(t *testing.T) {
	t.Run("should collapse an unreachable server to offline", func(t *testing.T) {
		logger := zerolog.Nop()
		probe := NewA2SProbe(200*time.Millisecond, &logger)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		status := probe.Probe(ctx, "127.0.0.1:1") // nothing listens here
		if status.Online {
			t.Fatal("expected offline status for an unreachable address")
		}
	})
}
