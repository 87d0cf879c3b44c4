// Package detrand implements a deterministic, reproducible RNG: a seed
// derived from (session_seed, bank_hash, constants_profile) drives a
// ChaCha20 counter-mode keystream, which in turn produces a sequence of
// uniform 64-bit words. Everything downstream (schedule building, sibling
// tie-break, finalize) derives only from this stream, never from
// wall-clock or goroutine scheduling, so that a finalized snapshot can
// always be reproduced exactly from its recorded seed.
package detrand

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// Stream is a single-threaded, deterministic source of uniform 64-bit words.
// A Stream must not be shared across goroutines — it is kept session-local
// for exactly this reason.
type Stream struct {
	seed     [32]byte
	cipher   *chacha20.Cipher
	buf      [64]byte // one chacha20 block; refilled lazily
	pos      int
	consumed uint64 // count of 64-bit words drawn, for Snapshot
}

// DeriveSeed computes SHA-256(session_seed || "|" || bank_hash || "|" ||
// constants_profile), a 32-byte digest binding the stream to exactly one
// session, bank artifact, and constants profile.
func DeriveSeed(sessionSeed, bankHash, constantsProfile string) [32]byte {
	h := sha256.New()
	h.Write([]byte(sessionSeed))
	h.Write([]byte("|"))
	h.Write([]byte(bankHash))
	h.Write([]byte("|"))
	h.Write([]byte(constantsProfile))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// New constructs a Stream from a 32-byte seed. The nonce is fixed at zero:
// determinism comes entirely from the seed (the key), and a Stream is
// never reused across two different seeds, so nonce reuse is not a concern
// here the way it would be for encryption.
func New(seed [32]byte) *Stream {
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// seed is always exactly 32 bytes and the nonce exactly 12 zero
		// bytes; this can only fail if those constants change.
		panic("detrand: invalid chacha20 parameters: " + err.Error())
	}
	s := &Stream{seed: seed, cipher: cipher}
	s.pos = len(s.buf) // force a fill on first use
	return s
}

func (s *Stream) nextBytes(n int) []byte {
	out := make([]byte, n)
	filled := 0
	for filled < n {
		if s.pos >= len(s.buf) {
			var zero [64]byte
			s.cipher.XORKeyStream(s.buf[:], zero[:])
			s.pos = 0
		}
		c := copy(out[filled:], s.buf[s.pos:])
		s.pos += c
		filled += c
	}
	return out
}

// Uniform64 returns the next uniform, unbiased 64-bit word in the stream.
func (s *Stream) Uniform64() uint64 {
	s.consumed++
	return binary.LittleEndian.Uint64(s.nextBytes(8))
}

// Bounded returns a uniform value in [0, n) via rejection sampling, avoiding
// modulo bias. n must be in (0, 2^63].
func (s *Stream) Bounded(n uint64) uint64 {
	if n == 0 {
		panic("detrand: Bounded(0)")
	}
	if n&(n-1) == 0 {
		// power of two: no rejection needed
		return s.Uniform64() & (n - 1)
	}
	limit := (^uint64(0)) - (^uint64(0))%n
	for {
		v := s.Uniform64()
		if v < limit {
			return v % n
		}
	}
}

// Shuffle permutes seq in place using Fisher-Yates driven by Bounded.
func Shuffle[T any](s *Stream, seq []T) {
	for i := len(seq) - 1; i > 0; i-- {
		j := s.Bounded(uint64(i + 1))
		seq[i], seq[j] = seq[j], seq[i]
	}
}

// Choice returns a uniformly selected element of seq. seq must be non-empty.
func Choice[T any](s *Stream, seq []T) T {
	idx := s.Bounded(uint64(len(seq)))
	return seq[idx]
}

// State is the serializable snapshot of a Stream: the original seed plus
// how many 64-bit words have been consumed. Session persistence replays
// the stream to the same position rather than trying to serialize
// chacha20's internal counter directly.
type State struct {
	Seed          [32]byte
	WordsConsumed uint64
}

// Snapshot captures the Stream's current position.
func (s *Stream) Snapshot() State {
	return State{Seed: s.seed, WordsConsumed: s.consumed}
}

// Restore rebuilds a Stream at the exact position State describes.
func Restore(st State) *Stream {
	s := New(st.Seed)
	for i := uint64(0); i < st.WordsConsumed; i++ {
		s.Uniform64()
	}
	return s
}
