// Package codegen derives short codes from numeric seeds.
//
// A code is the base62 rendering of a seed, passed through HMAC-SHA256 keyed
// with a server secret, re-encoded in base62 and cut to the configured length.
// Without the secret, codes cannot be predicted from the seed.
package codegen

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"math/big"
	"strings"
	"sync/atomic"
	"time"
)

// Alphabet is the base62 digit set, in digit order.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	MinLength     = 4
	MaxLength     = 10
	DefaultLength = 7
)

var ErrEmptySecret = errors.New("codegen: secret must not be empty")

var base = big.NewInt(int64(len(Alphabet)))

// EncodeBase62 renders n in base62. Zero encodes to "0".
func EncodeBase62(n uint64) string {
	if n == 0 {
		return Alphabet[:1]
	}
	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = Alphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}

func encodeBig(n *big.Int) string {
	if n.Sign() == 0 {
		return Alphabet[:1]
	}
	var sb []byte
	v := new(big.Int).Set(n)
	mod := new(big.Int)
	for v.Sign() > 0 {
		v.DivMod(v, base, mod)
		sb = append(sb, Alphabet[mod.Int64()])
	}
	for i, j := 0, len(sb)-1; i < j; i, j = i+1, j-1 {
		sb[i], sb[j] = sb[j], sb[i]
	}
	return string(sb)
}

// Generator produces codes of a fixed length. It is safe for concurrent use.
type Generator struct {
	secret []byte
	length int
}

// New returns a Generator. Length is clamped to [MinLength, MaxLength]; zero
// selects DefaultLength.
func New(secret string, length int) (*Generator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	switch {
	case length == 0:
		length = DefaultLength
	case length < MinLength:
		length = MinLength
	case length > MaxLength:
		length = MaxLength
	}
	return &Generator{secret: []byte(secret), length: length}, nil
}

// Length returns the length of every code this generator produces.
func (g *Generator) Length() int {
	return g.length
}

// Generate is a pure function of the seed and the secret.
func (g *Generator) Generate(seed uint64) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(EncodeBase62(seed)))
	digest := new(big.Int).SetBytes(mac.Sum(nil))

	encoded := encodeBig(digest)
	if len(encoded) < g.length {
		encoded = strings.Repeat(Alphabet[:1], g.length-len(encoded)) + encoded
	}
	// Low-order digits are uniform over the alphabet.
	return encoded[len(encoded)-g.length:]
}

// IsValid reports whether code has an allowed length and only base62 digits.
// It does not check the generator's configured length, so codes issued under
// an older setting stay resolvable.
func IsValid(code string) bool {
	if len(code) < MinLength || len(code) > MaxLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// SeedSource supplies seeds for code generation. Each attempt takes a fresh seed.
type SeedSource interface {
	Next() uint64
}

// CounterSeed is a process-local monotonic counter started from the wall clock,
// so restarts do not replay the seeds of a previous run.
type CounterSeed struct {
	n atomic.Uint64
}

func NewCounterSeed() *CounterSeed {
	s := &CounterSeed{}
	s.n.Store(uint64(time.Now().UnixNano()))
	return s
}

func (s *CounterSeed) Next() uint64 {
	return s.n.Add(1)
}

// SeedFunc adapts a function to SeedSource.
type SeedFunc func() uint64

func (f SeedFunc) Next() uint64 { return f() }
