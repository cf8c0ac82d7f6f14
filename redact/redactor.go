package redact

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"golang.org/x/text/unicode/norm"

	"github.com/poiesic/groundwork/core"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	idPattern    = regexp.MustCompile(`(?i)\b(?:ssn|ein|tax|acct|iban|swift)[:\s]*[A-Za-z0-9\-]+\b`)
	geoPattern   = regexp.MustCompile(`(?i)\b(?:lat|lon|lng|latitude|longitude)[:\s]*-?\d+(\.\d+)?\b`)
	tokenPattern = regexp.MustCompile(`\b[0-9A-Fa-f]{8,}\b`)
)

// Normalize canonicalizes raw text: Unicode NFC plus surrounding
// whitespace trim. Pure and total; safe on empty input.
func Normalize(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}

// Redactor masks PII-like patterns according to a sensitivity zone.
// The zone and salt are fixed at construction and treated as immutable
// configuration for the lifetime of the process.
type Redactor struct {
	zone core.Zone
	salt string
}

// New creates a Redactor for the given zone. The salt only affects
// ZoneRed hashed placeholders; it may be empty.
func New(zone core.Zone, salt string) *Redactor {
	return &Redactor{zone: zone, salt: salt}
}

// Zone returns the sensitivity zone this redactor was built with.
func (r *Redactor) Zone() core.Zone {
	return r.zone
}

// Redact applies the zone policy to text. Deterministic for a fixed
// zone and salt.
func (r *Redactor) Redact(text string) string {
	switch r.zone {
	case core.ZoneAmber:
		return amber(text)
	case core.ZoneRed:
		return red(text, r.salt)
	default:
		return green(text)
	}
}

func green(text string) string {
	text = emailPattern.ReplaceAllString(text, "<email>")
	text = phonePattern.ReplaceAllString(text, "<phone>")
	return text
}

func amber(text string) string {
	text = green(text)
	return idPattern.ReplaceAllString(text, "<id>")
}

func red(text, salt string) string {
	// The hex-run sweep must run before hashing: the inserted hashes are
	// themselves 8 hex chars and would otherwise be collapsed to <token>.
	text = idPattern.ReplaceAllString(text, "<id:hash>")
	text = geoPattern.ReplaceAllString(text, "<geo>")
	text = tokenPattern.ReplaceAllString(text, "<token>")
	text = emailPattern.ReplaceAllStringFunc(text, func(m string) string {
		return "<email:" + saltedHash(m, salt) + ">"
	})
	return phonePattern.ReplaceAllStringFunc(text, func(m string) string {
		return "<phone:" + saltedHash(m, salt) + ">"
	})
}

// saltedHash returns the first 8 hex characters of a salted BLAKE2b
// digest. Stable for a fixed salt, not reversible without it.
func saltedHash(value, salt string) string {
	h, _ := blake2b.New(4, nil) // 4 bytes = 8 hex chars
	h.Write([]byte(salt))
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}
