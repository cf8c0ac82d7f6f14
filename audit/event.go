package audit

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"

	"github.com/poiesic/groundwork/core"
)

// hashWindow bounds how much of the input feeds the hash, mirroring the
// truncation applied to prompts.
const hashWindow = 2000

// Event is one terminal transition of the extraction pipeline. It never
// carries raw input text, only its hash, so the trail stays
// privacy-preserving.
type Event struct {
	Name      string          `json:"name"`
	At        time.Time       `json:"at"`
	SrcHash   string          `json:"src_hash"`
	OK        bool            `json:"ok"`
	Abstained bool            `json:"abstained"`
	Reasons   []string        `json:"reasons,omitempty"`
	Model     string          `json:"model"`
	Usage     core.TokenUsage `json:"usage"`
	Keys      []string        `json:"keys,omitempty"`
}

// HashInput returns a short, stable hash of the input text. Only the
// first hashWindow bytes contribute, matching the prompt truncation.
func HashInput(text string) string {
	if len(text) > hashWindow {
		text = text[:hashWindow]
	}
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
