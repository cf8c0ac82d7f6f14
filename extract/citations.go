package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/index"
)

// resolveCitations maps the model's citation strings onto indexed
// chunks. Two forms are accepted: a full chunk ID ("chunk_3_ab12cd34")
// or a "doc_id:chunk_idx" pair. Citations that match nothing in the
// index are dropped; a citation must point at real evidence to survive.
func resolveCitations(cites []string, ix *index.Index) []core.Citation {
	if len(cites) == 0 || ix == nil {
		return nil
	}

	var out []core.Citation
	for _, c := range cites {
		if meta, ok := ix.LookupID(c); ok {
			out = append(out, core.Citation{
				ChunkID:  c,
				DocID:    meta.DocID,
				ChunkIdx: meta.ChunkIdx,
				SHA1:     meta.SHA1,
				Label:    citationLabel(meta.DocID, meta.ChunkIdx),
			})
			continue
		}

		doc, pos, found := strings.Cut(c, ":")
		if !found {
			continue
		}
		idx, err := strconv.Atoi(pos)
		if err != nil {
			continue
		}
		if chunkID, meta, ok := ix.Find(doc, idx); ok {
			out = append(out, core.Citation{
				ChunkID:  chunkID,
				DocID:    meta.DocID,
				ChunkIdx: meta.ChunkIdx,
				SHA1:     meta.SHA1,
				Label:    citationLabel(meta.DocID, meta.ChunkIdx),
			})
		}
	}
	return out
}

func citationLabel(docID string, chunkIdx int) string {
	return fmt.Sprintf("%s:%d", docID, chunkIdx)
}
