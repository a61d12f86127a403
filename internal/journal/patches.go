package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// patchContentHash computes the tamper-evidence hash over the patch content.
// The hash covers every operator-supplied field plus the timestamp, so any
// later modification of the stored record is detectable.
func patchContentHash(p HumanPatch) string {
	h := sha256.New()
	for _, part := range []string{
		p.ID,
		p.PatchedBy,
		p.EvidenceHash,
		p.Role,
		p.Field,
		p.OriginalValue,
		p.CorrectedValue,
		p.Reason,
		string(p.Kind),
		p.CreatedAt.UTC().Format(time.RFC3339Nano),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyPatch recomputes the content hash and reports whether it matches the
// stored tamper-evidence hash.
func VerifyPatch(p HumanPatch) bool {
	return p.ContentHash != "" && p.ContentHash == patchContentHash(p)
}

// AddHumanPatch stamps and appends a field-level correction. The original
// value is always retained alongside the correction. No-ops with a
// diagnostic if no run is active.
func (j *Journal) AddHumanPatch(p HumanPatch) *HumanPatch {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.current
	if run == nil {
		j.degraded("add_human_patch", p.Field)
		return nil
	}

	if p.ID == "" {
		p.ID = "patch-" + uuid.NewString()[:8]
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Kind == "" {
		p.Kind = PatchCorrection
	}
	p.ContentHash = patchContentHash(p)

	run.Patches = append(run.Patches, p)
	j.persistRun()
	return &run.Patches[len(run.Patches)-1]
}

// CorrectField records a correction of one extracted field.
func (j *Journal) CorrectField(patchedBy, evidenceHash, role, field, original, corrected, reason string) *HumanPatch {
	return j.AddHumanPatch(HumanPatch{
		PatchedBy:      patchedBy,
		EvidenceHash:   evidenceHash,
		Role:           role,
		Field:          field,
		OriginalValue:  original,
		CorrectedValue: corrected,
		Reason:         reason,
		Kind:           PatchCorrection,
	})
}

// AddContext records supplementary operator context for a field.
func (j *Journal) AddContext(patchedBy, role, field, context string) *HumanPatch {
	return j.AddHumanPatch(HumanPatch{
		PatchedBy:      patchedBy,
		Role:           role,
		Field:          field,
		CorrectedValue: context,
		Kind:           PatchContext,
	})
}

// FlagForReview marks a field as needing later review without changing it.
func (j *Journal) FlagForReview(patchedBy, role, field, reason string) *HumanPatch {
	return j.AddHumanPatch(HumanPatch{
		PatchedBy: patchedBy,
		Role:      role,
		Field:     field,
		Reason:    strings.TrimSpace(reason),
		Kind:      PatchFlag,
	})
}
