package ports

import (
	"context"

	"goqc/domain/core"
	"goqc/domain/qc"
)

// VerdictRepository defines the interface for verdict persistence.
// Verdicts are keyed by section plus (where applicable) protocol; a
// later save for the same key replaces the earlier verdict.
type VerdictRepository interface {
	Save(ctx context.Context, verdict qc.Verdict) error
	Get(ctx context.Context, section core.SectionID, protocol core.ProtocolID) (*qc.Verdict, error)
	ListBySection(ctx context.Context, section core.SectionID) ([]qc.Verdict, error)
	ListAll(ctx context.Context) ([]qc.Verdict, error)
	Delete(ctx context.Context, section core.SectionID, protocol core.ProtocolID) error
}
