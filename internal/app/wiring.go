package service

import (
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/consensus"
	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/extract"
	"github.com/okian/rollcall/internal/domain/naming"
	"github.com/okian/rollcall/internal/domain/pipeline"
	"github.com/okian/rollcall/pkg/logger"
)

// PipelineOptions translates the configured thresholds into pipeline options.
func PipelineOptions(cfg *config.Config, log logger.Logger) []pipeline.Option {
	cleaner := naming.NewCleaner(cfg.AllianceTags...)

	layout := extract.DefaultLayout()
	layout.MaxRank = cfg.MaxRank
	layout.RankLineTolerance = cfg.RankLineTolerance
	layout.ScoreWindow = cfg.ScoreWindow
	layout.StickyFraction = cfg.StickyFraction
	layout.FragmentGap = cfg.FragmentGap

	return []pipeline.Option{
		pipeline.WithExtractor(extract.New(
			extract.WithLayout(layout),
			extract.WithCleaner(cleaner),
			extract.WithMinConfidence(cfg.NameMinConfidence),
		)),
		pipeline.WithResolver(dedupe.NewResolver(dedupe.WithThresholds(dedupe.Thresholds{
			Exact:          cfg.DupExactSimilarity,
			Strong:         cfg.DupStrongSimilarity,
			Weak:           cfg.DupWeakSimilarity,
			ScoreTolerance: cfg.DupScoreTolerance,
		}))),
		pipeline.WithIndexOptions(
			naming.WithMatchThreshold(cfg.MatchThreshold),
			naming.WithCleaner(cleaner),
		),
		pipeline.WithPolicy(consensus.Policy{
			AgreementTolerance: cfg.AgreementTolerance,
			ConfidenceStep:     cfg.ConfidenceStep,
			MaxConfidence:      cfg.MaxDataConfidence,
		}),
		pipeline.WithLogger(log.Named("pipeline")),
	}
}
