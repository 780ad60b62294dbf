package transfer

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

type reasonJob struct {
	out contracts.ScoredPlayer
	in  contracts.ScoredPlayer
}

// attachReasons issues one call per swap concurrently and writes results
// back in suggestion order. A failed call leaves that reason empty.
func (a *Analyzer) attachReasons(ctx context.Context, analysis *contracts.SquadAnalysis) {
	jobs := make([]reasonJob, 0, len(analysis.Transfers)+2)
	for _, t := range analysis.Transfers {
		jobs = append(jobs, reasonJob{out: t.Out, in: t.In})
	}
	if dt := analysis.DoubleTransfer; dt != nil {
		jobs = append(jobs,
			reasonJob{out: dt.Out[0], in: dt.In[0]},
			reasonJob{out: dt.Out[1], in: dt.In[1]},
		)
	}
	if len(jobs) == 0 {
		return
	}

	reasons := make([]string, len(jobs))

	// errgroup.Group without context: one failure never cancels the rest
	var eg errgroup.Group
	if a.cfg.ReasoningConcurrency > 0 {
		eg.SetLimit(a.cfg.ReasoningConcurrency)
	}
	for i, job := range jobs {
		i, job := i, job
		eg.Go(func() error {
			text, err := a.reasoner.Reason(ctx, job.out, job.in)
			if err != nil {
				a.log.WithFields(map[string]interface{}{
					"out": job.out.ID,
					"in":  job.in.ID,
				}).WithError(err).Warn("reasoning failed")
				if a.recorder != nil {
					a.recorder.ReasoningFailed()
				}
				return nil
			}
			reasons[i] = strings.TrimSpace(text)
			return nil
		})
	}
	_ = eg.Wait()

	for i := range analysis.Transfers {
		analysis.Transfers[i].Reason = reasons[i]
	}
	if dt := analysis.DoubleTransfer; dt != nil {
		base := len(analysis.Transfers)
		var parts []string
		for _, r := range reasons[base : base+2] {
			if r != "" {
				parts = append(parts, r)
			}
		}
		dt.Reason = strings.Join(parts, " ")
	}
}
