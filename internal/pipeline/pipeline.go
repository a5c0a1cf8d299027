// Package pipeline sequences the per-image transform stages and manages
// buffer movement between host and device memory. Images in a batch are
// processed strictly sequentially; the first error aborts the batch.
package pipeline

import (
	"fmt"

	"github.com/cwbudde/photoprep/internal/engine"
	"github.com/cwbudde/photoprep/internal/pix"
)

// Pipeline runs a fixed stage sequence on one compute engine.
type Pipeline struct {
	eng    engine.Engine
	stages []Stage
}

// New creates a pipeline. With no stages given, the default production
// sequence is used.
func New(eng engine.Engine, stages ...Stage) *Pipeline {
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	return &Pipeline{eng: eng, stages: stages}
}

// Stages returns the configured stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return names
}

// Process runs all stages over one host image and returns the final host
// buffer. Every device buffer acquired along the way is released on every
// exit path, including errors.
func (p *Pipeline) Process(src *pix.Buffer) (*pix.Buffer, error) {
	cur, err := p.eng.Upload(src)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	// Buffer Release is idempotent, so the deferred release is safe even
	// after the happy-path release below.
	defer func() {
		if cur != nil {
			cur.Release()
		}
	}()

	for _, st := range p.stages {
		next, err := st.Run(p.eng, cur)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		if next != cur {
			cur.Release()
			cur = next
		}

		if st.HostSync {
			host, err := p.eng.Download(cur)
			if err != nil {
				return nil, fmt.Errorf("stage %s: download: %w", st.Name, err)
			}
			cur.Release()
			cur, err = p.eng.Upload(host)
			if err != nil {
				cur = nil
				return nil, fmt.Errorf("stage %s: re-upload: %w", st.Name, err)
			}
		}
	}

	out, err := p.eng.Download(cur)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	cur.Release()
	cur = nil
	return out, nil
}
