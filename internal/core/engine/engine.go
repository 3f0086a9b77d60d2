// Package engine runs the reconciliation pipeline: collect and normalize,
// compare every field group, evaluate every rule, then aggregate.
package engine

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/codematch"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/matcher"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/report"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/rules"
)

// Options is the configuration surface of the engine. Every field is
// optional; zero values fall back to the built-in defaults.
type Options struct {
	Region             string                         `json:"region" yaml:"region"`
	ToleranceOverrides map[string]domain.Tolerance    `json:"toleranceOverrides" yaml:"toleranceOverrides"`
	CriticalFields     []string                       `json:"criticalFieldAllowlist" yaml:"criticalFieldAllowlist"`
	AuthorityTable     map[string]domain.DocumentType `json:"authorityTable" yaml:"authorityTable"`
	CriticalWeight     float64                        `json:"criticalWeight" yaml:"criticalWeight"`
	Scaling            matcher.Scaling                `json:"scaling" yaml:"scaling"`
	CodeWeights        codematch.Weights              `json:"codeWeights" yaml:"codeWeights"`
	Thresholds         rules.Thresholds               `json:"thresholds" yaml:"thresholds"`
	// Workers bounds the fan-out; zero means one goroutine per task.
	Workers int `json:"workers" yaml:"workers"`
}

func DefaultOptions() Options {
	return Options{
		CriticalFields: registry.DefaultCriticalGroups(),
		AuthorityTable: registry.DefaultAuthorityTable(),
		CriticalWeight: 3,
		Scaling:        matcher.DefaultScaling(),
		CodeWeights:    codematch.DefaultWeights(),
		Thresholds:     rules.DefaultThresholds(),
	}
}

// withDefaults fills every unset option from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.CriticalFields == nil {
		o.CriticalFields = def.CriticalFields
	}
	if o.AuthorityTable == nil {
		o.AuthorityTable = def.AuthorityTable
	}
	if o.CriticalWeight <= 0 {
		o.CriticalWeight = def.CriticalWeight
	}
	if o.Scaling == (matcher.Scaling{}) {
		o.Scaling = def.Scaling
	}
	if o.CodeWeights == (codematch.Weights{}) {
		o.CodeWeights = def.CodeWeights
	}
	if o.Thresholds == (rules.Thresholds{}) {
		o.Thresholds = def.Thresholds
	}
	return o
}

// Engine is stateless across calls and safe for concurrent use.
type Engine struct {
	reg     *registry.Registry
	matcher *matcher.Matcher
	rules   []rules.Rule
	builder *report.Builder
	workers int
}

// New builds an engine over reg with the given options. Unknown groups or
// document types in the options are rejected with domain.ErrInvalidInput.
func New(reg *registry.Registry, opts Options) (*Engine, error) {
	if reg == nil {
		reg = registry.Default()
	}
	opts = opts.withDefaults()

	for _, id := range opts.CriticalFields {
		if _, ok := reg.Group(id); !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "engine.new", fmt.Errorf("critical field %q is not a known group", id))
		}
	}
	for id, docType := range opts.AuthorityTable {
		if _, ok := reg.Group(id); !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "engine.new", fmt.Errorf("authority entry %q is not a known group", id))
		}
		if !docType.Valid() || docType == domain.DocUnknown {
			return nil, domain.WrapError(domain.ErrInvalidInput, "engine.new", fmt.Errorf("authority entry %q names document type %q", id, docType))
		}
	}
	if len(opts.ToleranceOverrides) > 0 {
		tuned, err := reg.WithTolerances(opts.ToleranceOverrides)
		if err != nil {
			return nil, err
		}
		reg = tuned
	}

	codes := codematch.New(opts.CodeWeights)
	return &Engine{
		reg: reg,
		matcher: matcher.New(reg, matcher.Options{
			Region:    opts.Region,
			Authority: opts.AuthorityTable,
			Scaling:   opts.Scaling,
			Codes:     opts.CodeWeights,
		}),
		rules: rules.Default(opts.Thresholds, codes),
		builder: report.NewBuilder(reg, report.Options{
			CriticalGroups: opts.CriticalFields,
			Authority:      opts.AuthorityTable,
			CriticalWeight: opts.CriticalWeight,
		}),
		workers: opts.Workers,
	}, nil
}

func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Validate reconciles the document set into a report. Malformed documents
// fail with domain.ErrInvalidInput; a broken internal invariant fails with
// domain.ErrAggregationInconsistency. Every other problem is reported inside
// the returned report.
func (e *Engine) Validate(extractions []domain.DocumentExtraction) (domain.ValidationReport, error) {
	obs, err := e.matcher.Collect(extractions)
	if err != nil {
		return domain.ValidationReport{}, err
	}

	// Each comparison writes only its own slot.
	records := make([]domain.ComparisonRecord, len(obs.Groups))
	var compare errgroup.Group
	e.limit(&compare)
	for i, groupID := range obs.Groups {
		compare.Go(func() error {
			rec, err := e.matcher.Compare(obs, groupID)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := compare.Wait(); err != nil {
		return domain.ValidationReport{}, err
	}

	facts := rules.NewFacts(records)
	results := make([]domain.RuleResult, len(e.rules))
	var evaluate errgroup.Group
	e.limit(&evaluate)
	for i, rule := range e.rules {
		evaluate.Go(func() error {
			results[i] = rules.Evaluate(rule, facts)
			return nil
		})
	}
	_ = evaluate.Wait()

	return e.builder.Build(obs.Summaries, records, results)
}

func (e *Engine) limit(g *errgroup.Group) {
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
}
