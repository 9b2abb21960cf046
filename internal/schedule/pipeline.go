package schedule

import (
	"container/heap"
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oxhq/pyrechk/internal/answers"
	"github.com/oxhq/pyrechk/internal/ast"
	"github.com/oxhq/pyrechk/internal/binding"
	"github.com/oxhq/pyrechk/internal/classmeta"
	"github.com/oxhq/pyrechk/internal/config"
	"github.com/oxhq/pyrechk/internal/diag"
	"github.com/oxhq/pyrechk/internal/module"
	"github.com/oxhq/pyrechk/internal/types"
)

// Stage is a module's position in spec §5's load -> exports -> answers
// pipeline. A module's queue priority is its Stage: the scheduler always
// prefers the module nearest completion, so its retained memory (syntax
// tree, binding table) is released soonest.
type Stage int

const (
	StageLoad Stage = iota
	StageExports
	StageAnswers
	StageDone
)

// moduleState is the per-module bookkeeping the pipeline threads through
// its stages: one lock per module so a thread waiting on this module's
// exports is never blocked behind a different module's answers
// computation (spec §5's fair-mutex requirement is about per-module
// isolation, not about any one module's internal ordering — Go's mutex
// already enters a starvation mode under contention, so no separate
// fair-lock primitive is needed beyond one sync.Mutex per module).
type moduleState struct {
	mu    sync.Mutex
	name  string
	stage Stage

	bindings  *binding.Table
	classmeta *classmeta.Table
	answers   *answers.Table
}

// pqItem/priorityQueue implement container/heap ordered by Stage
// descending, so Pop always returns the module nearest completion.
type pqItem struct {
	name  string
	stage Stage
}

type priorityQueue []pqItem

func (q priorityQueue) Len() int            { return len(q) }
func (q priorityQueue) Less(i, j int) bool  { return q[i].stage > q[j].stage }
func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x any)         { *q = append(*q, x.(pqItem)) }
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Pipeline owns the registry, module states, and worker pool that drive
// every loaded module from StageLoad to StageDone. Grounded on the
// teacher's internal/pipeline.Pipeline (a fixed Processor chain run over
// one PipelineContext) generalized to many modules processed
// concurrently, the way spec §5 describes, via golang.org/x/sync/errgroup
// the way the pack's gopls Implementation search fans out per-package
// work (`var group errgroup.Group; group.Go(...)`).
type Pipeline struct {
	cfg      *config.Config
	registry *module.Registry
	diags    *diag.Collector

	mu      sync.Mutex
	cond    *sync.Cond
	states  map[string]*moduleState
	queue   priorityQueue
	queued  map[string]bool
	pending int // modules not yet at StageDone; Run exits once this hits 0
	workers int
}

// New builds a Pipeline ready to Run against cfg, using resolver to find
// module source.
func New(cfg *config.Config, resolver module.Resolver, diags *diag.Collector) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pipeline{
		cfg:      cfg,
		registry: module.NewRegistry(resolver),
		diags:    diags,
		states:   map[string]*moduleState{},
		queued:   map[string]bool{},
		workers:  workers,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Registry exposes the module registry, e.g. for a caller assembling the
// final Solutions/Diagnostics report.
func (p *Pipeline) Registry() *module.Registry { return p.registry }

func (p *Pipeline) recordParseError(modName, path string, err error) {
	if p.diags == nil {
		return
	}
	p.diags.Add(diag.New(diag.Range{Path: path, StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 1},
		diag.KindParseError, "%s", err.Error()))
}

func (p *Pipeline) recordUnresolvedImport(modName, imported string) {
	if p.diags == nil {
		return
	}
	p.diags.Add(diag.New(diag.Range{Path: modName},
		diag.KindImportError, "cannot resolve import %q", imported))
}

func (p *Pipeline) stateFor(name string) *moduleState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.states[name]
	if !ok {
		s = &moduleState{name: name, stage: StageLoad}
		p.states[name] = s
	}
	return s
}

// enqueueLocked adds name to the priority queue at stage, waking any
// worker blocked in next waiting for work. The caller must hold p.mu
// (Run and advance both take it around the call); this method never
// takes the lock itself.
func (p *Pipeline) enqueueLocked(name string, stage Stage) {
	if p.queued[name] {
		return
	}
	p.queued[name] = true
	heap.Push(&p.queue, pqItem{name: name, stage: stage})
	queueDepth.Set(float64(p.queue.Len()))
	p.cond.Broadcast()
}

// next blocks until a module is ready to dequeue, or returns ok=false
// once pending has drained to zero — the signal that every discovered
// module reached StageDone and no further work will ever arrive. This
// is the suspension point spec §5 describes: a worker parked here while
// another worker is mid-stage on every currently runnable module wakes
// as soon as that worker's stage transition re-enqueues something.
func (p *Pipeline) next() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() == 0 {
		if p.pending == 0 {
			return "", false
		}
		p.cond.Wait()
	}
	item := heap.Pop(&p.queue).(pqItem)
	delete(p.queued, item.name)
	queueDepth.Set(float64(p.queue.Len()))
	return item.name, true
}

// Run discovers root and every module it transitively imports, then
// drives each one from load through answers using up to p.workers
// concurrent goroutines. It returns once every reachable module has
// either finished or permanently failed; per-module failures are
// reported as diagnostics (spec §7: "the solver never raises") rather
// than aborting the whole run.
func (p *Pipeline) Run(ctx context.Context, root string) error {
	if err := p.discover(root, map[string]bool{}); err != nil {
		return err
	}

	p.mu.Lock()
	mods := p.registry.All()
	p.pending = len(mods)
	for _, m := range mods {
		p.enqueueLocked(m.Name, StageLoad)
	}
	p.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for {
				name, ok := p.next()
				if !ok {
					return nil
				}
				inFlightModules.Inc()
				err := p.advance(name)
				inFlightModules.Dec()
				if err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// advance drives one module forward exactly one stage, then either
// re-enqueues it (more stages remain) or decrements pending and wakes
// every idle worker so they can notice the run finished. Per-module
// state is guarded by s.mu, never by p.mu, so a worker parked in next
// waiting on the queue is never blocked behind another module's
// in-progress stage (spec §5's fair-mutex requirement).
func (p *Pipeline) advance(name string) error {
	s := p.stateFor(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	mod, ok := p.registry.Get(name)
	if !ok {
		return fmt.Errorf("schedule: module %q vanished from the registry", name)
	}

	switch s.stage {
	case StageLoad:
		s.bindings = binding.NewTable(name)
		for _, f := range mod.Files {
			built := binding.Build(name, f)
			for _, b := range built.All() {
				s.bindings.Add(b)
			}
		}
		for _, n := range topLevelExports(mod.Files) {
			mod.Export(n)
		}
		mod.ExportsReady = true
		s.stage = StageExports
		stageTransitions.WithLabelValues("exports").Inc()
		p.mu.Lock()
		p.enqueueLocked(name, s.stage)
		p.mu.Unlock()

	case StageExports:
		ans := answers.NewTable(name, s.bindings, p.registry, p.diags, nil)
		cm := classmeta.NewTable(name, s.bindings, ans, p.diags)
		ans.SetClassLookup(cm)
		ans.SetCrossModuleResolver(p)
		s.answers = ans
		s.classmeta = cm
		for _, b := range s.bindings.All() {
			if _, err := ans.Get(b.Key); err != nil && p.diags != nil {
				// Evaluation failures surface through the diagnostics
				// eval.go already emits on the way to AnyType; nothing
				// further to report here.
				_ = err
			}
		}
		mod.AnswersReady = true
		s.stage = StageAnswers
		stageTransitions.WithLabelValues("answers").Inc()
		p.mu.Lock()
		p.enqueueLocked(name, s.stage)
		p.mu.Unlock()

	case StageAnswers:
		s.answers.Finalize()
		s.stage = StageDone
		stageTransitions.WithLabelValues("done").Inc()
		p.mu.Lock()
		p.pending--
		p.cond.Broadcast()
		p.mu.Unlock()
	}
	return nil
}

// ResolveTable implements answers.CrossModuleResolver: the pipeline is
// the only thing holding every module's answers.Table at once.
func (p *Pipeline) ResolveTable(modName string) (*answers.Table, bool) {
	p.mu.Lock()
	s, ok := p.states[modName]
	p.mu.Unlock()
	if !ok || s.answers == nil {
		crossModuleLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	crossModuleLookups.WithLabelValues("hit").Inc()
	return s.answers, true
}

// Bindings exposes name's binding table, e.g. for internal/query to
// chase an Import/ImportFrom binding across module boundaries (it
// satisfies query.Resolver directly). Returns ok=false until the module
// has at least reached StageExports.
func (p *Pipeline) Bindings(name string) (*binding.Table, bool) {
	p.mu.Lock()
	s, ok := p.states[name]
	p.mu.Unlock()
	if !ok || s.bindings == nil {
		return nil, false
	}
	return s.bindings, true
}

// AnswersFor exposes name's answers table, the other half internal/query
// needs to read a key's solved type for Hover/InlayHints.
func (p *Pipeline) AnswersFor(name string) (*answers.Table, bool) {
	return p.ResolveTable(name)
}

// ModuleRange returns a location inside name's first source file, the
// target of a plain `import name` goto-definition (there is no single
// name inside the target module to land on, only the module itself).
// internal/parser never sets a Module node's own range, so the range of
// its first statement stands in for "the top of the file"; an empty
// file falls back to the zero position, still a valid location for an
// empty document.
func (p *Pipeline) ModuleRange(name string) (ast.Range, bool) {
	mod, ok := p.registry.Get(name)
	if !ok || len(mod.Files) == 0 {
		return ast.Range{}, false
	}
	file := mod.Files[0]
	if len(file.Body) == 0 {
		return ast.Range{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 1}, true
	}
	return file.Body[0].Range(), true
}

// Solutions returns name's finalized per-key type map, or nil if name
// never reached StageDone.
func (p *Pipeline) Solutions(name string) map[binding.Key]types.Type {
	p.mu.Lock()
	s, ok := p.states[name]
	p.mu.Unlock()
	if !ok || s.answers == nil {
		return nil
	}
	return s.answers.Finalize()
}
