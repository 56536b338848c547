package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/erraggy/apigraph/apierrors"
	"github.com/erraggy/apigraph/diag"
	"github.com/erraggy/apigraph/internal/pathutil"
	"github.com/erraggy/apigraph/model"
	"github.com/erraggy/apigraph/node"
	"github.com/erraggy/apigraph/parser"
	"github.com/erraggy/apigraph/resolver"
)

// Workspace is a registry of loaded resources keyed by locator. It resolves
// references that point from one resource into another.
//
// Resources are either AsyncAPI documents or plain YAML/JSON files holding
// reusable fragments, such as a file of shared schemas. Elements of fragment
// files are parsed the first time a reference asks for them.
//
// A Workspace is safe for concurrent use.
type Workspace struct {
	loader         StreamLoader
	httpClient     *http.Client
	baseDir        string
	maxConcurrency int
	maxFileSize    int64
	logger         parser.Logger
	metrics        *metrics
	parseOpts      []parser.Option

	mu        sync.RWMutex
	resources map[string]*resource
	flight    singleflight.Group

	lazyMu sync.Mutex
	lazy   *diag.List
}

// resource is one registered locator.
type resource struct {
	locator string
	// doc is set for AsyncAPI documents, root for fragment files
	doc     *model.Document
	root    *node.Node
	version parser.Version
	diags   *diag.List

	// seed documents are left for the caller to resolve
	seed        bool
	resolveOnce sync.Once
	resolveErr  error

	mu       sync.Mutex
	elements map[elementKey]model.Referenceable
}

// elementKey identifies an element parsed from a fragment file.
type elementKey struct {
	fragment string
	kind     model.RefKind
}

var (
	_ model.Workspace          = (*Workspace)(nil)
	_ resolver.ResourceChecker = (*Workspace)(nil)
)

// New returns an empty workspace. By default file locators are read relative
// to the working directory and http(s) locators fetched with GET.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		maxConcurrency: DefaultMaxConcurrency,
		maxFileSize:    DefaultMaxFileSize,
		logger:         parser.NopLogger{},
		resources:      make(map[string]*resource),
		lazy:           diag.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.loader == nil {
		w.loader = &MultiLoader{
			File: NewFileLoader(w.baseDir),
			HTTP: &HTTPLoader{Client: w.httpClient},
		}
	}
	return w
}

// discovered is an external resource named by a reference.
type discovered struct {
	locator string
	// pointer and source locate the first reference naming the resource
	pointer string
	source  string
	version parser.Version
}

type fetchResult struct {
	res   *resource
	fresh bool
	err   error
}

// Load registers seed under locator, then fetches every resource its
// external references name, and recursively the resources those name.
//
// References of seed are qualified with locator unless seed was parsed with
// parser.WithBaseLocator. Each resource is fetched once, relative to the
// resource referring to it; concurrent requests for the same locator share
// one fetch. Fetch and parse failures are returned as diagnostics. The
// returned error is only set when ctx is cancelled or the input is invalid.
//
// Fetched AsyncAPI documents are resolved against the workspace before Load
// returns; seed itself is left for the caller to resolve, typically with
// resolver.ResolveWorkspace.
func (w *Workspace) Load(ctx context.Context, locator string, seed *model.Document) (*diag.List, error) {
	list := diag.New()
	if seed == nil {
		return list, &apierrors.ConfigError{Option: "seed", Message: "nil document"}
	}
	if locator == "" {
		return list, &apierrors.ConfigError{Option: "locator", Message: "empty locator"}
	}
	if seed.Location == "" {
		if err := qualify(seed, locator); err != nil {
			return list, err
		}
		seed.Location = locator
	}
	seed.Workspace = w
	w.register(&resource{locator: locator, doc: seed, version: seed.Dialect, seed: true})

	pending, err := scanDocument(seed)
	if err != nil {
		return list, err
	}
	seen := map[string]bool{locator: true}
	var loaded []*resource
	fetched := 0

	for len(pending) > 0 {
		batch := nextBatch(pending, seen)
		results := make([]fetchResult, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(w.maxConcurrency)
		for i, d := range batch {
			g.Go(func() error {
				res, fresh, err := w.fetch(gctx, d)
				if err != nil && isCancellation(err) {
					return err
				}
				results[i] = fetchResult{res: res, fresh: fresh, err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return list, err
		}
		if err := ctx.Err(); err != nil {
			return list, err
		}

		pending = pending[:0]
		for i, d := range batch {
			r := results[i]
			if r.err != nil {
				list.Add(diag.Diagnostic{
					Pointer:  d.pointer,
					Message:  fmt.Sprintf("Failed to load %s: %v", d.locator, r.err),
					Severity: diag.SeverityError,
					Source:   d.source,
				})
				continue
			}
			if r.fresh {
				list.Merge(r.res.diags)
				fetched++
			}
			loaded = append(loaded, r.res)
			next, err := r.res.scan()
			if err != nil {
				return list, err
			}
			pending = append(pending, next...)
		}
	}

	// links into fetched documents must reach resolved elements, including
	// documents another Load is still resolving
	for _, r := range loaded {
		if err := w.resolveDocument(ctx, r, list); err != nil {
			return list, err
		}
	}
	w.logger.Debug("loaded workspace",
		"seed", locator,
		"fetched", fetched,
		"resources", w.Len(),
		"diagnostics", list.Len())
	return list, nil
}

// nextBatch returns the distinct unseen resources of pending in locator
// order, marking them seen.
func nextBatch(pending []discovered, seen map[string]bool) []discovered {
	var batch []discovered
	for _, d := range pending {
		if seen[d.locator] {
			continue
		}
		seen[d.locator] = true
		batch = append(batch, d)
	}
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].locator < batch[j].locator })
	return batch
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// fetch returns the resource at d.locator, loading and registering it unless
// it is already known. fresh reports whether this call loaded it; of several
// coalesced callers only the one that ran the load sees fresh.
func (w *Workspace) fetch(ctx context.Context, d discovered) (*resource, bool, error) {
	ran := false
	v, err, _ := w.flight.Do(d.locator, func() (any, error) {
		ran = true
		if r, ok := w.resource(d.locator); ok {
			w.metrics.recordFetch(resultCached, 0)
			return fetchResult{res: r}, nil
		}
		start := time.Now()
		r, err := w.load(ctx, d)
		elapsed := time.Since(start)
		if err != nil {
			w.metrics.recordFetch(resultError, elapsed)
			w.logger.Warn("failed to load resource", "locator", d.locator, "error", err)
			return nil, err
		}
		w.register(r)
		w.metrics.recordFetch(resultOK, elapsed)
		w.logger.Debug("loaded resource", "locator", d.locator, "elapsed", elapsed)
		return fetchResult{res: r, fresh: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(fetchResult)
	return res.res, res.fresh && ran, nil
}

// load opens, reads and parses the resource at d.locator.
func (w *Workspace) load(ctx context.Context, d discovered) (*resource, error) {
	rc, err := w.loader.Open(ctx, d.locator)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, w.maxFileSize+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apierrors.FetchError{Locator: d.locator, Cause: err}
	}
	if int64(len(data)) > w.maxFileSize {
		return nil, fmt.Errorf("resource exceeds maximum size (%d bytes)", w.maxFileSize)
	}

	opts := []parser.Option{
		parser.WithBaseLocator(d.locator),
		parser.WithSourceName(d.locator),
		parser.WithLogger(w.logger),
	}
	opts = append(opts, w.parseOpts...)
	res, err := parser.Parse(data, opts...)
	if err != nil {
		var verr *apierrors.VersionError
		if errors.As(err, &verr) && verr.Field == "" && res != nil && res.Root != nil {
			// no version indicator: a file of fragments such as shared schemas
			return &resource{locator: d.locator, root: res.Root, version: d.version, diags: diag.New()}, nil
		}
		return nil, err
	}
	res.Document.Workspace = w
	return &resource{locator: d.locator, doc: res.Document, version: res.Version, diags: res.Diagnostics}, nil
}

func (w *Workspace) register(r *resource) {
	w.mu.Lock()
	w.resources[r.locator] = r
	n := len(w.resources)
	w.mu.Unlock()
	w.metrics.setDocuments(n)
}

func (w *Workspace) resource(locator string) (*resource, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.resources[locator]
	return r, ok
}

// resolveDocument resolves a fetched document once. Concurrent callers wait
// until the first has finished; its diagnostics go to the first caller's list.
func (w *Workspace) resolveDocument(ctx context.Context, r *resource, list *diag.List) error {
	if r.doc == nil || r.seed {
		return nil
	}
	r.resolveOnce.Do(func() {
		_, r.resolveErr = resolver.Resolve(ctx, r.doc, resolver.Options{
			Mode:        resolver.ModeFull,
			Workspace:   w,
			Logger:      w.logger,
			Diagnostics: list,
		})
	})
	return r.resolveErr
}

// Resolve implements model.Workspace. It finds the resource named by
// ref.Resource and looks the fragment up in it: components and pointers for
// AsyncAPI documents, raw pointers for fragment files. A whole-resource
// reference resolves only to a fragment file read as a schema.
func (w *Workspace) Resolve(ref *model.Reference) (model.Referenceable, bool) {
	if ref == nil {
		return nil, false
	}
	r, ok := w.resource(ref.Resource)
	if !ok {
		return nil, false
	}
	if r.doc != nil {
		if ref.IsWholeResource() {
			return nil, false
		}
		return r.doc.Lookup(ref)
	}
	return w.fragmentElement(r, ref)
}

// fragmentElement parses the element ref addresses in a fragment file, then
// resolves the references below it. Elements are cached per fragment and
// kind before their references are resolved, so cycles end at the cache.
func (w *Workspace) fragmentElement(r *resource, ref *model.Reference) (model.Referenceable, bool) {
	kind := ref.Kind
	if kind == model.RefKindUnknown {
		kind = model.RefKindSchema
	}
	if ref.IsWholeResource() && kind != model.RefKindSchema {
		return nil, false
	}
	pointer := pathutil.Join(ref.Path()...)
	key := elementKey{fragment: pointer, kind: kind}

	r.mu.Lock()
	if el, ok := r.elements[key]; ok {
		r.mu.Unlock()
		return el, el != nil
	}
	el, diags := w.parseFragment(r, kind, pointer, ref.Path())
	if r.elements == nil {
		r.elements = make(map[elementKey]model.Referenceable)
	}
	r.elements[key] = el
	r.mu.Unlock()

	if el == nil {
		w.addLazy(diags)
		return nil, false
	}
	if !model.IsPlaceholder(el) {
		res := resolver.New(model.NewDocument(r.version),
			resolver.WithWorkspace(w),
			resolver.WithDiagnostics(diags),
			resolver.WithSource(r.locator),
			resolver.WithLogger(w.logger))
		if err := res.RunElement(context.Background(), el, pointer); err != nil {
			w.logger.Warn("failed to resolve fragment", "locator", r.locator, "pointer", pointer, "error", err)
		}
	}
	w.addLazy(diags)
	return el, true
}

func (w *Workspace) parseFragment(r *resource, kind model.RefKind, pointer string, path []string) (model.Referenceable, *diag.List) {
	n, ok := r.root.Lookup(path...)
	if !ok {
		return nil, diag.New()
	}
	opts := []parser.Option{
		parser.WithBaseLocator(r.locator),
		parser.WithElementPointer(pointer),
		parser.WithLogger(w.logger),
	}
	opts = append(opts, w.parseOpts...)
	v, diags, err := parser.ParseElementNode(kind, n, r.version, opts...)
	if err != nil {
		diags.Add(diag.Diagnostic{
			Pointer:  pointer,
			Message:  err.Error(),
			Severity: diag.SeverityError,
			Line:     n.Position().Line,
			Column:   n.Position().Column,
			Source:   r.locator,
		})
		return nil, diags
	}
	el, ok := v.(model.Referenceable)
	if !ok {
		return nil, diags
	}
	return el, diags
}

func (w *Workspace) addLazy(list *diag.List) {
	if list.Len() == 0 {
		return
	}
	w.lazyMu.Lock()
	w.lazy.Merge(list)
	w.lazyMu.Unlock()
}

// Diagnostics returns the diagnostics recorded while parsing and resolving
// elements of fragment files on demand.
func (w *Workspace) Diagnostics() *diag.List {
	w.lazyMu.Lock()
	defer w.lazyMu.Unlock()
	out := diag.New()
	out.Merge(w.lazy)
	return out
}

// Has reports whether a resource is registered under locator.
func (w *Workspace) Has(locator string) bool {
	_, ok := w.resource(locator)
	return ok
}

// Get returns the AsyncAPI document registered under locator.
func (w *Workspace) Get(locator string) (*model.Document, bool) {
	r, ok := w.resource(locator)
	if !ok || r.doc == nil {
		return nil, false
	}
	return r.doc, true
}

// Locators returns the registered locators in sorted order, fragment files
// included.
func (w *Workspace) Locators() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.resources))
	for loc := range w.resources {
		out = append(out, loc)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of registered resources.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.resources)
}

// Documents returns the registered AsyncAPI documents ordered by locator.
func (w *Workspace) Documents() []*model.Document {
	var docs []*model.Document
	for _, loc := range w.Locators() {
		if doc, ok := w.Get(loc); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}
