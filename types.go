package store

import (
	"time"

	"github.com/goliatone/go-store/pkg/activity"
)

// State is the plain mapping a store holds. Commits replace the root map
// rather than mutating it, so a snapshot handed to a reducer or caller stays
// stable; treat it as read-only.
type State = map[string]any

// Action is the object form every dispatched action resolves to. Fields
// beyond Type and Payload travel in Meta and pass through untouched.
type Action struct {
	Type    string
	Payload any
	Meta    map[string]any
}

// Reducer handles a single action type. The returned value is merged into
// state for mutating actions and handed back to the caller for queries; an
// error return propagates to the dispatch caller.
type Reducer func(state State, action Action, tk Toolkit) (any, error)

// Thunk is the function form of an action. It receives the current snapshot,
// the dispatcher for follow-up dispatches, the payload, and any trailing
// dispatch arguments. Its return value is re-dispatched.
type Thunk func(state State, d *Dispatcher, payload any, args ...any) (any, error)

// Initializer transforms the pristine initial snapshot into the live state.
// It runs at construction and again on every argument-less Reset, always on a
// fresh clone of the baseline.
type Initializer func(initial State) State

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

// SchemaFormatDescriptors represents the flattened field descriptors.
const SchemaFormatDescriptors SchemaFormat = "descriptors"

// SchemaFormatOpenAPI represents an OpenAPI 3 document rendition.
const SchemaFormatOpenAPI SchemaFormat = "openapi"

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator transforms a state snapshot into a schema document. All
// implementations MUST be safe for concurrent use and handle nil inputs by
// returning an empty schema document.
type SchemaGenerator interface {
	Generate(value any) (SchemaDocument, error)
}

// SelectContext carries inputs needed when evaluating a selector expression.
type SelectContext struct {
	Snapshot State
	Loading  Loading
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx SelectContext) withDefaultNow() SelectContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx SelectContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx SelectContext) withDefaultMaps() SelectContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx SelectContext) withDefaults() SelectContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx SelectContext) loadingBinding() map[string]any {
	if len(ctx.Loading) == 0 {
		return map[string]any{}
	}
	binding := make(map[string]any, len(ctx.Loading))
	for name, pending := range ctx.Loading {
		binding[name] = pending
	}
	return binding
}

// Evaluator executes selector expressions against a select context.
type Evaluator interface {
	Evaluate(ctx SelectContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledSelector, error)
}

// CompiledSelector represents a reusable expression program.
type CompiledSelector interface {
	Evaluate(ctx SelectContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

type Option func(*storeConfig)

type storeConfig struct {
	initializer     Initializer
	defaults        []State
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evalLogger      EvaluatorLogger
	dispatchLogger  DispatchLogger
	schemaGenerator SchemaGenerator
	activityHooks   activity.Hooks
	clock           func() time.Time
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (s *Store) evaluator() Evaluator {
	return s.cfg.evaluator
}

func (s *Store) programCache() ProgramCache {
	return s.cfg.programCache
}

func (s *Store) functionRegistry() *FunctionRegistry {
	return s.cfg.functions
}

func (s *Store) evaluatorLogger() EvaluatorLogger {
	if s.cfg.evalLogger != nil {
		return s.cfg.evalLogger
	}
	return noopEvaluatorLogger{}
}

func (s *Store) dispatchLogger() DispatchLogger {
	if s.cfg.dispatchLogger != nil {
		return s.cfg.dispatchLogger
	}
	return noopDispatchLogger{}
}

func (s *Store) schemaGenerator() SchemaGenerator {
	if s == nil {
		return DefaultSchemaGenerator()
	}
	if s.cfg.schemaGenerator != nil {
		return s.cfg.schemaGenerator
	}
	return DefaultSchemaGenerator()
}

func (s *Store) now() time.Time {
	if s.cfg.clock != nil {
		return s.cfg.clock()
	}
	return time.Now()
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *storeConfig) {
		cfg.schemaGenerator = generator
	}
}

// WithClock overrides the time source used for activity event timestamps.
func WithClock(clock func() time.Time) Option {
	return func(cfg *storeConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}
