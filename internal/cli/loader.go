package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/kb"
	"github.com/roach88/cfeval/internal/reasoner"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric      = "E001" // Generic error
	ErrCodeBatchInvalid = "E002" // Batch file failed validation
	ErrCodeOntology     = "E003" // Ontology could not be loaded
	ErrCodeDuplicateKey = "E004" // Duplicate test case keys
	ErrCodeNotFound     = "E005" // File, run or ontology entity not found
	ErrCodeInconsistent = "E006" // Test cases rejected by the reasoner
	ErrCodeAlgorithm    = "E007" // Algorithm output could not be loaded
	ErrCodeStore        = "E008" // Results database error
	ErrCodeRunFailed    = "E009" // A test case failed during the run
)

// Environment is a loaded batch bound to its knowledge base.
type Environment struct {
	Batch    *harness.Batch
	KB       *kb.KB
	Registry *harness.Registry
}

// Loader opens batches and the knowledge bases they reference.
//
// Knowledge bases are cached per resolved ontology path, so batches sharing an
// ontology share one in-memory knowledge base.
type Loader struct {
	logger *slog.Logger
	kbs    map[string]*kb.KB
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{logger: logger, kbs: make(map[string]*kb.KB)}
}

// Load reads a batch, opens its ontology and registers its test cases.
func (l *Loader) Load(ctx context.Context, batchPath string) (*Environment, error) {
	batch, err := harness.LoadBatch(batchPath)
	if err != nil {
		return nil, err
	}

	k, err := l.KnowledgeBase(ctx, batch.OntologyPath())
	if err != nil {
		return nil, err
	}

	registry := harness.NewRegistry(k, l.logger)
	if _, err := registry.LoadBatch(batch); err != nil {
		return nil, err
	}
	return &Environment{Batch: batch, KB: k, Registry: registry}, nil
}

// KnowledgeBase returns the cached knowledge base for an ontology file,
// opening it on first use.
func (l *Loader) KnowledgeBase(ctx context.Context, ontologyPath string) (*kb.KB, error) {
	if ontologyPath == "" {
		return nil, &OntologyError{Err: errors.New("batch does not reference an ontology")}
	}
	abs, err := filepath.Abs(ontologyPath)
	if err != nil {
		return nil, &OntologyError{Path: ontologyPath, Err: err}
	}
	if k, ok := l.kbs[abs]; ok {
		return k, nil
	}

	r, err := reasoner.New(l.logger)
	if err != nil {
		return nil, &OntologyError{Path: abs, Err: err}
	}
	k, err := kb.Open(":memory:", kb.WithReasoner(r), kb.WithLogger(l.logger))
	if err != nil {
		return nil, &OntologyError{Path: abs, Err: err}
	}
	if err := k.LoadOntologyFile(ctx, abs); err != nil {
		k.Close()
		return nil, &OntologyError{Path: abs, Err: err}
	}

	l.logger.Info("ontology loaded", "path", abs)
	l.kbs[abs] = k
	return k, nil
}

// Close closes every cached knowledge base.
func (l *Loader) Close() error {
	var errs []error
	for path, k := range l.kbs {
		if err := k.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", path, err))
		}
		delete(l.kbs, path)
	}
	return errors.Join(errs...)
}

// OntologyError reports an ontology that could not be opened.
type OntologyError struct {
	Path string
	Err  error
}

func (e *OntologyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ontology: %v", e.Err)
	}
	return fmt.Sprintf("ontology %s: %v", e.Path, e.Err)
}

func (e *OntologyError) Unwrap() error {
	return e.Err
}

// errorCode maps a load or run error to its CLI error code.
func errorCode(err error) string {
	var (
		configErr *harness.ConfigError
		dupErr    *harness.DuplicateKeyError
		incErr    *harness.InconsistencyError
		tcErr     *harness.TestCaseError
		ontErr    *OntologyError
	)
	switch {
	case errors.As(err, &configErr):
		return ErrCodeBatchInvalid
	case errors.As(err, &dupErr):
		return ErrCodeDuplicateKey
	case errors.As(err, &incErr):
		return ErrCodeInconsistent
	case errors.As(err, &tcErr):
		return ErrCodeRunFailed
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, kb.ErrNotFound):
		return ErrCodeNotFound
	case errors.As(err, &ontErr):
		return ErrCodeOntology
	default:
		return ErrCodeGeneric
	}
}

// exitCode maps a load or run error to the process exit code. Batches the
// reasoner rejects and failing test cases are run failures; everything else
// is a command error.
func exitCode(err error) int {
	switch errorCode(err) {
	case ErrCodeInconsistent, ErrCodeRunFailed:
		return ExitFailure
	default:
		return ExitCommandError
	}
}

// fail reports err through the formatter and returns the matching ExitError.
func fail(f *OutputFormatter, message string, err error) error {
	return failWith(f, errorCode(err), exitCode(err), message, err)
}

func failWith(f *OutputFormatter, code string, exit int, message string, err error) error {
	var details any
	var incErr *harness.InconsistencyError
	if errors.As(err, &incErr) {
		details = failureDetails(incErr)
	}
	if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), details); outErr != nil {
		return WrapExitError(ExitCommandError, "failed to write output", outErr)
	}
	return WrapExitError(exit, message, err)
}

func failureDetails(e *harness.InconsistencyError) map[string]string {
	out := make(map[string]string, len(e.Keys))
	for _, k := range e.Keys {
		out[string(k)] = e.Diagnostics[k]
	}
	return out
}
