package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/fritzo/libhstar/internal/config"
	"github.com/fritzo/libhstar/internal/engine"
)

// LoadError represents an error that occurred during config loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadConfig reads and compiles a CUE engine config file.
// Equation sides are checked as terms; the first problem is returned with
// its file:line:col position.
func LoadConfig(path string) (*config.Config, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config file: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config path is a directory: %s", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading config: %v", err)}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))

	cfg, err := config.Compile(value)
	if err != nil {
		return nil, convertCompileError(err)
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		first := errs[0]
		return nil, &LoadError{Code: first.Code, Message: fmt.Sprintf("%s: %s", first.Field, first.Message), Pos: first.Pos}
	}
	return cfg, nil
}

// convertCompileError converts a config compile error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *config.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeLoadFailed  = "E004" // File read failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeDatabase    = "E008" // Journal open/read/write error

	// Config field errors
	ErrCodeInvalidEquation = "E100" // Malformed equation entry
)

// MapFieldToErrorCode maps a config compile error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue", field == "config":
		return ErrCodeBuildFailed
	case strings.HasPrefix(field, "equations"):
		return ErrCodeInvalidEquation
	default:
		return ErrCodeGeneric
	}
}

// engineSettings is the resolved engine configuration of one command.
type engineSettings struct {
	Budget  int
	Options []engine.Option
}

// resolveSettings merges the config file (if any) with the global flags.
// An explicit --budget wins over the config; --debug only ever enables
// validation.
func resolveSettings(opts *RootOptions, logger *slog.Logger) (*engineSettings, error) {
	s := &engineSettings{Budget: opts.Budget}

	if opts.Config != "" {
		cfg, err := LoadConfig(opts.Config)
		if err != nil {
			return nil, err
		}
		if !opts.BudgetSet {
			s.Budget = cfg.BudgetOr(opts.Budget)
		}
		s.Options = append(s.Options, cfg.Options()...)
		logger.Debug("config loaded", "path", opts.Config, "budget", s.Budget)
	}

	if opts.Debug {
		s.Options = append(s.Options, engine.WithDebug(true))
	}
	s.Options = append(s.Options, engine.WithLogger(logger))
	return s, nil
}

// newLogger builds the command logger: text to w at Info, or Debug with
// --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}
