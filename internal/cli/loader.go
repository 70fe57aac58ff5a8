package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/elabql/internal/engine"
	"github.com/roach88/elabql/internal/qlast"
)

// LoadMode controls how errors are handled during source loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// QueryExt is the extension of query text files. Tree documents (.cue,
// .json) hold one already-parsed query each.
const QueryExt = ".edgeql"

// LoadError represents an error that occurred while reading a source.
type LoadError struct {
	Code    string
	Message string
	Path    string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No query files found
	ErrCodeReadFailed  = "E004" // File read error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeDecode      = "E006" // Tree document does not decode
	ErrCodeStore       = "E007" // Elaboration log error
	ErrCodeElaboration = "E008" // One or more queries failed to elaborate
	ErrCodeTestFailed  = "E009" // One or more scenarios failed
	ErrCodeReplayDrift = "E010" // Replay differs from the recorded run
)

// LoadSources reads queries from files and directories. Directories are
// walked for .edgeql, .cue and .json files in lexical order.
//
// A tree document that fails to decode is reported as an error; query text
// is not parsed here, parse failures are elaboration outcomes.
func LoadSources(paths []string, mode LoadMode) ([]engine.Source, []error) {
	var srcs []engine.Source
	var errs []error

	for _, path := range paths {
		files, err := findSourceFiles(path)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return srcs, errs
			}
			continue
		}
		for _, file := range files {
			src, err := loadSource(file)
			if err != nil {
				errs = append(errs, err)
				if mode == LoadModeFailFast {
					return srcs, errs
				}
				continue
			}
			srcs = append(srcs, src)
		}
	}

	if len(srcs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no query files found in %s", strings.Join(paths, ", "))})
	}
	return srcs, errs
}

// InlineSources turns -e arguments into sources named inline[1], inline[2], ...
func InlineSources(queries []string) []engine.Source {
	srcs := make([]engine.Source, len(queries))
	for i, q := range queries {
		srcs[i] = engine.Source{Name: fmt.Sprintf("inline[%d]", i+1), Text: q}
	}
	return srcs
}

// findSourceFiles returns path itself for a file, or every query file
// under a directory.
func findSourceFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "path not found", Path: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), Path: path}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isSourceFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Path: path}
	}
	sort.Strings(files)
	return files, nil
}

func isSourceFile(path string) bool {
	return filepath.Ext(path) == QueryExt || engine.IsTreeDocument(path)
}

func loadSource(path string) (engine.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Source{}, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Path: path}
	}

	src := engine.Source{Name: path, Text: string(data)}
	if engine.IsTreeDocument(path) {
		node, err := qlast.DecodeBytes(path, data)
		if err != nil {
			return engine.Source{}, &LoadError{Code: ErrCodeDecode, Message: err.Error(), Path: path}
		}
		src.Node = node
	}
	return src, nil
}
