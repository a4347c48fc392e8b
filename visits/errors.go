package visits

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks on a *LoadError.
var (
	ErrFileNotFound = errors.New("visits: file not found")
	ErrParseFailure = errors.New("visits: parse failure")
	ErrEmptyDataset = errors.New("visits: empty dataset")
)

// ErrorKind classifies a load failure.
type ErrorKind int

const (
	FileNotFound ErrorKind = iota + 1
	ParseFailure
	EmptyDataset
)

func (k ErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "file_not_found"
	case ParseFailure:
		return "parse_failure"
	case EmptyDataset:
		return "empty_dataset"
	default:
		return "unknown"
	}
}

// LoadError is returned by Load and Derive.
type LoadError struct {
	Kind ErrorKind
	Path string
	Row  int // 1-based spreadsheet row, 0 when not row-specific
	Err  error
}

// Message is the user-facing text shown in place of the dashboard.
func (e *LoadError) Message() string {
	switch e.Kind {
	case FileNotFound:
		return fmt.Sprintf("Arquivo não encontrado: %s", e.Path)
	case ParseFailure:
		if e.Row > 0 {
			return fmt.Sprintf("Erro ao ler o arquivo: linha %d: %v", e.Row, e.Err)
		}
		return fmt.Sprintf("Erro ao ler o arquivo: %v", e.Err)
	default:
		return "O arquivo está vazio ou não pôde ser lido."
	}
}

func (e *LoadError) Error() string {
	return e.Message()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *LoadError) Is(target error) bool {
	switch e.Kind {
	case FileNotFound:
		return target == ErrFileNotFound
	case ParseFailure:
		return target == ErrParseFailure
	case EmptyDataset:
		return target == ErrEmptyDataset
	}
	return false
}

func parseError(path string, row int, err error) *LoadError {
	return &LoadError{Kind: ParseFailure, Path: path, Row: row, Err: err}
}
