package fault

import "fmt"

// Kind classifies a failure by the subsystem that produced it.
type Kind string

const (
	// KindExtraction means the uploaded bytes could not be parsed as the
	// declared format (for example a corrupt PDF).
	KindExtraction Kind = "extraction"
	// KindEmbedding means the embedding backend failed while vectorizing.
	KindEmbedding Kind = "embedding"
	// KindStore means a persistence read or write failed.
	KindStore Kind = "store"
	// KindConfiguration means a required credential or setting is missing.
	// Fatal at startup.
	KindConfiguration Kind = "configuration"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func Extraction(msg string, err error) *Error {
	return &Error{Kind: KindExtraction, Msg: msg, Err: err}
}

func Embedding(msg string, err error) *Error {
	return &Error{Kind: KindEmbedding, Msg: msg, Err: err}
}

func Store(msg string, err error) *Error {
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

func Configuration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}
