package cli

import (
	"fmt"
	"os"

	"github.com/roach88/sift/queryfile"
	"github.com/roach88/sift/schema"
)

// loadFailure pairs an error code with its message for command output.
type loadFailure struct {
	Code    string
	Message string
}

func (e *loadFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadRegistry loads the schema at path, distinguishing a missing path
// from an invalid schema.
func loadRegistry(path string) (*schema.Registry, *loadFailure) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &loadFailure{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", path)}
		}
		return nil, &loadFailure{Code: ErrCodeNotFound, Message: fmt.Sprintf("accessing schema path: %v", err)}
	}

	reg, err := schema.Load(path)
	if err != nil {
		return nil, &loadFailure{Code: ErrCodeSchemaLoad, Message: err.Error()}
	}
	return reg, nil
}

// loadQuery loads a query document, distinguishing a missing file from a
// malformed one.
func loadQuery(path string) (*queryfile.Document, *loadFailure) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &loadFailure{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", path)}
		}
		return nil, &loadFailure{Code: ErrCodeNotFound, Message: fmt.Sprintf("accessing query file: %v", err)}
	}

	doc, err := queryfile.Load(path)
	if err != nil {
		return nil, &loadFailure{Code: ErrCodeQueryLoad, Message: err.Error()}
	}
	return doc, nil
}
