package json

import (
	"encoding/json"
	"io"

	"github.com/anchore/modcompat/modcompat/presenter/models"
)

// Presenter is a generic struct for holding fields needed for reporting
type Presenter struct {
	document models.Document
}

// NewPresenter creates a new JSON presenter
func NewPresenter(doc models.Document) *Presenter {
	return &Presenter{
		document: doc,
	}
}

// Present creates a JSON-based reporting
func (pres *Presenter) Present(output io.Writer) error {
	enc := json.NewEncoder(output)
	// prevent > and < from being escaped in the payload
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	return enc.Encode(&pres.document)
}
