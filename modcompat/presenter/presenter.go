package presenter

import (
	"io"

	"github.com/anchore/modcompat/modcompat/presenter/json"
	"github.com/anchore/modcompat/modcompat/presenter/models"
	"github.com/anchore/modcompat/modcompat/presenter/table"
)

// Presenter is the main interface other Presenters need to implement
type Presenter interface {
	Present(io.Writer) error
}

// GetPresenter retrieves a Presenter that matches a CLI option. Nil is returned for an unknown option.
func GetPresenter(option Option, doc models.Document, withColor bool) Presenter {
	switch option {
	case JSONPresenter:
		return json.NewPresenter(doc)
	case TablePresenter:
		return table.NewPresenter(doc, withColor)
	default:
		return nil
	}
}
