package table

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/presenter/models"
)

// Presenter is a generic struct for holding fields needed for reporting
type Presenter struct {
	document  models.Document
	withColor bool
}

// NewPresenter is a *Presenter constructor
func NewPresenter(doc models.Document, withColor bool) *Presenter {
	return &Presenter{
		document:  doc,
		withColor: withColor,
	}
}

// Present writes one row per mod followed by a summary of the installed version
func (p *Presenter) Present(output io.Writer) error {
	if len(p.document.Mods) == 0 {
		_, err := io.WriteString(output, "No mods to check\n")
		return err
	}

	table := tablewriter.NewWriter(output)
	table.SetHeader([]string{"Name", "Version", "Compatible-With", "Released", "Compatibility"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetAutoFormatHeaders(true)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, m := range p.document.Mods {
		table.Append([]string{m.Name, m.Version, m.CompatibleWith, m.ReleaseDate, p.colorize(m.Compatibility)})
	}

	table.Render()

	_, err := fmt.Fprintf(output, "\n%s\n", p.summary())
	return err
}

func (p *Presenter) summary() string {
	installed := p.document.Installed
	epoch := installed.Epoch
	if epoch == "" {
		epoch = "unknown"
	}
	return fmt.Sprintf("Installed version %s (compatibility epoch %s): %d ok, %d old, %d unknown",
		installed.Version,
		epoch,
		p.document.Count(compatibility.OK),
		p.document.Count(compatibility.Old),
		p.document.Count(compatibility.Unknown),
	)
}

func (p *Presenter) colorize(c compatibility.Compatibility) string {
	if !p.withColor {
		return c.String()
	}

	switch c {
	case compatibility.OK:
		return color.Green.Sprint(c.String())
	case compatibility.Old:
		return color.Red.Sprint(c.String())
	default:
		return color.Yellow.Sprint(c.String())
	}
}
