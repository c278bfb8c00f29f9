package internal

import (
	"time"

	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/presenter/models"
)

// GenerateDocument returns a report covering every compatibility outcome.
func GenerateDocument() models.Document {
	checked := time.Date(2023, 2, 14, 9, 30, 0, 0, time.UTC)
	return models.Document{
		Installed: models.Installed{Version: "2.06", Epoch: "2.00"},
		Mods: []models.Mod{
			{Name: "BetterBases", Version: "1.2.0", CompatibleWith: "2.02", ReleaseDate: "2022-12-10", Compatibility: compatibility.OK},
			{Name: "AmbientLights", Version: "3.1", ReleaseDate: "2021-05-01", Compatibility: compatibility.Old},
			{Name: "Unknown-Mod", Version: "0.1", ReleaseDate: "2020-01-01", Compatibility: compatibility.Unknown},
		},
		Descriptor: models.Descriptor{
			Name:    "modcompat",
			Version: "0.1.0",
			Table: models.TableStatus{
				Epochs:  5,
				ETag:    `"abc"`,
				Checked: &checked,
			},
		},
	}
}
