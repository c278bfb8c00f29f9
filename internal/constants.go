package internal

const (
	// ApplicationName is the non-capitalized name of the application (do not change this)
	ApplicationName = "modcompat"

	// CompatibilityTableURL is where the maintained list of compatibility epochs is published.
	CompatibilityTableURL = "https://raw.githubusercontent.com/WulfMarius/Mod-Installer/master/tld-versions.json"
)
