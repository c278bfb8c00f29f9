package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/term"

	"github.com/anchore/modcompat/internal/config"
	"github.com/anchore/modcompat/internal/version"
	"github.com/anchore/modcompat/modcompat/compatibility"
)

func stderrPrintLnf(message string, args ...interface{}) error {
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	_, err := fmt.Fprintf(os.Stderr, message, args...)
	return err
}

// supportsColor reports whether stdout is a terminal.
func supportsColor() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newResolver(cfg *config.Application, opts ...compatibility.Option) (*compatibility.Resolver, error) {
	return compatibility.NewResolver(cfg.Compatibility.ToResolverConfig(version.FromBuild().UserAgent()), opts...)
}

func httpClient(cfg *config.Application) *http.Client {
	client := cleanhttp.DefaultClient()
	if cfg.Compatibility.Timeout > 0 {
		client.Timeout = cfg.Compatibility.Timeout
	}
	return client
}
