package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish]",
	Short: "Generate a shell completion for modcompat",
	Long: `To load completions:

Bash:

$ source <(modcompat completion bash)

Zsh:

$ modcompat completion zsh > "${fpath[1]}/_modcompat"

Fish:

$ modcompat completion fish | source
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish"},
	Args:                  cobra.ExactValidArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeCompletion(cmd.Root(), os.Stdout, args[0])
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func writeCompletion(root *cobra.Command, w io.Writer, shell string) error {
	switch shell {
	case "bash":
		return root.GenBashCompletion(w)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	default:
		return fmt.Errorf("unsupported shell: %s", shell)
	}
}
