package internal

import (
	"fmt"
	"os"
)

// IsPipedInput returns true if stdin is not a character device, which means the user **may** be providing input via a pipe.
func IsPipedInput() (bool, error) {
	return isPiped(os.Stdin)
}

func isPiped(f *os.File) (bool, error) {
	fi, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to determine if there is piped input: %w", err)
	}

	return fi.Mode()&os.ModeCharDevice == 0, nil
}
