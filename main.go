package main

import (
	"fmt"
	"os"

	"github.com/zpam/sms-filter/cmd"
	"github.com/zpam/sms-filter/pkg/apperr"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		if hint := apperr.Hint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "💡 %s\n", hint)
		}
		os.Exit(1)
	}
}
