// Command feasctl classifies product requests from the terminal.
//
//	feasctl classify -f request.json --output yaml
//	feasctl parse "500 tote bags with embroidered logo, target $3"
//	feasctl levels
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
