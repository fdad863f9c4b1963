// Command wxt-decode replays captured WXT520 output (a file or stdin) through
// the decoder and prints the resulting conditions.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	stationID := flag.Int("station", 0, "Transmitter address to decode")
	pressureUnit := flag.String("pressure-unit", "hPa", "Pressure output unit (Pa, hPa, bar, mmHg, inHg)")
	speedUnit := flag.String("speed-unit", "m/s", "Wind speed output unit (m/s, km/s, mph, kn)")
	tempUnit := flag.String("temp-unit", "C", "Temperature output unit (C, F)")
	showRaw := flag.Bool("raw", false, "Echo each sentence as it is decoded")
	noColor := flag.Bool("no-color", false, "Disable color output")
	flag.Parse()

	if *noColor {
		color.NoColor = true // disables colorized output globally
	}

	opts, err := newOptions(*stationID, *pressureUnit, *speedUnit, *tempUnit, *showRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if flag.NArg() > 0 {
		err = runFile(flag.Arg(0), os.Stdout, opts)
	} else {
		err = run(os.Stdin, os.Stdout, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
