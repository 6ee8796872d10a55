// bblstat prints a per-session summary of a Betaflight blackbox log: its
// header metadata, frame counts, sample rate, and any quality warnings. It
// holds no decoding logic of its own; everything here is reporting over the
// bbl package's Parse result.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flightlog/bblcore"
)

var flagVerbose bool

func init() {
	flag.BoolVar(&flagVerbose, "v", false, "Print per-channel warnings.")
}

func main() {
	flag.Parse()
	for _, path := range flag.Args() {
		if err := bblstat(path); err != nil {
			log.Fatal(err)
		}
	}
}

func bblstat(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := bbl.Parse(buf)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("%s: %d bytes, %d session(s), parsed in %dms\n", path, result.FileSize, len(result.Sessions), result.ParseTimeMs)
	if !result.Success {
		fmt.Printf("  %s\n", result.Error)
		return nil
	}

	for _, sess := range result.Sessions {
		fmt.Printf("session %d: %s %s, %d frames (%d corrupted), %.1f Hz, %.2fs\n",
			sess.Index, sess.Header.Product, sess.Header.FirmwareRevision,
			sess.FlightData.FrameCount, sess.CorruptedFrameCount,
			sess.FlightData.SampleRateHz, sess.FlightData.DurationS)
		if flagVerbose {
			for _, w := range sess.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
		}
	}
	return nil
}
