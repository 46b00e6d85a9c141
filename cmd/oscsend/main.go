// oscsend sends control messages to a running glyphwall controller.
//
//	oscsend [-host 127.0.0.1] [-port 8000] <command> [args]
//
// Commands: on, off, flash, next, set <key> <value>
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/hypebeast/go-osc/osc"
)

func main() {
	host := flag.String("host", "127.0.0.1", "controller host")
	port := flag.Int("port", 8000, "controller OSC port")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	var msg *osc.Message
	switch args[0] {
	case "on":
		msg = osc.NewMessage("/power/on")
	case "off":
		msg = osc.NewMessage("/power/off")
	case "flash":
		msg = osc.NewMessage("/background/flash")
	case "next":
		msg = osc.NewMessage("/glyph/next")
	case "set":
		if len(args) != 3 {
			usage()
		}
		value, err := strconv.ParseFloat(args[2], 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad value %q: %v\n", args[2], err)
			os.Exit(1)
		}
		msg = osc.NewMessage("/transition/config")
		msg.Append(args[1])
		msg.Append(float32(value))
	default:
		usage()
	}

	client := osc.NewClient(*host, *port)
	if err := client.Send(msg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: oscsend [-host H] [-port P] on|off|flash|next|set <key> <value>")
	os.Exit(1)
}
