// ABOUTME: Help display for the dashboard CLI with grouped flags, key bindings and environment variables.
package main

import (
	"fmt"
	"io"
)

// printHelp writes a formatted help message to w.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "astiencoder-dashboard %s: live view of an astiencoder engine\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  astiencoder-dashboard [flags]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Connection Flags:")
	fmt.Fprintln(w, "  --base-url <url>              Engine address (default: http://127.0.0.1:4000)")
	fmt.Fprintln(w, "  --retry-delay <dur>           Delay between reconnect attempts (default: 1s)")
	fmt.Fprintln(w, "  --heartbeat-interval <dur>    Keepalive ping interval (default: 50s)")
	fmt.Fprintln(w, "  --request-timeout <dur>       Timeout for one-shot requests (default: none)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Output Flags:")
	fmt.Fprintln(w, "  --headless                    Log session changes instead of drawing the UI")
	fmt.Fprintln(w, "  --log-level <level>           debug, info, warn, error (default: info)")
	fmt.Fprintln(w, "  --log-format <fmt>            console or json (default: console)")
	fmt.Fprintln(w, "  --log-output <dest>           stderr, stdout or a file path")
	fmt.Fprintln(w, "  --metrics-addr <addr>         Serve Prometheus metrics, e.g. :9100")
	fmt.Fprintln(w, "  --trace-output <dest>         Export request spans to stdout, stderr or a file")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other Flags:")
	fmt.Fprintln(w, "  -c, --config <file>           YAML config file")
	fmt.Fprintln(w, "  --playback-dir <dir>          Directory for relative recording paths")
	fmt.Fprintln(w, "  --version                     Print version and exit")
	fmt.Fprintln(w, "  -h, --help                    Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Keys:")
	fmt.Fprintln(w, "  tab  next panel     ↑/↓  move       /  search       →  next playback step")
	fmt.Fprintln(w, "  o    open recording u    leave playback")
	fmt.Fprintln(w, "  s/h  show/hide tag  r    reset tags q  quit")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  Every setting can be given as ASTIENCODER_<KEY>, e.g. ASTIENCODER_BASE_URL,")
	fmt.Fprintln(w, "  ASTIENCODER_LOG_LEVEL. A .env file in the working directory is loaded first.")
}
