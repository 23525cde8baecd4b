/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package

Registration happens at package init so the variables carry their defaults
immediately, but parsing is deferred to Parse, called from each service
main. Parsing during init would race the testing package's own flag
registration and abort every test binary linked against this package.
*/

package flag

import (
	"flag"
)

var (
	IsDevelopment bool
	ServiceName   string
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", "api_server", "name of the running service, used to tag log entries")
}

// Parse reads the command line into the registered flags. Call once from
// main before the flag values are consumed.
func Parse() {
	if !flag.Parsed() {
		flag.Parse()
	}
}
