/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package pmc implements the command line option model of the pmc tool:
// network transport selection, the boundary-hops/domain/interface/uds/TLV
// knobs, and the positional management commands that follow them.
package pmc

import (
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// LoopVal is the result of parsing a command line.
type LoopVal int

// parse_options return values
const (
	// OptErr means parsing failed; Msg carries the error
	OptErr LoopVal = iota
	// OptMsg means parsing produced a message to print, not an error (e.g. --version)
	OptMsg
	// OptHelp means the caller asked for help
	OptHelp
	// OptDone means parsing succeeded and Options is ready to use
	OptDone
)

// NetworkTransport identifies which PTP transport pmc should use.
type NetworkTransport byte

// values mirror the single-character net_select pmc uses internally
const (
	TransportNone NetworkTransport = 0
	TransportL2   NetworkTransport = '2'
	TransportUDP4 NetworkTransport = '4'
	TransportUDP6 NetworkTransport = '6'
	TransportUDS  NetworkTransport = 'u'
)

// Options holds the parsed command line state, following pmc's -h/-v/-b/-d/-f/
// -i/-s/-t/-z/-2/-4/-6/-u and the long-only network_transport/ptp_dst_mac/
// udp6_scope/udp_ttl/socket_priority options.
type Options struct {
	Msg string

	netSelect NetworkTransport
	values    map[string]string
	args      []string
}

// default values pmc shows in its help text
const (
	DefaultBoundaryHops = 1
	DefaultDomainNumber = 0
	DefaultInterface    = "eth0"
	DefaultUDSAddress   = "/var/run/ptp4l"
)

// Have reports whether opt appeared on the command line.
func (o *Options) Have(opt byte) bool {
	_, ok := o.values[string(opt)]
	return ok
}

// Val returns the string value given to opt, or "" if absent.
func (o *Options) Val(opt byte) string {
	return o.values[string(opt)]
}

// ValInt returns the integer value given to opt, using atoi-style leading-digit
// parsing (invalid or absent input yields 0, matching pmc's val_i).
func (o *Options) ValInt(opt byte) int {
	return atoiLenient(o.Val(opt))
}

func atoiLenient(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return int(n)
	}
	end := 0
	for end < len(s) && (s[end] == '-' || s[end] == '+' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return int(n)
}

// NetTransport returns the selected network transport, or TransportNone if
// none was selected on the command line.
func (o *Options) NetTransport() NetworkTransport {
	return o.netSelect
}

// Args returns the positional arguments left over after option parsing —
// the management commands pmc runs, e.g. ["GET", "CURRENT_DATA_SET"].
func (o *Options) Args() []string {
	return o.args
}

var networkTransportNames = map[string]NetworkTransport{
	"udpv4": TransportUDP4,
	"udpv6": TransportUDP6,
	"l2":    TransportL2,
}

// ParseOptions parses argv (argv[0] is the program name, matching getopt
// convention and the "Go: obj.Parse_options(os.Args)" binding note in pmc's
// option header) and returns the parse outcome.
func ParseOptions(argv []string) (*Options, LoopVal) {
	o := &Options{values: map[string]string{}}
	if len(argv) > 0 {
		argv = argv[1:]
	}

	fs := pflag.NewFlagSet("pmc", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	// short options with an argument; long name is the short option's own
	// long alias where pmc defines one (b/f/i have none, per start[]).
	shortArgOpts := map[byte]string{
		'b': "b", 'd': "domainNumber", 'f': "f", 'i': "i",
		's': "uds_address", 't': "transportSpecific",
	}
	flags := map[byte]*string{}
	flagLongName := map[byte]string{}
	for opt, long := range shortArgOpts {
		flags[opt] = fs.StringP(long, string(opt), "", "")
		flagLongName[opt] = long
	}
	h := fs.BoolP("h", "h", false, "")
	v := fs.BoolP("v", "v", false, "")
	z := fs.BoolP("z", "z", false, "")
	l2 := fs.BoolP("2", "2", false, "")
	udp4 := fs.BoolP("4", "4", false, "")
	udp6 := fs.BoolP("6", "6", false, "")
	uds := fs.BoolP("u", "u", false, "")
	netTransport := fs.String("network_transport", "", "")
	dstMac := fs.String("ptp_dst_mac", "", "")
	udp6Scope := fs.String("udp6_scope", "", "")
	udpTTL := fs.String("udp_ttl", "", "")
	sockPrio := fs.String("socket_priority", "", "")

	if err := fs.Parse(argv); err != nil {
		o.Msg = "invalid option -- '" + lastUnknownFlag(argv) + "'"
		return o, OptErr
	}

	if *v {
		o.Msg = pmcVersion
		return o, OptMsg
	}
	if *h {
		return o, OptHelp
	}

	netCount := 0
	if *l2 {
		o.netSelect = TransportL2
		netCount++
	}
	if *udp4 {
		o.netSelect = TransportUDP4
		netCount++
	}
	if *udp6 {
		o.netSelect = TransportUDP6
		netCount++
	}
	if *uds {
		o.netSelect = TransportUDS
		netCount++
	}
	if *netTransport != "" {
		t, ok := networkTransportNames[strings.ToLower(*netTransport)]
		if !ok {
			o.Msg = "Wrong network transport -- '" + *netTransport + "'"
			return o, OptErr
		}
		o.netSelect = t
		netCount++
	}
	if netCount > 1 {
		o.Msg = "only one network transport may be selected"
		return o, OptErr
	}

	for opt, val := range flags {
		if fs.Changed(flagLongName[opt]) {
			o.values[string(opt)] = *val
		}
	}
	if *z {
		o.values["z"] = "1"
	}
	if *dstMac != "" {
		o.values["ptp_dst_mac"] = *dstMac
	}
	if *udp6Scope != "" {
		o.values["udp6_scope"] = *udp6Scope
	}
	if *udpTTL != "" {
		o.values["udp_ttl"] = *udpTTL
	}
	if *sockPrio != "" {
		o.values["socket_priority"] = *sockPrio
	}

	o.args = fs.Args()
	return o, OptDone
}

// lastUnknownFlag recovers the offending token for an error message when
// pflag's own parse fails; pflag discards this detail once SetOutput(io.Discard)
// suppresses its default reporting.
func lastUnknownFlag(argv []string) string {
	for _, a := range argv {
		if strings.HasPrefix(a, "-") {
			return strings.TrimLeft(a, "-")
		}
	}
	return ""
}

// pmcVersion is reported by -v/--version; pmc proper reports the linuxptp
// release it was built against, which has no equivalent here.
const pmcVersion = "pmc (ptpmgmt)"
