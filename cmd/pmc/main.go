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

// Command pmc builds and prints PTP management requests the way the pmc
// tool's `-j` output does. It stops at the JSON request: opening a UDS/UDP/L2
// transport and waiting for a response is a concrete transport concern this
// module treats as an opaque collaborator.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/facebook/ptpmgmt/ptp/pmc"
	"github.com/facebook/ptpmgmt/ptp/protocol"
	log "github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	opts, loop := pmc.ParseOptions(argv)
	switch loop {
	case pmc.OptErr:
		fmt.Fprintln(os.Stderr, opts.Msg)
		return 1
	case pmc.OptHelp:
		printUsage()
		return 0
	case pmc.OptMsg:
		fmt.Println(opts.Msg)
		return 0
	}

	if len(opts.Args()) == 0 {
		fmt.Fprintln(os.Stderr, "no management command given")
		return 1
	}

	msg, err := buildRequest(opts)
	if err != nil {
		log.Errorf("building management request: %v", err)
		return 1
	}

	out, err := msg.ToJSON(0)
	if err != nil {
		log.Errorf("rendering management request: %v", err)
		return 2
	}
	fmt.Println(out)
	return 0
}

// buildRequest turns the positional "ACTION MANAGEMENT_ID [field=value ...]"
// command into a Management request by round-tripping it through the JSON
// acceptor (§4.7), which already knows how to validate and coerce dataField.
func buildRequest(opts *pmc.Options) (*protocol.Management, error) {
	args := opts.Args()
	action := args[0]
	managementID := ""
	if len(args) > 1 {
		managementID = args[1]
	}

	doc := map[string]any{
		"actionField":  action,
		"managementId": managementID,
	}
	if opts.Have('d') {
		doc["domainNumber"] = opts.ValInt('d')
	}
	if len(args) > 2 {
		fields := map[string]any{}
		for _, kv := range args[2:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("malformed field assignment %q, want key=value", kv)
			}
			fields[k] = v
		}
		doc["dataField"] = fields
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return protocol.ParseManagementJSON(raw)
}

func printUsage() {
	fmt.Println(`pmc [OPTIONS] ACTION MANAGEMENT_ID [field=value ...]

Network Transport
 -2             IEEE 802.3
 -4             UDP IPV4 (default)
 -6             UDP IPV6
 -u             UDS local

Other Options
 -b [num]       boundary hops, default 1
 -d [num]       domain number, default 0
 -f [file]      read configuration from 'file'
 -h             prints this message and exits
 -i [dev]       interface device to use, default 'eth0'
 -s [path]      server address for UDS, default '/var/run/ptp4l'
 -t [hex]       transport specific field, default 0x0
 -v             prints the software version and exits
 -z             send zero length TLV values with the GET actions`)
}
