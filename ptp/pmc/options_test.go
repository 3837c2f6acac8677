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

package pmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsTransportDomainFile(t *testing.T) {
	opts, loop := ParseOptions([]string{"pmc", "-4", "-d", "54", "-f", "dummy"})
	require.Equal(t, OptDone, loop)
	assert.Equal(t, TransportUDP4, opts.NetTransport())
	assert.Equal(t, "54", opts.Val('d'))
	assert.Equal(t, 54, opts.ValInt('d'))
	assert.Equal(t, "dummy", opts.Val('f'))
	assert.Empty(t, opts.Args())
}

func TestParseOptionsVersion(t *testing.T) {
	opts, loop := ParseOptions([]string{"pmc", "-v"})
	require.Equal(t, OptMsg, loop)
	assert.Equal(t, pmcVersion, opts.Msg)
}

func TestParseOptionsHelp(t *testing.T) {
	_, loop := ParseOptions([]string{"pmc", "-h"})
	require.Equal(t, OptHelp, loop)
}

func TestParseOptionsPositionalArgs(t *testing.T) {
	opts, loop := ParseOptions([]string{"pmc", "-u", "GET", "DOMAIN"})
	require.Equal(t, OptDone, loop)
	assert.Equal(t, TransportUDS, opts.NetTransport())
	assert.Equal(t, []string{"GET", "DOMAIN"}, opts.Args())
}

func TestParseOptionsMutuallyExclusiveTransports(t *testing.T) {
	_, loop := ParseOptions([]string{"pmc", "-4", "-6"})
	assert.Equal(t, OptErr, loop)
}

func TestParseOptionsNetworkTransportLongOption(t *testing.T) {
	opts, loop := ParseOptions([]string{"pmc", "--network_transport", "UDPv6"})
	require.Equal(t, OptDone, loop)
	assert.Equal(t, TransportUDP6, opts.NetTransport())
}

func TestParseOptionsUnknownNetworkTransportRejected(t *testing.T) {
	_, loop := ParseOptions([]string{"pmc", "--network_transport", "carrier-pigeon"})
	assert.Equal(t, OptErr, loop)
}

func TestParseOptionsZeroLengthFlag(t *testing.T) {
	opts, loop := ParseOptions([]string{"pmc", "-z", "GET", "DOMAIN"})
	require.Equal(t, OptDone, loop)
	assert.True(t, opts.Have('z'))
}

func TestParseOptionsUnsetOptionReportsAbsent(t *testing.T) {
	opts, loop := ParseOptions([]string{"pmc", "GET", "DOMAIN"})
	require.Equal(t, OptDone, loop)
	assert.False(t, opts.Have('d'))
	assert.Equal(t, 0, opts.ValInt('d'))
}

func TestParseOptionsUnknownFlagIsError(t *testing.T) {
	_, loop := ParseOptions([]string{"pmc", "--not-a-real-flag"})
	assert.Equal(t, OptErr, loop)
}

func TestAtoiLenientAcceptsHexAndLeadingDigits(t *testing.T) {
	assert.Equal(t, 0x2a, atoiLenient("0x2a"))
	assert.Equal(t, 42, atoiLenient("42abc"))
	assert.Equal(t, -7, atoiLenient("-7"))
	assert.Equal(t, 0, atoiLenient("notanumber"))
}
