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

package protocol

import (
	"bytes"
	"fmt"
)

func init() {
	registerManagementTLV(IDSMPTEMngID, func() ManagementTLV { return &SMPTEOrganizationExtensionTLV{} })
}

// smpteOrganizationID/smpteOrganizationSubType are the SMPTE ST 2059-2 OUI and
// subtype carried by an ORGANIZATION_EXTENSION TLV's organizationId/
// organizationSubType fields.
var (
	smpteOrganizationID      = [3]byte{0x68, 0x97, 0xe8}
	smpteOrganizationSubType = [3]byte{0x00, 0x00, 0x01}
)

func isSMPTEOrganizationExtension(b []byte) bool {
	return len(b) >= tlvHeadSize+6 &&
		bytes.Equal(b[tlvHeadSize:tlvHeadSize+3], smpteOrganizationID[:]) &&
		bytes.Equal(b[tlvHeadSize+3:tlvHeadSize+6], smpteOrganizationSubType[:])
}

// SMPTEMasterLockingStatus is the SMPTE ST 2059-2 masterLockingStatus enum.
type SMPTEMasterLockingStatus uint8

// masterLockingStatus values. Only FreeRun is directly attested by a decoded
// wire fixture; the rest follow SMPTE ST 2059-2's published enumeration.
const (
	SMPTELockingStatusFreeRun     SMPTEMasterLockingStatus = 1
	SMPTELockingStatusColdLocking SMPTEMasterLockingStatus = 2
	SMPTELockingStatusWarmLocking SMPTEMasterLockingStatus = 3
	SMPTELockingStatusLocked      SMPTEMasterLockingStatus = 4
)

var smpteMasterLockingStatusToString = map[SMPTEMasterLockingStatus]string{
	SMPTELockingStatusFreeRun:     "FREE_RUN",
	SMPTELockingStatusColdLocking: "COLD_LOCKING",
	SMPTELockingStatusWarmLocking: "WARM_LOCKING",
	SMPTELockingStatusLocked:      "LOCKED",
}

func (s SMPTEMasterLockingStatus) String() string {
	if name, ok := smpteMasterLockingStatusToString[s]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(s))
}

// SMPTEOrganizationExtensionTLV carries SMPTE ST 2059-2 frame rate and locking
// status. It is decoded from an ORGANIZATION_EXTENSION TLV whose
// organizationId/organizationSubType match the SMPTE OUI, and is surfaced
// through the management dispatcher under managementId SMPTE_MNG_ID even
// though its own tlvType stays ORGANIZATION_EXTENSION.
type SMPTEOrganizationExtensionTLV struct {
	TLVHead

	OrganizationID                    [3]byte
	OrganizationSubType               [3]byte
	DefaultSystemFrameRateNumerator   uint32
	DefaultSystemFrameRateDenominator uint32
	MasterLockingStatus               SMPTEMasterLockingStatus
	TimeAddressFlags                  uint8
	CurrentLocalOffset                int32
	JumpSeconds                       int32
	TimeOfNextJump                    PTPSeconds
	TimeOfNextJam                     PTPSeconds
	TimeOfPreviousJam                 PTPSeconds
	PreviousJamLocalOffset            int32
	DaylightSaving                    uint8
	LeapSecondJump                    uint8
}

// MgmtID returns the synthetic managementId SMPTE payloads are surfaced under.
func (t *SMPTEOrganizationExtensionTLV) MgmtID() ManagementID { return IDSMPTEMngID }

// MarshalBinary converts packet to []bytes
func (t *SMPTEOrganizationExtensionTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }

// UnmarshalBinary parses []byte and populates struct fields
func (t *SMPTEOrganizationExtensionTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// OrganizationExtensionTLV is a generic ORGANIZATION_EXTENSION TLV whose
// organizationId/organizationSubType do not match a recognized profile (e.g.
// SMPTE); the payload is carried as opaque octets.
type OrganizationExtensionTLV struct {
	TLVHead

	OrganizationID      [3]byte
	OrganizationSubType [3]byte
	Data                Binary
}

// MarshalBinaryTo marshals bytes to OrganizationExtensionTLV
func (t *OrganizationExtensionTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	copy(b[tlvHeadSize:], t.OrganizationID[:])
	copy(b[tlvHeadSize+3:], t.OrganizationSubType[:])
	copy(b[tlvHeadSize+6:], t.Data)
	return tlvHeadSize + 6 + len(t.Data), nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *OrganizationExtensionTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 6, false); err != nil {
		return err
	}
	copy(t.OrganizationID[:], b[tlvHeadSize:])
	copy(t.OrganizationSubType[:], b[tlvHeadSize+3:])
	payloadLen := int(t.TLVHead.LengthField) - 6
	t.Data = make(Binary, payloadLen)
	copy(t.Data, b[tlvHeadSize+6:tlvHeadSize+6+payloadLen])
	return nil
}
