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

// management client is used to talk to (presumably local) PTP server using Management packets

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"io"
)

// MgmtClient talks to ptp server over unix socket
type MgmtClient struct {
	Connection io.ReadWriter
	Sequence   uint16
}

// SendPacket sends packet, incrementing sequence counter. Unlike Bytes(), this does not
// append the UDPv6 trailing padding: the management socket is message-framed, not UDP.
func (c *MgmtClient) SendPacket(packet Packet) error {
	c.Sequence++
	packet.SetSequence(c.Sequence)
	marshaler, ok := packet.(encoding.BinaryMarshaler)
	if !ok {
		return fmt.Errorf("packet %T does not support MarshalBinary", packet)
	}
	b, err := marshaler.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = c.Connection.Write(b)
	return err
}

// Communicate sends the management request and parses the response into a *Management,
// or returns an error built from the peer's MANAGEMENT_ERROR_STATUS TLV.
func (c *MgmtClient) Communicate(req *Management) (*Management, error) {
	if err := c.SendPacket(req); err != nil {
		return nil, err
	}
	response := make([]uint8, 1024)
	n, err := c.Connection.Read(response)
	if err != nil {
		return nil, err
	}
	p, err := decodeMgmtPacket(response[:n])
	if err != nil {
		return nil, err
	}
	if errorPacket, ok := p.(*ManagementMsgErrorStatus); ok {
		return nil, fmt.Errorf("got Management Error in response: %v", errorPacket.ManagementErrorStatusTLV.ManagementErrorID)
	}
	management, ok := p.(*Management)
	if !ok {
		return nil, fmt.Errorf("got unexpected packet %T, expected %T", p, management)
	}
	return management, nil
}

// newMgmtRequest builds a GET request with an empty payload for the given managementId,
// just like pmc does for any id it doesn't need to populate a request body for.
func newMgmtRequest(id ManagementID) *Management {
	headerSize := uint16(binary.Size(ManagementMsgHead{}))
	tlvHeadSize := uint16(binary.Size(TLVHead{}))
	return &Management{
		ManagementMsgHead: ManagementMsgHead{
			Header: Header{
				SdoIDAndMsgType:    NewSdoIDAndMsgType(MessageManagement, 0),
				Version:            Version,
				MessageLength:      headerSize + tlvHeadSize + tlvBaseSize,
				SourcePortIdentity: identity,
				LogMessageInterval: MgmtLogMessageInterval,
			},
			TargetPortIdentity:   DefaultTargetPortIdentity,
			StartingBoundaryHops: 0,
			BoundaryHops:         0,
			ActionField:          GET,
		},
		TLV: &ManagementTLVHead{
			TLVHead: TLVHead{
				TLVType:     TLVManagement,
				LengthField: tlvBaseSize,
			},
			ManagementID: id,
		},
	}
}

// mgmtGet sends a GET for id and type-asserts the response TLV to T.
func mgmtGet[T ManagementTLV](c *MgmtClient, id ManagementID) (T, error) {
	var zero T
	p, err := c.Communicate(newMgmtRequest(id))
	if err != nil {
		return zero, err
	}
	tlv, ok := p.TLV.(T)
	if !ok {
		return zero, fmt.Errorf("got unexpected management TLV %T for %s, wanted %T", p.TLV, id, zero)
	}
	return tlv, nil
}

// NullPTPManagementRequest prepares request packet for NULL_PTP_MANAGEMENT
func NullPTPManagementRequest() *Management { return newMgmtRequest(IDNullPTPManagement) }

// ClockDescriptionRequest prepares request packet for CLOCK_DESCRIPTION
func ClockDescriptionRequest() *Management { return newMgmtRequest(IDClockDescription) }

// ClockDescription sends CLOCK_DESCRIPTION request and returns response
func (c *MgmtClient) ClockDescription() (*ClockDescriptionTLV, error) {
	return mgmtGet[*ClockDescriptionTLV](c, IDClockDescription)
}

// UserDescriptionRequest prepares request packet for USER_DESCRIPTION
func UserDescriptionRequest() *Management { return newMgmtRequest(IDUserDescription) }

// UserDescription sends USER_DESCRIPTION request and returns response
func (c *MgmtClient) UserDescription() (*UserDescriptionTLV, error) {
	return mgmtGet[*UserDescriptionTLV](c, IDUserDescription)
}

// DefaultDataSetRequest prepares request packet for DEFAULT_DATA_SET request
func DefaultDataSetRequest() *Management { return newMgmtRequest(IDDefaultDataSet) }

// DefaultDataSet sends DEFAULT_DATA_SET request and returns response
func (c *MgmtClient) DefaultDataSet() (*DefaultDataSetTLV, error) {
	return mgmtGet[*DefaultDataSetTLV](c, IDDefaultDataSet)
}

// CurrentDataSetRequest prepares request packet for CURRENT_DATA_SET request
func CurrentDataSetRequest() *Management { return newMgmtRequest(IDCurrentDataSet) }

// CurrentDataSet sends CURRENT_DATA_SET request and returns response
func (c *MgmtClient) CurrentDataSet() (*CurrentDataSetTLV, error) {
	return mgmtGet[*CurrentDataSetTLV](c, IDCurrentDataSet)
}

// ParentDataSetRequest prepares request packet for PARENT_DATA_SET request
func ParentDataSetRequest() *Management { return newMgmtRequest(IDParentDataSet) }

// ParentDataSet sends PARENT_DATA_SET request and returns response
func (c *MgmtClient) ParentDataSet() (*ParentDataSetTLV, error) {
	return mgmtGet[*ParentDataSetTLV](c, IDParentDataSet)
}

// TimePropertiesDataSetRequest prepares request packet for TIME_PROPERTIES_DATA_SET request
func TimePropertiesDataSetRequest() *Management { return newMgmtRequest(IDTimePropertiesDataSet) }

// TimePropertiesDataSet sends TIME_PROPERTIES_DATA_SET request and returns response
func (c *MgmtClient) TimePropertiesDataSet() (*TimePropertiesDataSetTLV, error) {
	return mgmtGet[*TimePropertiesDataSetTLV](c, IDTimePropertiesDataSet)
}

// Priority1Request prepares request packet for PRIORITY1 request
func Priority1Request() *Management { return newMgmtRequest(IDPriority1) }

// Priority1 sends PRIORITY1 request and returns response
func (c *MgmtClient) Priority1() (*Priority1TLV, error) {
	return mgmtGet[*Priority1TLV](c, IDPriority1)
}

// Priority2Request prepares request packet for PRIORITY2 request
func Priority2Request() *Management { return newMgmtRequest(IDPriority2) }

// Priority2 sends PRIORITY2 request and returns response
func (c *MgmtClient) Priority2() (*Priority2TLV, error) {
	return mgmtGet[*Priority2TLV](c, IDPriority2)
}

// DomainRequest prepares request packet for DOMAIN request
func DomainRequest() *Management { return newMgmtRequest(IDDomain) }

// Domain sends DOMAIN request and returns response
func (c *MgmtClient) Domain() (*DomainTLV, error) {
	return mgmtGet[*DomainTLV](c, IDDomain)
}

// SlaveOnlyRequest prepares request packet for SLAVE_ONLY request
func SlaveOnlyRequest() *Management { return newMgmtRequest(IDSlaveOnly) }

// SlaveOnly sends SLAVE_ONLY request and returns response
func (c *MgmtClient) SlaveOnly() (*SlaveOnlyTLV, error) {
	return mgmtGet[*SlaveOnlyTLV](c, IDSlaveOnly)
}

// LogAnnounceIntervalRequest prepares request packet for LOG_ANNOUNCE_INTERVAL request
func LogAnnounceIntervalRequest() *Management { return newMgmtRequest(IDLogAnnounceInterval) }

// LogAnnounceInterval sends LOG_ANNOUNCE_INTERVAL request and returns response
func (c *MgmtClient) LogAnnounceInterval() (*LogAnnounceIntervalTLV, error) {
	return mgmtGet[*LogAnnounceIntervalTLV](c, IDLogAnnounceInterval)
}

// AnnounceReceiptTimeoutRequest prepares request packet for ANNOUNCE_RECEIPT_TIMEOUT request
func AnnounceReceiptTimeoutRequest() *Management { return newMgmtRequest(IDAnnounceReceiptTimeout) }

// AnnounceReceiptTimeout sends ANNOUNCE_RECEIPT_TIMEOUT request and returns response
func (c *MgmtClient) AnnounceReceiptTimeout() (*AnnounceReceiptTimeoutTLV, error) {
	return mgmtGet[*AnnounceReceiptTimeoutTLV](c, IDAnnounceReceiptTimeout)
}

// LogSyncIntervalRequest prepares request packet for LOG_SYNC_INTERVAL request
func LogSyncIntervalRequest() *Management { return newMgmtRequest(IDLogSyncInterval) }

// LogSyncInterval sends LOG_SYNC_INTERVAL request and returns response
func (c *MgmtClient) LogSyncInterval() (*LogSyncIntervalTLV, error) {
	return mgmtGet[*LogSyncIntervalTLV](c, IDLogSyncInterval)
}

// VersionNumberRequest prepares request packet for VERSION_NUMBER request
func VersionNumberRequest() *Management { return newMgmtRequest(IDVersionNumber) }

// VersionNumber sends VERSION_NUMBER request and returns response
func (c *MgmtClient) VersionNumber() (*VersionNumberTLV, error) {
	return mgmtGet[*VersionNumberTLV](c, IDVersionNumber)
}

// TimeRequest prepares request packet for TIME request
func TimeRequest() *Management { return newMgmtRequest(IDTime) }

// Time sends TIME request and returns response
func (c *MgmtClient) Time() (*TimeTLV, error) {
	return mgmtGet[*TimeTLV](c, IDTime)
}

// ClockAccuracyRequest prepares request packet for CLOCK_ACCURACY request
func ClockAccuracyRequest() *Management { return newMgmtRequest(IDClockAccuracy) }

// ClockAccuracy sends CLOCK_ACCURACY request and returns response
func (c *MgmtClient) ClockAccuracy() (*ClockAccuracyTLV, error) {
	return mgmtGet[*ClockAccuracyTLV](c, IDClockAccuracy)
}

// UTCPropertiesRequest prepares request packet for UTC_PROPERTIES request
func UTCPropertiesRequest() *Management { return newMgmtRequest(IDUTCProperties) }

// UTCProperties sends UTC_PROPERTIES request and returns response
func (c *MgmtClient) UTCProperties() (*UTCPropertiesTLV, error) {
	return mgmtGet[*UTCPropertiesTLV](c, IDUTCProperties)
}

// TraceabilityPropertiesRequest prepares request packet for TRACEABILITY_PROPERTIES request
func TraceabilityPropertiesRequest() *Management { return newMgmtRequest(IDTraceabilityProperties) }

// TraceabilityProperties sends TRACEABILITY_PROPERTIES request and returns response
func (c *MgmtClient) TraceabilityProperties() (*TraceabilityPropertiesTLV, error) {
	return mgmtGet[*TraceabilityPropertiesTLV](c, IDTraceabilityProperties)
}

// TimescalePropertiesRequest prepares request packet for TIMESCALE_PROPERTIES request
func TimescalePropertiesRequest() *Management { return newMgmtRequest(IDTimescaleProperties) }

// TimescaleProperties sends TIMESCALE_PROPERTIES request and returns response
func (c *MgmtClient) TimescaleProperties() (*TimescalePropertiesTLV, error) {
	return mgmtGet[*TimescalePropertiesTLV](c, IDTimescaleProperties)
}

// PathTraceListRequest prepares request packet for PATH_TRACE_LIST request
func PathTraceListRequest() *Management { return newMgmtRequest(IDPathTraceList) }

// PathTraceList sends PATH_TRACE_LIST request and returns response
func (c *MgmtClient) PathTraceList() (*PathTraceListTLV, error) {
	return mgmtGet[*PathTraceListTLV](c, IDPathTraceList)
}

// PathTraceEnableRequest prepares request packet for PATH_TRACE_ENABLE request
func PathTraceEnableRequest() *Management { return newMgmtRequest(IDPathTraceEnable) }

// PathTraceEnable sends PATH_TRACE_ENABLE request and returns response
func (c *MgmtClient) PathTraceEnable() (*PathTraceEnableTLV, error) {
	return mgmtGet[*PathTraceEnableTLV](c, IDPathTraceEnable)
}

// AcceptableMasterTableRequest prepares request packet for ACCEPTABLE_MASTER_TABLE request
func AcceptableMasterTableRequest() *Management { return newMgmtRequest(IDAcceptableMasterTable) }

// AcceptableMasterTable sends ACCEPTABLE_MASTER_TABLE request and returns response
func (c *MgmtClient) AcceptableMasterTable() (*AcceptableMasterTableTLV, error) {
	return mgmtGet[*AcceptableMasterTableTLV](c, IDAcceptableMasterTable)
}

// AcceptableMasterTableEnabledRequest prepares request packet for ACCEPTABLE_MASTER_TABLE_ENABLED request
func AcceptableMasterTableEnabledRequest() *Management {
	return newMgmtRequest(IDAcceptableMasterTableEnabled)
}

// AcceptableMasterTableEnabled sends ACCEPTABLE_MASTER_TABLE_ENABLED request and returns response
func (c *MgmtClient) AcceptableMasterTableEnabled() (*AcceptableMasterTableEnabledTLV, error) {
	return mgmtGet[*AcceptableMasterTableEnabledTLV](c, IDAcceptableMasterTableEnabled)
}

// AcceptableMasterMaxTableSizeRequest prepares request packet for ACCEPTABLE_MASTER_MAX_TABLE_SIZE request
func AcceptableMasterMaxTableSizeRequest() *Management {
	return newMgmtRequest(IDAcceptableMasterMaxTableSize)
}

// AcceptableMasterMaxTableSize sends ACCEPTABLE_MASTER_MAX_TABLE_SIZE request and returns response
func (c *MgmtClient) AcceptableMasterMaxTableSize() (*AcceptableMasterMaxTableSizeTLV, error) {
	return mgmtGet[*AcceptableMasterMaxTableSizeTLV](c, IDAcceptableMasterMaxTableSize)
}

// GrandmasterClusterTableRequest prepares request packet for GRANDMASTER_CLUSTER_TABLE request
func GrandmasterClusterTableRequest() *Management {
	return newMgmtRequest(IDGrandmasterClusterTable)
}

// GrandmasterClusterTable sends GRANDMASTER_CLUSTER_TABLE request and returns response
func (c *MgmtClient) GrandmasterClusterTable() (*GrandmasterClusterTableTLV, error) {
	return mgmtGet[*GrandmasterClusterTableTLV](c, IDGrandmasterClusterTable)
}

// UnicastMasterTableRequest prepares request packet for UNICAST_MASTER_TABLE request
func UnicastMasterTableRequest() *Management { return newMgmtRequest(IDUnicastMasterTable) }

// UnicastMasterTable sends UNICAST_MASTER_TABLE request and returns response
func (c *MgmtClient) UnicastMasterTable() (*UnicastMasterTableTLV, error) {
	return mgmtGet[*UnicastMasterTableTLV](c, IDUnicastMasterTable)
}

// UnicastMasterMaxTableSizeRequest prepares request packet for UNICAST_MASTER_MAX_TABLE_SIZE request
func UnicastMasterMaxTableSizeRequest() *Management {
	return newMgmtRequest(IDUnicastMasterMaxTableSize)
}

// UnicastMasterMaxTableSize sends UNICAST_MASTER_MAX_TABLE_SIZE request and returns response
func (c *MgmtClient) UnicastMasterMaxTableSize() (*UnicastMasterMaxTableSizeTLV, error) {
	return mgmtGet[*UnicastMasterMaxTableSizeTLV](c, IDUnicastMasterMaxTableSize)
}

// AlternateTimeOffsetEnableRequest prepares request packet for ALTERNATE_TIME_OFFSET_ENABLE request
func AlternateTimeOffsetEnableRequest() *Management {
	return newMgmtRequest(IDAlternateTimeOffsetEnable)
}

// AlternateTimeOffsetEnable sends ALTERNATE_TIME_OFFSET_ENABLE request and returns response
func (c *MgmtClient) AlternateTimeOffsetEnable() (*AlternateTimeOffsetEnableTLV, error) {
	return mgmtGet[*AlternateTimeOffsetEnableTLV](c, IDAlternateTimeOffsetEnable)
}

// AlternateTimeOffsetNameRequest prepares request packet for ALTERNATE_TIME_OFFSET_NAME request
func AlternateTimeOffsetNameRequest() *Management {
	return newMgmtRequest(IDAlternateTimeOffsetName)
}

// AlternateTimeOffsetName sends ALTERNATE_TIME_OFFSET_NAME request and returns response
func (c *MgmtClient) AlternateTimeOffsetName() (*AlternateTimeOffsetNameTLV, error) {
	return mgmtGet[*AlternateTimeOffsetNameTLV](c, IDAlternateTimeOffsetName)
}

// AlternateTimeOffsetMaxKeyRequest prepares request packet for ALTERNATE_TIME_OFFSET_MAX_KEY request
func AlternateTimeOffsetMaxKeyRequest() *Management {
	return newMgmtRequest(IDAlternateTimeOffsetMaxKey)
}

// AlternateTimeOffsetMaxKey sends ALTERNATE_TIME_OFFSET_MAX_KEY request and returns response
func (c *MgmtClient) AlternateTimeOffsetMaxKey() (*AlternateTimeOffsetMaxKeyTLV, error) {
	return mgmtGet[*AlternateTimeOffsetMaxKeyTLV](c, IDAlternateTimeOffsetMaxKey)
}

// AlternateTimeOffsetPropertiesRequest prepares request packet for ALTERNATE_TIME_OFFSET_PROPERTIES request
func AlternateTimeOffsetPropertiesRequest() *Management {
	return newMgmtRequest(IDAlternateTimeOffsetProperties)
}

// AlternateTimeOffsetProperties sends ALTERNATE_TIME_OFFSET_PROPERTIES request and returns response
func (c *MgmtClient) AlternateTimeOffsetProperties() (*AlternateTimeOffsetPropertiesTLV, error) {
	return mgmtGet[*AlternateTimeOffsetPropertiesTLV](c, IDAlternateTimeOffsetProperties)
}

// ExternalPortConfigurationEnabledRequest prepares request packet for EXTERNAL_PORT_CONFIGURATION_ENABLED request
func ExternalPortConfigurationEnabledRequest() *Management {
	return newMgmtRequest(IDExternalPortConfigurationEnabled)
}

// ExternalPortConfigurationEnabled sends EXTERNAL_PORT_CONFIGURATION_ENABLED request and returns response
func (c *MgmtClient) ExternalPortConfigurationEnabled() (*ExternalPortConfigurationEnabledTLV, error) {
	return mgmtGet[*ExternalPortConfigurationEnabledTLV](c, IDExternalPortConfigurationEnabled)
}

// MasterOnlyRequest prepares request packet for MASTER_ONLY request
func MasterOnlyRequest() *Management { return newMgmtRequest(IDMasterOnly) }

// MasterOnly sends MASTER_ONLY request and returns response
func (c *MgmtClient) MasterOnly() (*MasterOnlyTLV, error) {
	return mgmtGet[*MasterOnlyTLV](c, IDMasterOnly)
}

// HoldoverUpgradeEnableRequest prepares request packet for HOLDOVER_UPGRADE_ENABLE request
func HoldoverUpgradeEnableRequest() *Management { return newMgmtRequest(IDHoldoverUpgradeEnable) }

// HoldoverUpgradeEnable sends HOLDOVER_UPGRADE_ENABLE request and returns response
func (c *MgmtClient) HoldoverUpgradeEnable() (*HoldoverUpgradeEnableTLV, error) {
	return mgmtGet[*HoldoverUpgradeEnableTLV](c, IDHoldoverUpgradeEnable)
}

// PrimaryDomainRequest prepares request packet for PRIMARY_DOMAIN request
func PrimaryDomainRequest() *Management { return newMgmtRequest(IDPrimaryDomain) }

// PrimaryDomain sends PRIMARY_DOMAIN request and returns response
func (c *MgmtClient) PrimaryDomain() (*PrimaryDomainTLV, error) {
	return mgmtGet[*PrimaryDomainTLV](c, IDPrimaryDomain)
}

// DelayMechanismRequest prepares request packet for DELAY_MECHANISM request
func DelayMechanismRequest() *Management { return newMgmtRequest(IDDelayMechanism) }

// DelayMechanism sends DELAY_MECHANISM request and returns response
func (c *MgmtClient) DelayMechanism() (*DelayMechanismTLV, error) {
	return mgmtGet[*DelayMechanismTLV](c, IDDelayMechanism)
}

// LogMinPdelayReqIntervalRequest prepares request packet for LOG_MIN_PDELAY_REQ_INTERVAL request
func LogMinPdelayReqIntervalRequest() *Management {
	return newMgmtRequest(IDLogMinPdelayReqInterval)
}

// LogMinPdelayReqInterval sends LOG_MIN_PDELAY_REQ_INTERVAL request and returns response
func (c *MgmtClient) LogMinPdelayReqInterval() (*LogMinPdelayReqIntervalTLV, error) {
	return mgmtGet[*LogMinPdelayReqIntervalTLV](c, IDLogMinPdelayReqInterval)
}

// FaultLogRequest prepares request packet for FAULT_LOG request
func FaultLogRequest() *Management { return newMgmtRequest(IDFaultLog) }

// FaultLog sends FAULT_LOG request and returns response
func (c *MgmtClient) FaultLog() (*FaultLogTLV, error) {
	return mgmtGet[*FaultLogTLV](c, IDFaultLog)
}

// SubscribeEventsNPRequest prepares request packet for SUBSCRIBE_EVENTS_NP request
func SubscribeEventsNPRequest() *Management { return newMgmtRequest(IDSubscribeEventsNP) }

// SubscribeEventsNP sends SUBSCRIBE_EVENTS_NP request and returns response
func (c *MgmtClient) SubscribeEventsNP() (*SubscribeEventsNPTLV, error) {
	return mgmtGet[*SubscribeEventsNPTLV](c, IDSubscribeEventsNP)
}

// GrandmasterSettingsNPRequest prepares request packet for GRANDMASTER_SETTINGS_NP request
func GrandmasterSettingsNPRequest() *Management { return newMgmtRequest(IDGrandmasterSettingsNP) }

// GrandmasterSettingsNP sends GRANDMASTER_SETTINGS_NP request and returns response
func (c *MgmtClient) GrandmasterSettingsNP() (*GrandmasterSettingsNPTLV, error) {
	return mgmtGet[*GrandmasterSettingsNPTLV](c, IDGrandmasterSettingsNP)
}

// PortDataSetRequest prepares request packet for PORT_DATA_SET request
func PortDataSetRequest() *Management { return newMgmtRequest(IDPortDataSet) }

// PortDataSet sends PORT_DATA_SET request and returns response
func (c *MgmtClient) PortDataSet() (*PortDataSetTLV, error) {
	return mgmtGet[*PortDataSetTLV](c, IDPortDataSet)
}

// TransparentClockDefaultDataSetRequest prepares request packet for TRANSPARENT_CLOCK_DEFAULT_DATA_SET request
func TransparentClockDefaultDataSetRequest() *Management {
	return newMgmtRequest(IDTransparentClockDefaultDataSet)
}

// TransparentClockDefaultDataSet sends TRANSPARENT_CLOCK_DEFAULT_DATA_SET request and returns response
func (c *MgmtClient) TransparentClockDefaultDataSet() (*TransparentClockDefaultDataSetTLV, error) {
	return mgmtGet[*TransparentClockDefaultDataSetTLV](c, IDTransparentClockDefaultDataSet)
}

// TransparentClockPortDataSetRequest prepares request packet for TRANSPARENT_CLOCK_PORT_DATA_SET request
func TransparentClockPortDataSetRequest() *Management {
	return newMgmtRequest(IDTransparentClockPortDataSet)
}

// TransparentClockPortDataSet sends TRANSPARENT_CLOCK_PORT_DATA_SET request and returns response
func (c *MgmtClient) TransparentClockPortDataSet() (*TransparentClockPortDataSetTLV, error) {
	return mgmtGet[*TransparentClockPortDataSetTLV](c, IDTransparentClockPortDataSet)
}

// ExtPortConfigPortDataSetRequest prepares request packet for EXT_PORT_CONFIG_PORT_DATA_SET request
func ExtPortConfigPortDataSetRequest() *Management {
	return newMgmtRequest(IDExtPortConfigPortDataSet)
}

// ExtPortConfigPortDataSet sends EXT_PORT_CONFIG_PORT_DATA_SET request and returns response
func (c *MgmtClient) ExtPortConfigPortDataSet() (*ExtPortConfigPortDataSetTLV, error) {
	return mgmtGet[*ExtPortConfigPortDataSetTLV](c, IDExtPortConfigPortDataSet)
}

// PortDataSetNPRequest prepares request packet for PORT_DATA_SET_NP request
func PortDataSetNPRequest() *Management { return newMgmtRequest(IDPortDataSetNP) }

// PortDataSetNP sends PORT_DATA_SET_NP request and returns response
func (c *MgmtClient) PortDataSetNP() (*PortDataSetNPTLV, error) {
	return mgmtGet[*PortDataSetNPTLV](c, IDPortDataSetNP)
}

// SynchronizationUncertainNPRequest prepares request packet for SYNCHRONIZATION_UNCERTAIN_NP request
func SynchronizationUncertainNPRequest() *Management {
	return newMgmtRequest(IDSynchronizationUncertainNP)
}

// SynchronizationUncertainNP sends SYNCHRONIZATION_UNCERTAIN_NP request and returns response
func (c *MgmtClient) SynchronizationUncertainNP() (*SynchronizationUncertainNPTLV, error) {
	return mgmtGet[*SynchronizationUncertainNPTLV](c, IDSynchronizationUncertainNP)
}

// PortHwClockNPRequest prepares request packet for PORT_HWCLOCK_NP request
func PortHwClockNPRequest() *Management { return newMgmtRequest(IDPortHwClockNP) }

// PortHwClockNP sends PORT_HWCLOCK_NP request and returns response
func (c *MgmtClient) PortHwClockNP() (*PortHwClockNPTLV, error) {
	return mgmtGet[*PortHwClockNPTLV](c, IDPortHwClockNP)
}

// PowerProfileSettingsNPRequest prepares request packet for POWER_PROFILE_SETTINGS_NP request
func PowerProfileSettingsNPRequest() *Management { return newMgmtRequest(IDPowerProfileSettingsNP) }

// PowerProfileSettingsNP sends POWER_PROFILE_SETTINGS_NP request and returns response
func (c *MgmtClient) PowerProfileSettingsNP() (*PowerProfileSettingsNPTLV, error) {
	return mgmtGet[*PowerProfileSettingsNPTLV](c, IDPowerProfileSettingsNP)
}

// CMLDSInfoNPRequest prepares request packet for CMLDS_INFO_NP request
func CMLDSInfoNPRequest() *Management { return newMgmtRequest(IDCMLDSInfoNP) }

// CMLDSInfoNP sends CMLDS_INFO_NP request and returns response
func (c *MgmtClient) CMLDSInfoNP() (*CMLDSInfoNPTLV, error) {
	return mgmtGet[*CMLDSInfoNPTLV](c, IDCMLDSInfoNP)
}
