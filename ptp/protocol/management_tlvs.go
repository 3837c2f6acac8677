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
	"encoding/binary"
	"fmt"

	"github.com/facebook/ptpmgmt/hostendian"
)

func init() {
	registerManagementTLV(IDDefaultDataSet, func() ManagementTLV { return &DefaultDataSetTLV{} })
	registerManagementTLV(IDCurrentDataSet, func() ManagementTLV { return &CurrentDataSetTLV{} })
	registerManagementTLV(IDParentDataSet, func() ManagementTLV { return &ParentDataSetTLV{} })
	registerManagementTLV(IDTimePropertiesDataSet, func() ManagementTLV { return &TimePropertiesDataSetTLV{} })
	registerManagementTLV(IDPriority1, func() ManagementTLV { return &Priority1TLV{} })
	registerManagementTLV(IDPriority2, func() ManagementTLV { return &Priority2TLV{} })
	registerManagementTLV(IDDomain, func() ManagementTLV { return &DomainTLV{} })
	registerManagementTLV(IDSlaveOnly, func() ManagementTLV { return &SlaveOnlyTLV{} })
	registerManagementTLV(IDLogAnnounceInterval, func() ManagementTLV { return &LogAnnounceIntervalTLV{} })
	registerManagementTLV(IDAnnounceReceiptTimeout, func() ManagementTLV { return &AnnounceReceiptTimeoutTLV{} })
	registerManagementTLV(IDLogSyncInterval, func() ManagementTLV { return &LogSyncIntervalTLV{} })
	registerManagementTLV(IDVersionNumber, func() ManagementTLV { return &VersionNumberTLV{} })
	registerManagementTLV(IDTime, func() ManagementTLV { return &TimeTLV{} })
	registerManagementTLV(IDClockAccuracy, func() ManagementTLV { return &ClockAccuracyTLV{} })
	registerManagementTLV(IDUTCProperties, func() ManagementTLV { return &UTCPropertiesTLV{} })
	registerManagementTLV(IDTraceabilityProperties, func() ManagementTLV { return &TraceabilityPropertiesTLV{} })
	registerManagementTLV(IDTimescaleProperties, func() ManagementTLV { return &TimescalePropertiesTLV{} })
	registerManagementTLV(IDUnicastNegotiationEnable, func() ManagementTLV { return &UnicastNegotiationEnableTLV{} })
	registerManagementTLV(IDPathTraceList, func() ManagementTLV { return &PathTraceListTLV{} })
	registerManagementTLV(IDPathTraceEnable, func() ManagementTLV { return &PathTraceEnableTLV{} })
	registerManagementTLV(IDAcceptableMasterTable, func() ManagementTLV { return &AcceptableMasterTableTLV{} })
	registerManagementTLV(IDAcceptableMasterTableEnabled, func() ManagementTLV { return &AcceptableMasterTableEnabledTLV{} })
	registerManagementTLV(IDAcceptableMasterMaxTableSize, func() ManagementTLV { return &AcceptableMasterMaxTableSizeTLV{} })
	registerManagementTLV(IDGrandmasterClusterTable, func() ManagementTLV { return &GrandmasterClusterTableTLV{} })
	registerManagementTLV(IDUnicastMasterTable, func() ManagementTLV { return &UnicastMasterTableTLV{} })
	registerManagementTLV(IDUnicastMasterMaxTableSize, func() ManagementTLV { return &UnicastMasterMaxTableSizeTLV{} })
	registerManagementTLV(IDAlternateMaster, func() ManagementTLV { return &AlternateMasterTLV{} })
	registerManagementTLV(IDAlternateTimeOffsetEnable, func() ManagementTLV { return &AlternateTimeOffsetEnableTLV{} })
	registerManagementTLV(IDAlternateTimeOffsetName, func() ManagementTLV { return &AlternateTimeOffsetNameTLV{} })
	registerManagementTLV(IDAlternateTimeOffsetMaxKey, func() ManagementTLV { return &AlternateTimeOffsetMaxKeyTLV{} })
	registerManagementTLV(IDAlternateTimeOffsetProperties, func() ManagementTLV { return &AlternateTimeOffsetPropertiesTLV{} })
	registerManagementTLV(IDExternalPortConfigurationEnabled, func() ManagementTLV { return &ExternalPortConfigurationEnabledTLV{} })
	registerManagementTLV(IDMasterOnly, func() ManagementTLV { return &MasterOnlyTLV{} })
	registerManagementTLV(IDHoldoverUpgradeEnable, func() ManagementTLV { return &HoldoverUpgradeEnableTLV{} })
	registerManagementTLV(IDPrimaryDomain, func() ManagementTLV { return &PrimaryDomainTLV{} })
	registerManagementTLV(IDDelayMechanism, func() ManagementTLV { return &DelayMechanismTLV{} })
	registerManagementTLV(IDLogMinPdelayReqInterval, func() ManagementTLV { return &LogMinPdelayReqIntervalTLV{} })
	registerManagementTLV(IDClockDescription, func() ManagementTLV { return &ClockDescriptionTLV{} })
	registerManagementTLV(IDUserDescription, func() ManagementTLV { return &UserDescriptionTLV{} })
	registerManagementTLV(IDFaultLog, func() ManagementTLV { return &FaultLogTLV{} })

	registerManagementTLV(IDTimeStatusNP, func() ManagementTLV { return &TimeStatusNPTLV{} })
	registerManagementTLV(IDPortStatsNP, func() ManagementTLV { return &PortStatsNPTLV{} })
	registerManagementTLV(IDPortPropertiesNP, func() ManagementTLV { return &PortPropertiesNPTLV{} })
	registerManagementTLV(IDPortServiceStatsNP, func() ManagementTLV { return &PortServiceStatsNPTLV{} })
	registerManagementTLV(IDUnicastMasterTableNP, func() ManagementTLV { return &UnicastMasterTableNPTLV{} })
	registerManagementTLV(IDSubscribeEventsNP, func() ManagementTLV { return &SubscribeEventsNPTLV{} })
	registerManagementTLV(IDGrandmasterSettingsNP, func() ManagementTLV { return &GrandmasterSettingsNPTLV{} })

	registerManagementTLV(IDPortDataSet, func() ManagementTLV { return &PortDataSetTLV{} })
	registerManagementTLV(IDTransparentClockDefaultDataSet, func() ManagementTLV { return &TransparentClockDefaultDataSetTLV{} })
	registerManagementTLV(IDTransparentClockPortDataSet, func() ManagementTLV { return &TransparentClockPortDataSetTLV{} })
	registerManagementTLV(IDExtPortConfigPortDataSet, func() ManagementTLV { return &ExtPortConfigPortDataSetTLV{} })
	registerManagementTLV(IDPortDataSetNP, func() ManagementTLV { return &PortDataSetNPTLV{} })
	registerManagementTLV(IDSynchronizationUncertainNP, func() ManagementTLV { return &SynchronizationUncertainNPTLV{} })
	registerManagementTLV(IDPortHwClockNP, func() ManagementTLV { return &PortHwClockNPTLV{} })
	registerManagementTLV(IDPowerProfileSettingsNP, func() ManagementTLV { return &PowerProfileSettingsNPTLV{} })
	registerManagementTLV(IDCMLDSInfoNP, func() ManagementTLV { return &CMLDSInfoNPTLV{} })
}

// genericMarshal/genericUnmarshal implement the common "fixed-width struct, big-endian,
// head embedded first" shape shared by most scalar management TLVs.
func genericMarshal(t any) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func genericUnmarshal(b []byte, t any) error {
	return binary.Read(bytes.NewReader(b), binary.BigEndian, t)
}

// DefaultDataSetTLV Table 69 - DEFAULT_DATA_SET management TLV data field
type DefaultDataSetTLV struct {
	ManagementTLVHead

	SoTSC         uint8
	Reserved0     uint8
	NumberPorts   uint16
	Priority1     uint8
	ClockQuality  ClockQuality
	Priority2     uint8
	ClockIdentity ClockIdentity
	DomainNumber  uint8
	Reserved1     uint8
}

func (t *DefaultDataSetTLV) MarshalBinary() ([]byte, error)    { return genericMarshal(t) }
func (t *DefaultDataSetTLV) UnmarshalBinary(b []byte) error    { return genericUnmarshal(b, t) }

// CurrentDataSetTLV Table 84 - CURRENT_DATA_SET management TLV data field
type CurrentDataSetTLV struct {
	ManagementTLVHead

	StepsRemoved     uint16
	OffsetFromMaster TimeInterval
	MeanPathDelay    TimeInterval
}

func (t *CurrentDataSetTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *CurrentDataSetTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// ParentDataSetTLV Table 85 - PARENT_DATA_SET management TLV data field
type ParentDataSetTLV struct {
	ManagementTLVHead

	ParentPortIdentity                     PortIdentity
	PS                                     uint8
	Reserved                               uint8
	ObservedParentOffsetScaledLogVariance  uint16
	ObservedParentClockPhaseChangeRate     uint32
	GrandmasterPriority1                   uint8
	GrandmasterClockQuality                ClockQuality
	GrandmasterPriority2                   uint8
	GrandmasterIdentity                    ClockIdentity
}

func (t *ParentDataSetTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *ParentDataSetTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// TimePropertiesDataSetTLV Table 86 - TIME_PROPERTIES_DATA_SET management TLV data field
type TimePropertiesDataSetTLV struct {
	ManagementTLVHead

	CurrentUTCOffset      int16
	Flags                 uint8
	TimeSource            TimeSource
}

func (t *TimePropertiesDataSetTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *TimePropertiesDataSetTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// Priority1TLV Table 87 - PRIORITY1
type Priority1TLV struct {
	ManagementTLVHead
	Priority1 uint8
	Reserved  uint8
}

func (t *Priority1TLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *Priority1TLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// Priority2TLV Table 88 - PRIORITY2
type Priority2TLV struct {
	ManagementTLVHead
	Priority2 uint8
	Reserved  uint8
}

func (t *Priority2TLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *Priority2TLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// DomainTLV Table 89 - DOMAIN
type DomainTLV struct {
	ManagementTLVHead
	DomainNumber uint8
	Reserved     uint8
}

func (t *DomainTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *DomainTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// SlaveOnlyTLV Table 90 - SLAVE_ONLY
type SlaveOnlyTLV struct {
	ManagementTLVHead
	SO       uint8 // bit 0 is slaveOnly
	Reserved uint8
}

func (t *SlaveOnlyTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *SlaveOnlyTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// LogAnnounceIntervalTLV Table 91
type LogAnnounceIntervalTLV struct {
	ManagementTLVHead
	LogAnnounceInterval LogInterval
	Reserved            uint8
}

func (t *LogAnnounceIntervalTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *LogAnnounceIntervalTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// AnnounceReceiptTimeoutTLV Table 92
type AnnounceReceiptTimeoutTLV struct {
	ManagementTLVHead
	AnnounceReceiptTimeout uint8
	Reserved               uint8
}

func (t *AnnounceReceiptTimeoutTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *AnnounceReceiptTimeoutTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// LogSyncIntervalTLV Table 93
type LogSyncIntervalTLV struct {
	ManagementTLVHead
	LogSyncInterval LogInterval
	Reserved        uint8
}

func (t *LogSyncIntervalTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *LogSyncIntervalTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// VersionNumberTLV Table 94
type VersionNumberTLV struct {
	ManagementTLVHead
	VersionNumber uint8 // low nibble significant
	Reserved      uint8
}

func (t *VersionNumberTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *VersionNumberTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// TimeTLV Table 95 - TIME
type TimeTLV struct {
	ManagementTLVHead
	CurrentTime Timestamp
}

func (t *TimeTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *TimeTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// ClockAccuracyTLV Table 96 - CLOCK_ACCURACY
type ClockAccuracyTLV struct {
	ManagementTLVHead
	ClockAccuracy ClockAccuracy
	Reserved      uint8
}

func (t *ClockAccuracyTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *ClockAccuracyTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// UTCPropertiesTLV Table 97
type UTCPropertiesTLV struct {
	ManagementTLVHead
	CurrentUTCOffset int16
	Flags            uint8
	Reserved         uint8
}

func (t *UTCPropertiesTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *UTCPropertiesTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// TraceabilityPropertiesTLV Table 98
type TraceabilityPropertiesTLV struct {
	ManagementTLVHead
	Flags    uint8
	Reserved uint8
}

func (t *TraceabilityPropertiesTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *TraceabilityPropertiesTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// TimescalePropertiesTLV Table 99
type TimescalePropertiesTLV struct {
	ManagementTLVHead
	Flags    uint8
	Reserved uint8
}

func (t *TimescalePropertiesTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *TimescalePropertiesTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// UnicastNegotiationEnableTLV is a per-port flag enabling unicast negotiation
type UnicastNegotiationEnableTLV struct {
	ManagementTLVHead
	TargetPortIdentity PortIdentity
	EN                 uint8 // bit 0: unicast negotiation enable
	Reserved           uint8
}

func (t *UnicastNegotiationEnableTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *UnicastNegotiationEnableTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// PathTraceListTLV Table 100 - PATH_TRACE_LIST; element count is implicit from lengthField (§4.4)
type PathTraceListTLV struct {
	ManagementTLVHead
	PathSequence []ClockIdentity
}

func (t *PathTraceListTLV) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t.ManagementTLVHead); err != nil {
		return nil, err
	}
	for _, id := range t.PathSequence {
		if err := binary.Write(&buf, binary.BigEndian, id); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (t *PathTraceListTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &t.ManagementTLVHead); err != nil {
		return err
	}
	const recordSize = 8
	n := reader.Len()
	if n%recordSize != 0 {
		return fmt.Errorf("PATH_TRACE_LIST payload length %d is not a multiple of %d", n, recordSize)
	}
	t.PathSequence = make([]ClockIdentity, n/recordSize)
	return binary.Read(reader, binary.BigEndian, &t.PathSequence)
}

// PathTraceEnableTLV Table 101
type PathTraceEnableTLV struct {
	ManagementTLVHead
	EN       uint8 // bit 0: path trace enable
	Reserved uint8
}

func (t *PathTraceEnableTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *PathTraceEnableTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// AcceptableMasterEntry is one element of ACCEPTABLE_MASTER_TABLE (§3.3)
type AcceptableMasterEntry struct {
	AcceptablePortIdentity PortIdentity
	AlternatePriority1     uint8
	Reserved               uint8
}

// AcceptableMasterTableTLV Table 102
type AcceptableMasterTableTLV struct {
	ManagementTLVHead
	ActualTableSize   uint16
	AcceptableMasters []AcceptableMasterEntry
}

func (t *AcceptableMasterTableTLV) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t.ManagementTLVHead); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.ActualTableSize); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.AcceptableMasters); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *AcceptableMasterTableTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &t.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &t.ActualTableSize); err != nil {
		return err
	}
	t.AcceptableMasters = make([]AcceptableMasterEntry, t.ActualTableSize)
	return binary.Read(reader, binary.BigEndian, &t.AcceptableMasters)
}

// AcceptableMasterTableEnabledTLV Table 103
type AcceptableMasterTableEnabledTLV struct {
	ManagementTLVHead
	EN       uint8
	Reserved uint8
}

func (t *AcceptableMasterTableEnabledTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *AcceptableMasterTableEnabledTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// AcceptableMasterMaxTableSizeTLV Table 104
type AcceptableMasterMaxTableSizeTLV struct {
	ManagementTLVHead
	MaxTableSize uint16
}

func (t *AcceptableMasterMaxTableSizeTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *AcceptableMasterMaxTableSizeTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// GrandmasterClusterTableTLV / UnicastMasterTableTLV share shape: logQueryInterval,
// actualTableSize, followed by that many variable-width PortAddress entries (§3.3).
type GrandmasterClusterTableTLV struct {
	ManagementTLVHead
	LogQueryInterval int8
	ActualTableSize  uint8
	PortAddresses    []PortAddress
}

func (t *GrandmasterClusterTableTLV) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t.ManagementTLVHead); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.LogQueryInterval); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.ActualTableSize); err != nil {
		return nil, err
	}
	for _, pa := range t.PortAddresses {
		b, err := pa.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

func (t *GrandmasterClusterTableTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &t.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &t.LogQueryInterval); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &t.ActualTableSize); err != nil {
		return err
	}
	t.PortAddresses = nil
	for i := uint8(0); i < t.ActualTableSize; i++ {
		rest := make([]byte, reader.Len())
		if _, err := readFull(reader, rest); err != nil {
			return err
		}
		pa := PortAddress{}
		if err := pa.UnmarshalBinary(rest); err != nil {
			return err
		}
		t.PortAddresses = append(t.PortAddresses, pa)
		consumed := 4 + int(pa.AddressLength)
		remaining := rest[consumed:]
		reader = bytes.NewReader(remaining)
	}
	return nil
}

// UnicastMasterTableTLV Table 106 - same shape as GrandmasterClusterTableTLV
type UnicastMasterTableTLV struct {
	ManagementTLVHead
	LogQueryInterval int8
	ActualTableSize  uint8
	PortAddresses    []PortAddress
}

func (t *UnicastMasterTableTLV) MarshalBinary() ([]byte, error) {
	alias := GrandmasterClusterTableTLV{t.ManagementTLVHead, t.LogQueryInterval, t.ActualTableSize, t.PortAddresses}
	return alias.MarshalBinary()
}

func (t *UnicastMasterTableTLV) UnmarshalBinary(b []byte) error {
	alias := &GrandmasterClusterTableTLV{}
	if err := alias.UnmarshalBinary(b); err != nil {
		return err
	}
	t.ManagementTLVHead = alias.ManagementTLVHead
	t.LogQueryInterval = alias.LogQueryInterval
	t.ActualTableSize = alias.ActualTableSize
	t.PortAddresses = alias.PortAddresses
	return nil
}

// UnicastMasterMaxTableSizeTLV Table 107
type UnicastMasterMaxTableSizeTLV struct {
	ManagementTLVHead
	MaxTableSize uint16
}

func (t *UnicastMasterMaxTableSizeTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *UnicastMasterMaxTableSizeTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// AlternateMasterTLV Table 108-ish (ALTERNATE_MASTER)
type AlternateMasterTLV struct {
	ManagementTLVHead
	SA                     uint8 // bit 0: alternate master select
	LogAlternateMulticastSyncInterval LogInterval
	NumberOfAlternateMasters          uint8
	Reserved                          uint8
}

func (t *AlternateMasterTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *AlternateMasterTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// AlternateTimeOffsetEnableTLV
type AlternateTimeOffsetEnableTLV struct {
	ManagementTLVHead
	KeyField uint8
	EN       uint8 // bit 0: enable
}

func (t *AlternateTimeOffsetEnableTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *AlternateTimeOffsetEnableTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// AlternateTimeOffsetNameTLV
type AlternateTimeOffsetNameTLV struct {
	ManagementTLVHead
	KeyField    uint8
	DisplayName PTPText
}

func (t *AlternateTimeOffsetNameTLV) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t.ManagementTLVHead); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, t.KeyField); err != nil {
		return nil, err
	}
	nameBytes, err := t.DisplayName.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(nameBytes)
	return buf.Bytes(), nil
}

func (t *AlternateTimeOffsetNameTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &t.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &t.KeyField); err != nil {
		return err
	}
	rest := make([]byte, reader.Len())
	if _, err := readFull(reader, rest); err != nil {
		return err
	}
	return t.DisplayName.UnmarshalBinary(rest)
}

// AlternateTimeOffsetMaxKeyTLV
type AlternateTimeOffsetMaxKeyTLV struct {
	ManagementTLVHead
	MaxKey uint8
}

func (t *AlternateTimeOffsetMaxKeyTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *AlternateTimeOffsetMaxKeyTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// AlternateTimeOffsetPropertiesTLV
type AlternateTimeOffsetPropertiesTLV struct {
	ManagementTLVHead
	KeyField      uint8
	CurrentOffset int32
	JumpSeconds   int32
	TimeOfNextJump PTPSeconds
}

func (t *AlternateTimeOffsetPropertiesTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *AlternateTimeOffsetPropertiesTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// ExternalPortConfigurationEnabledTLV
type ExternalPortConfigurationEnabledTLV struct {
	ManagementTLVHead
	EPC      uint8 // bit 0
	Reserved uint8
}

func (t *ExternalPortConfigurationEnabledTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *ExternalPortConfigurationEnabledTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// MasterOnlyTLV
type MasterOnlyTLV struct {
	ManagementTLVHead
	MO       uint8 // bit 0
	Reserved uint8
}

func (t *MasterOnlyTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *MasterOnlyTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// HoldoverUpgradeEnableTLV
type HoldoverUpgradeEnableTLV struct {
	ManagementTLVHead
	EN       uint8
	Reserved uint8
}

func (t *HoldoverUpgradeEnableTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *HoldoverUpgradeEnableTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// PrimaryDomainTLV
type PrimaryDomainTLV struct {
	ManagementTLVHead
	PrimaryDomain uint8
	Reserved      uint8
}

func (t *PrimaryDomainTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *PrimaryDomainTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// DelayMechanismTLV
type DelayMechanismTLV struct {
	ManagementTLVHead
	DelayMechanism uint8
	Reserved       uint8
}

func (t *DelayMechanismTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *DelayMechanismTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// LogMinPdelayReqIntervalTLV
type LogMinPdelayReqIntervalTLV struct {
	ManagementTLVHead
	LogMinPdelayReqInterval LogInterval
	Reserved                uint8
}

func (t *LogMinPdelayReqIntervalTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *LogMinPdelayReqIntervalTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// ClockDescriptionTLV Table 63 - CLOCK_DESCRIPTION, variable length, pad to even (§3.3)
type ClockDescriptionTLV struct {
	ManagementTLVHead

	ClockType                PortState // reuses the u16 enum shape; value is a bitmask, not a portState
	PhysicalLayerProtocol    PTPText
	PhysicalAddress          Binary
	ProtocolAddress          PortAddress
	ManufacturerIdentity     [3]byte
	ProductDescription       PTPText
	RevisionData             PTPText
	UserDescription          PTPText
	ProfileIdentity          [6]byte
}

func (t *ClockDescriptionTLV) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t.ManagementTLVHead); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(t.ClockType)); err != nil {
		return nil, err
	}
	protoBytes, err := t.PhysicalLayerProtocol.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(protoBytes)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(t.PhysicalAddress))); err != nil {
		return nil, err
	}
	buf.Write(t.PhysicalAddress)
	addrBytes, err := t.ProtocolAddress.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(addrBytes)
	buf.Write(t.ManufacturerIdentity[:])
	for _, s := range []PTPText{t.ProductDescription, t.RevisionData, t.UserDescription} {
		sb, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf.Write(sb)
	}
	buf.Write(t.ProfileIdentity[:])
	if buf.Len()%2 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func (t *ClockDescriptionTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &t.ManagementTLVHead); err != nil {
		return err
	}
	var clockType uint16
	if err := binary.Read(reader, binary.BigEndian, &clockType); err != nil {
		return err
	}
	t.ClockType = PortState(clockType)
	rest := make([]byte, reader.Len())
	if _, err := readFull(reader, rest); err != nil {
		return err
	}
	pos := 0
	readText := func() (PTPText, error) {
		if pos >= len(rest) {
			return "", fmt.Errorf("ClockDescription: unexpected end of buffer")
		}
		n := int(rest[pos])
		if pos+1+n > len(rest) {
			return "", fmt.Errorf("ClockDescription: PTPText overruns buffer")
		}
		var s PTPText
		if err := s.UnmarshalBinary(rest[pos : pos+1+n]); err != nil {
			return "", err
		}
		pos += 1 + n
		return s, nil
	}
	var err error
	if t.PhysicalLayerProtocol, err = readText(); err != nil {
		return err
	}
	if pos+2 > len(rest) {
		return fmt.Errorf("ClockDescription: missing physicalAddressLength")
	}
	addrLen := int(binary.BigEndian.Uint16(rest[pos:]))
	pos += 2
	if pos+addrLen > len(rest) {
		return fmt.Errorf("ClockDescription: physicalAddress overruns buffer")
	}
	t.PhysicalAddress = append(Binary{}, rest[pos:pos+addrLen]...)
	pos += addrLen
	if err := t.ProtocolAddress.UnmarshalBinary(rest[pos:]); err != nil {
		return err
	}
	pos += 4 + int(t.ProtocolAddress.AddressLength)
	if pos+3 > len(rest) {
		return fmt.Errorf("ClockDescription: manufacturerIdentity overruns buffer")
	}
	copy(t.ManufacturerIdentity[:], rest[pos:pos+3])
	pos += 3
	if t.ProductDescription, err = readText(); err != nil {
		return err
	}
	if t.RevisionData, err = readText(); err != nil {
		return err
	}
	if t.UserDescription, err = readText(); err != nil {
		return err
	}
	if pos+6 > len(rest) {
		return fmt.Errorf("ClockDescription: profileIdentity overruns buffer")
	}
	copy(t.ProfileIdentity[:], rest[pos:pos+6])
	return nil
}

// UserDescriptionTLV Table 65 - USER_DESCRIPTION
type UserDescriptionTLV struct {
	ManagementTLVHead
	UserDescription PTPText
}

func (t *UserDescriptionTLV) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t.ManagementTLVHead); err != nil {
		return nil, err
	}
	b, err := t.UserDescription.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(b)
	return buf.Bytes(), nil
}

func (t *UserDescriptionTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &t.ManagementTLVHead); err != nil {
		return err
	}
	rest := make([]byte, reader.Len())
	if _, err := readFull(reader, rest); err != nil {
		return err
	}
	return t.UserDescription.UnmarshalBinary(rest)
}

// FaultRecord is one entry of FAULT_LOG (§3.3)
type FaultRecord struct {
	FaultTime          Timestamp
	SeverityCode       uint8
	FaultName          PTPText
	FaultValue         PTPText
	FaultDescription   PTPText
}

// FaultLogTLV Table 68 - FAULT_LOG
type FaultLogTLV struct {
	ManagementTLVHead
	NumberOfFaultRecords uint16
	FaultRecords         []FaultRecord
}

func (t *FaultLogTLV) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, t.ManagementTLVHead); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(t.FaultRecords))); err != nil {
		return nil, err
	}
	for _, r := range t.FaultRecords {
		var rb bytes.Buffer
		if err := binary.Write(&rb, binary.BigEndian, r.FaultTime); err != nil {
			return nil, err
		}
		if err := binary.Write(&rb, binary.BigEndian, r.SeverityCode); err != nil {
			return nil, err
		}
		for _, s := range []PTPText{r.FaultName, r.FaultValue, r.FaultDescription} {
			sb, err := s.MarshalBinary()
			if err != nil {
				return nil, err
			}
			rb.Write(sb)
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(rb.Len())); err != nil {
			return nil, err
		}
		buf.Write(rb.Bytes())
	}
	return buf.Bytes(), nil
}

func (t *FaultLogTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &t.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &t.NumberOfFaultRecords); err != nil {
		return err
	}
	t.FaultRecords = nil
	for i := uint16(0); i < t.NumberOfFaultRecords; i++ {
		var recLen uint16
		if err := binary.Read(reader, binary.BigEndian, &recLen); err != nil {
			return err
		}
		recBytes := make([]byte, recLen)
		if _, err := readFull(reader, recBytes); err != nil {
			return err
		}
		rr := bytes.NewReader(recBytes)
		var rec FaultRecord
		if err := binary.Read(rr, binary.BigEndian, &rec.FaultTime); err != nil {
			return err
		}
		if err := binary.Read(rr, binary.BigEndian, &rec.SeverityCode); err != nil {
			return err
		}
		remainder := make([]byte, rr.Len())
		if _, err := readFull(rr, remainder); err != nil {
			return err
		}
		pos := 0
		readText := func() (PTPText, error) {
			n := int(remainder[pos])
			var s PTPText
			if err := s.UnmarshalBinary(remainder[pos : pos+1+n]); err != nil {
				return "", err
			}
			pos += 1 + n
			return s, nil
		}
		var err error
		if rec.FaultName, err = readText(); err != nil {
			return err
		}
		if rec.FaultValue, err = readText(); err != nil {
			return err
		}
		if rec.FaultDescription, err = readText(); err != nil {
			return err
		}
		t.FaultRecords = append(t.FaultRecords, rec)
	}
	return nil
}

// UnmarshalBinary for the ptp4l NP TLVs defined in ptp4l.go: generic big-endian fields
// plus the little-endian PortStats/Timestamping quirk (hostendian.Order), mirrored from
// their MarshalBinary counterparts above.

// UnmarshalBinary implements Unmarshaller for PortStatsNPTLV
func (p *PortStatsNPTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &p.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &p.PortIdentity); err != nil {
		return err
	}
	// fun part that cost a few hours: this is sent over the wire as host/little-endian,
	// while everything else in the management protocol is big-endian.
	return binary.Read(reader, hostendian.Order, &p.PortStats)
}

// UnmarshalBinary implements Unmarshaller for PortPropertiesNPTLV
func (p *PortPropertiesNPTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &p.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &p.PortIdentity); err != nil {
		return err
	}
	if err := binary.Read(reader, hostendian.Order, &p.PortState); err != nil {
		return err
	}
	if err := binary.Read(reader, hostendian.Order, &p.Timestamping); err != nil {
		return err
	}
	rest := make([]byte, reader.Len())
	if _, err := readFull(reader, rest); err != nil {
		return err
	}
	return p.Interface.UnmarshalBinary(rest)
}

// UnmarshalBinary implements Unmarshaller for PortServiceStatsNPTLV
func (p *PortServiceStatsNPTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &p.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &p.PortIdentity); err != nil {
		return err
	}
	return binary.Read(reader, hostendian.Order, &p.PortServiceStats)
}

// UnmarshalBinary implements Unmarshaller for UnicastMasterTableNPTLV
func (p *UnicastMasterTableNPTLV) UnmarshalBinary(b []byte) error {
	reader := bytes.NewReader(b)
	if err := binary.Read(reader, binary.BigEndian, &p.ManagementTLVHead); err != nil {
		return err
	}
	if err := binary.Read(reader, binary.BigEndian, &p.UnicastMasterTable.ActualTableSize); err != nil {
		return err
	}
	p.UnicastMasterTable.UnicastMasters = nil
	for i := uint16(0); i < p.UnicastMasterTable.ActualTableSize; i++ {
		rest := make([]byte, reader.Len())
		if _, err := readFull(reader, rest); err != nil {
			return err
		}
		e := UnicastMasterEntry{}
		if err := e.UnmarshalBinary(rest); err != nil {
			return err
		}
		p.UnicastMasterTable.UnicastMasters = append(p.UnicastMasterTable.UnicastMasters, e)
		pa := PortAddress{}
		_ = pa.UnmarshalBinary(rest[18:])
		consumed := 18 + 4 + int(pa.AddressLength)
		reader = bytes.NewReader(rest[consumed:])
	}
	return nil
}

// UnmarshalBinary implements Unmarshaller for TimeStatusNPTLV (all big-endian, fixed-size)
func (p *TimeStatusNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, p) }

// MarshalBinary converts packet to []bytes
func (p *TimeStatusNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(p) }

// SubscribeEventsNPTLV is the ptp4l NOTIFY_* subscription bitmask TLV (§3.3)
type SubscribeEventsNPTLV struct {
	ManagementTLVHead
	Duration uint16
	Bitmask  [64]byte
}

func (t *SubscribeEventsNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *SubscribeEventsNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// ptp4l NOTIFY_* bit positions within SubscribeEventsNPTLV.Bitmask (byte 0)
const (
	NotifyPortState    = 0x01
	NotifyTimeSync     = 0x02
	NotifyParentDataSet = 0x04
	NotifyCMLDS        = 0x08
)

// GrandmasterSettingsNPTLV lets a client push clockQuality/timeSource/utcOffset to ptp4l
type GrandmasterSettingsNPTLV struct {
	ManagementTLVHead
	ClockQuality     ClockQuality
	UtcOffset        int16
	TimeFlags        uint8
	TimeSource       TimeSource
}

func (t *GrandmasterSettingsNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *GrandmasterSettingsNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// PortDataSetTLV Table 71 - PORT_DATA_SET management TLV data field
type PortDataSetTLV struct {
	ManagementTLVHead

	PortIdentity            PortIdentity
	PortState               PortState
	LogMinDelayReqInterval  LogInterval
	PeerMeanPathDelay       TimeInterval
	LogAnnounceInterval     LogInterval
	AnnounceReceiptTimeout  uint8
	LogSyncInterval         LogInterval
	DelayMechanism          DelayMechanism
	LogMinPdelayReqInterval LogInterval
	VersionNumber           uint8
}

func (t *PortDataSetTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *PortDataSetTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// TransparentClockDefaultDataSetTLV Table 89 - TRANSPARENT_CLOCK_DEFAULT_DATA_SET management TLV data field
type TransparentClockDefaultDataSetTLV struct {
	ManagementTLVHead

	ClockIdentity  ClockIdentity
	NumberPorts    uint16
	DelayMechanism DelayMechanism
	PrimaryDomain  uint8
}

func (t *TransparentClockDefaultDataSetTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *TransparentClockDefaultDataSetTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// TransparentClockPortDataSetTLV Table 88 - TRANSPARENT_CLOCK_PORT_DATA_SET management TLV data field
type TransparentClockPortDataSetTLV struct {
	ManagementTLVHead

	PortIdentity            PortIdentity
	Flags                   uint8 // bit 0: transparentClockPortDS
	LogMinPdelayReqInterval LogInterval
	PeerMeanPathDelay       TimeInterval
}

func (t *TransparentClockPortDataSetTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *TransparentClockPortDataSetTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// ExtPortConfigPortDataSetTLV Table 90 - EXT_PORT_CONFIG_PORT_DATA_SET management TLV data field
type ExtPortConfigPortDataSetTLV struct {
	ManagementTLVHead

	Flags        uint8 // bit 0: acceptableMasterPortDS
	DesiredState PortState
}

func (t *ExtPortConfigPortDataSetTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *ExtPortConfigPortDataSetTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// PortDataSetNPTLV is the ptp4l non-standard PORT_DATA_SET_NP management TLV data field
type PortDataSetNPTLV struct {
	ManagementTLVHead

	NeighborPropDelayThresh uint32
	AsCapable               uint8
	Reserved                uint8
}

func (t *PortDataSetNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *PortDataSetNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// SynchronizationUncertainNPTLV is the ptp4l non-standard SYNCHRONIZATION_UNCERTAIN_NP
// management TLV data field; val follows linuxptp's tri-state (0 false, 1 true, 0xFF
// "don't care", which the test fixture exercises) rather than a plain boolean.
type SynchronizationUncertainNPTLV struct {
	ManagementTLVHead

	Val      uint8
	Reserved uint8
}

func (t *SynchronizationUncertainNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *SynchronizationUncertainNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// PortHwClockNPTLV is the ptp4l non-standard PORT_HWCLOCK_NP management TLV data field
type PortHwClockNPTLV struct {
	ManagementTLVHead

	PortIdentity PortIdentity
	PhcIndex     int32
	Flags        uint8
	Reserved     uint8
}

func (t *PortHwClockNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *PortHwClockNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// PowerProfileSettingsNPTLV is the ptp4l non-standard POWER_PROFILE_SETTINGS_NP
// management TLV data field, carrying the IEEE C37.238 power profile parameters
type PowerProfileSettingsNPTLV struct {
	ManagementTLVHead

	Version                   PowerProfileVersion
	Reserved                  uint8
	GrandmasterID             uint16
	GrandmasterTimeInaccuracy uint32
	NetworkTimeInaccuracy     uint32
	TotalTimeInaccuracy       uint32
}

func (t *PowerProfileSettingsNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *PowerProfileSettingsNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }

// CMLDSInfoNPTLV is the ptp4l non-standard CMLDS_INFO_NP management TLV data field,
// reporting 802.1AS common mean link delay service state
type CMLDSInfoNPTLV struct {
	ManagementTLVHead

	MeanLinkDelay           TimeInterval
	ScaledNeighborRateRatio int32
	AsCapable               uint8
	Reserved                uint8
}

func (t *CMLDSInfoNPTLV) MarshalBinary() ([]byte, error) { return genericMarshal(t) }
func (t *CMLDSInfoNPTLV) UnmarshalBinary(b []byte) error { return genericUnmarshal(b, t) }
