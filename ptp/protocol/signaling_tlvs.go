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
	"encoding/binary"
	"fmt"
	"math"
)

// This file carries the signaling TLVs IEEE 1588-2019 adds on top of the
// unicast-negotiation and path-trace TLVs already in tlvs.go: the one-way
// measurement exchange a slave port uses to report its sync/delay timing
// back to a peer that requested it, plus the smaller capability/accuracy
// TLVs that travel alongside them. SLAVE_DELAY_TIMING_DATA_NP is a linuxptp
// extension, not standard 1588, but shares the same record-array shape.

// L1SyncTLV Table 136/137 L1_SYNC, two flag octets (txCoherent/rxCoherent/
// congruent/optParamsEnabled in flags1, the corresponding is* bits in flags2)
type L1SyncTLV struct {
	TLVHead
	Flags1 uint8
	Flags2 uint8
}

const (
	L1FlagTxCoherentIsRequired uint8 = 1 << 0
	L1FlagRxCoherentIsRequired uint8 = 1 << 1
	L1FlagCongruentIsRequired  uint8 = 1 << 2
	L1FlagOptParamsEnabled     uint8 = 1 << 3
	L1FlagIsTxCoherent         uint8 = 1 << 0
	L1FlagIsRxCoherent         uint8 = 1 << 1
	L1FlagIsCongruent          uint8 = 1 << 2
)

// MarshalBinaryTo marshals bytes to L1SyncTLV
func (t *L1SyncTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	b[tlvHeadSize] = t.Flags1
	b[tlvHeadSize+1] = t.Flags2
	return tlvHeadSize + 2, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *L1SyncTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 2, true); err != nil {
		return err
	}
	t.Flags1 = b[tlvHeadSize]
	t.Flags2 = b[tlvHeadSize+1]
	return nil
}

// PortCommunicationAvailabilityTLV Table 138 PORT_COMMUNICATION_AVAILABILITY:
// one octet each for multicast/unicast/unicast-negotiation capability of
// sync and of delay-response messages.
type PortCommunicationAvailabilityTLV struct {
	TLVHead
	SyncMessageAvailability      uint8
	DelayRespMessageAvailability uint8
}

const (
	CommAvailMulticastCapable                 uint8 = 1 << 0
	CommAvailUnicastCapable                   uint8 = 1 << 1
	CommAvailUnicastNegotiationCapableEnable  uint8 = 1 << 2
	CommAvailUnicastNegotiationCapable        uint8 = 1 << 3
)

// MarshalBinaryTo marshals bytes to PortCommunicationAvailabilityTLV
func (t *PortCommunicationAvailabilityTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	b[tlvHeadSize] = t.SyncMessageAvailability
	b[tlvHeadSize+1] = t.DelayRespMessageAvailability
	return tlvHeadSize + 2, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *PortCommunicationAvailabilityTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 2, true); err != nil {
		return err
	}
	t.SyncMessageAvailability = b[tlvHeadSize]
	t.DelayRespMessageAvailability = b[tlvHeadSize+1]
	return nil
}

// ProtocolAddressTLV Table 139 PROTOCOL_ADDRESS, a single variable-width
// PortAddress naming where to reach this port outside of the PTP transport.
type ProtocolAddressTLV struct {
	TLVHead
	PortProtocolAddress PortAddress
}

// MarshalBinaryTo marshals bytes to ProtocolAddressTLV
func (t *ProtocolAddressTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	addrBytes, err := t.PortProtocolAddress.MarshalBinary()
	if err != nil {
		return 0, err
	}
	copy(b[tlvHeadSize:], addrBytes)
	size := tlvHeadSize + len(addrBytes)
	if size%2 != 0 {
		b[size] = 0
		size++
	}
	return size, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *ProtocolAddressTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 4, false); err != nil {
		return err
	}
	return t.PortProtocolAddress.UnmarshalBinary(b[tlvHeadSize:])
}

// CumulativeRateRatioTLV Table 140 CUMULATIVE_RATE_RATIO: a single scaled
// ppm-style rate ratio, same encoding as TimeInterval's scaledNanoseconds.
type CumulativeRateRatioTLV struct {
	TLVHead
	ScaledCumulativeRateRatio int32
}

// MarshalBinaryTo marshals bytes to CumulativeRateRatioTLV
func (t *CumulativeRateRatioTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint32(b[tlvHeadSize:], uint32(t.ScaledCumulativeRateRatio))
	return tlvHeadSize + 4, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *CumulativeRateRatioTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 4, true); err != nil {
		return err
	}
	t.ScaledCumulativeRateRatio = int32(binary.BigEndian.Uint32(b[tlvHeadSize:]))
	return nil
}

// SyncTimingDataRecord is one element of SlaveRxSyncTimingDataTLV.List
type SyncTimingDataRecord struct {
	SequenceID                 uint16
	SyncOriginTimestamp        Timestamp
	TotalCorrectionField       TimeInterval
	ScaledCumulativeRateOffset int32
	SyncEventIngressTimestamp  Timestamp
}

const syncTimingDataRecordSize = 2 + 10 + 8 + 4 + 10

func marshalSyncTimingDataRecord(r *SyncTimingDataRecord, b []byte) {
	binary.BigEndian.PutUint16(b, r.SequenceID)
	pos := 2
	copy(b[pos:pos+6], r.SyncOriginTimestamp.Seconds[:])
	binary.BigEndian.PutUint32(b[pos+6:], r.SyncOriginTimestamp.Nanoseconds)
	pos += 10
	binary.BigEndian.PutUint64(b[pos:], uint64(r.TotalCorrectionField))
	pos += 8
	binary.BigEndian.PutUint32(b[pos:], uint32(r.ScaledCumulativeRateOffset))
	pos += 4
	copy(b[pos:pos+6], r.SyncEventIngressTimestamp.Seconds[:])
	binary.BigEndian.PutUint32(b[pos+6:], r.SyncEventIngressTimestamp.Nanoseconds)
}

func unmarshalSyncTimingDataRecord(r *SyncTimingDataRecord, b []byte) {
	r.SequenceID = binary.BigEndian.Uint16(b)
	pos := 2
	copy(r.SyncOriginTimestamp.Seconds[:], b[pos:pos+6])
	r.SyncOriginTimestamp.Nanoseconds = binary.BigEndian.Uint32(b[pos+6:])
	pos += 10
	r.TotalCorrectionField = TimeInterval(binary.BigEndian.Uint64(b[pos:]))
	pos += 8
	r.ScaledCumulativeRateOffset = int32(binary.BigEndian.Uint32(b[pos:]))
	pos += 4
	copy(r.SyncEventIngressTimestamp.Seconds[:], b[pos:pos+6])
	r.SyncEventIngressTimestamp.Nanoseconds = binary.BigEndian.Uint32(b[pos+6:])
}

// SlaveRxSyncTimingDataTLV Table 131 SLAVE_RX_SYNC_TIMING_DATA: one
// PortIdentity naming the sync source, followed by an array whose element
// count is implicit from lengthField (§4.4 "arrays with implicit count").
type SlaveRxSyncTimingDataTLV struct {
	TLVHead
	SyncSourcePortIdentity PortIdentity
	List                   []SyncTimingDataRecord
}

// MarshalBinaryTo marshals bytes to SlaveRxSyncTimingDataTLV
func (t *SlaveRxSyncTimingDataTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint64(b[tlvHeadSize:], uint64(t.SyncSourcePortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[tlvHeadSize+8:], t.SyncSourcePortIdentity.PortNumber)
	pos := tlvHeadSize + 10
	for i := range t.List {
		marshalSyncTimingDataRecord(&t.List[i], b[pos:])
		pos += syncTimingDataRecordSize
	}
	return pos, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *SlaveRxSyncTimingDataTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 10, false); err != nil {
		return err
	}
	t.SyncSourcePortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b[tlvHeadSize:]))
	t.SyncSourcePortIdentity.PortNumber = binary.BigEndian.Uint16(b[tlvHeadSize+8:])
	remaining := int(t.TLVHead.LengthField) - 10
	if remaining%syncTimingDataRecordSize != 0 {
		return fmt.Errorf("SLAVE_RX_SYNC_TIMING_DATA: %d remaining bytes is not a multiple of record size %d", remaining, syncTimingDataRecordSize)
	}
	n := remaining / syncTimingDataRecordSize
	t.List = make([]SyncTimingDataRecord, n)
	pos := tlvHeadSize + 10
	for i := 0; i < n; i++ {
		unmarshalSyncTimingDataRecord(&t.List[i], b[pos:])
		pos += syncTimingDataRecordSize
	}
	return nil
}

// SyncComputedDataRecord is one element of SlaveRxSyncComputedDataTLV.List
type SyncComputedDataRecord struct {
	SequenceID              uint16
	OffsetFromMaster        TimeInterval
	MeanPathDelay           TimeInterval
	ScaledNeighborRateRatio int32
}

const syncComputedDataRecordSize = 2 + 8 + 8 + 4

const (
	ComputedFlagScaledNeighborRateRatioValid uint8 = 1 << 0
	ComputedFlagMeanPathDelayValid           uint8 = 1 << 1
	ComputedFlagOffsetFromMasterValid        uint8 = 1 << 2
)

// SlaveRxSyncComputedDataTLV Table 132 SLAVE_RX_SYNC_COMPUTED_DATA
type SlaveRxSyncComputedDataTLV struct {
	TLVHead
	SourcePortIdentity PortIdentity
	ComputedFlags      uint8
	Reserved           uint8
	List               []SyncComputedDataRecord
}

// MarshalBinaryTo marshals bytes to SlaveRxSyncComputedDataTLV
func (t *SlaveRxSyncComputedDataTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint64(b[tlvHeadSize:], uint64(t.SourcePortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[tlvHeadSize+8:], t.SourcePortIdentity.PortNumber)
	b[tlvHeadSize+10] = t.ComputedFlags
	b[tlvHeadSize+11] = t.Reserved
	pos := tlvHeadSize + 12
	for i := range t.List {
		r := &t.List[i]
		binary.BigEndian.PutUint16(b[pos:], r.SequenceID)
		binary.BigEndian.PutUint64(b[pos+2:], uint64(r.OffsetFromMaster))
		binary.BigEndian.PutUint64(b[pos+10:], uint64(r.MeanPathDelay))
		binary.BigEndian.PutUint32(b[pos+18:], uint32(r.ScaledNeighborRateRatio))
		pos += syncComputedDataRecordSize
	}
	return pos, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *SlaveRxSyncComputedDataTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 12, false); err != nil {
		return err
	}
	t.SourcePortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b[tlvHeadSize:]))
	t.SourcePortIdentity.PortNumber = binary.BigEndian.Uint16(b[tlvHeadSize+8:])
	t.ComputedFlags = b[tlvHeadSize+10]
	t.Reserved = b[tlvHeadSize+11]
	remaining := int(t.TLVHead.LengthField) - 12
	if remaining%syncComputedDataRecordSize != 0 {
		return fmt.Errorf("SLAVE_RX_SYNC_COMPUTED_DATA: %d remaining bytes is not a multiple of record size %d", remaining, syncComputedDataRecordSize)
	}
	n := remaining / syncComputedDataRecordSize
	t.List = make([]SyncComputedDataRecord, n)
	pos := tlvHeadSize + 12
	for i := 0; i < n; i++ {
		t.List[i].SequenceID = binary.BigEndian.Uint16(b[pos:])
		t.List[i].OffsetFromMaster = TimeInterval(binary.BigEndian.Uint64(b[pos+2:]))
		t.List[i].MeanPathDelay = TimeInterval(binary.BigEndian.Uint64(b[pos+10:]))
		t.List[i].ScaledNeighborRateRatio = int32(binary.BigEndian.Uint32(b[pos+18:]))
		pos += syncComputedDataRecordSize
	}
	return nil
}

// TxEventTimestampRecord is one element of SlaveTxEventTimestampsTLV.List
type TxEventTimestampRecord struct {
	SequenceID           uint16
	EventEgressTimestamp Timestamp
}

const txEventTimestampRecordSize = 2 + 10

// SlaveTxEventTimestampsTLV Table 133 SLAVE_TX_EVENT_TIMESTAMPS
type SlaveTxEventTimestampsTLV struct {
	TLVHead
	SourcePortIdentity PortIdentity
	EventMessageType   uint8
	Reserved           [3]byte
	List               []TxEventTimestampRecord
}

// MarshalBinaryTo marshals bytes to SlaveTxEventTimestampsTLV
func (t *SlaveTxEventTimestampsTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint64(b[tlvHeadSize:], uint64(t.SourcePortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[tlvHeadSize+8:], t.SourcePortIdentity.PortNumber)
	b[tlvHeadSize+10] = t.EventMessageType
	copy(b[tlvHeadSize+11:], t.Reserved[:])
	pos := tlvHeadSize + 14
	for i := range t.List {
		r := &t.List[i]
		binary.BigEndian.PutUint16(b[pos:], r.SequenceID)
		copy(b[pos+2:pos+8], r.EventEgressTimestamp.Seconds[:])
		binary.BigEndian.PutUint32(b[pos+8:], r.EventEgressTimestamp.Nanoseconds)
		pos += txEventTimestampRecordSize
	}
	return pos, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *SlaveTxEventTimestampsTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 14, false); err != nil {
		return err
	}
	t.SourcePortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b[tlvHeadSize:]))
	t.SourcePortIdentity.PortNumber = binary.BigEndian.Uint16(b[tlvHeadSize+8:])
	t.EventMessageType = b[tlvHeadSize+10]
	copy(t.Reserved[:], b[tlvHeadSize+11:])
	remaining := int(t.TLVHead.LengthField) - 14
	if remaining%txEventTimestampRecordSize != 0 {
		return fmt.Errorf("SLAVE_TX_EVENT_TIMESTAMPS: %d remaining bytes is not a multiple of record size %d", remaining, txEventTimestampRecordSize)
	}
	n := remaining / txEventTimestampRecordSize
	t.List = make([]TxEventTimestampRecord, n)
	pos := tlvHeadSize + 14
	for i := 0; i < n; i++ {
		t.List[i].SequenceID = binary.BigEndian.Uint16(b[pos:])
		copy(t.List[i].EventEgressTimestamp.Seconds[:], b[pos+2:pos+8])
		t.List[i].EventEgressTimestamp.Nanoseconds = binary.BigEndian.Uint32(b[pos+8:])
		pos += txEventTimestampRecordSize
	}
	return nil
}

// DelayTimingDataNPRecord is one element of SlaveDelayTimingDataNPTLV.List
type DelayTimingDataNPRecord struct {
	SequenceID              uint16
	DelayOriginTimestamp    Timestamp
	TotalCorrectionField    TimeInterval
	DelayResponseTimestamp  Timestamp
}

const delayTimingDataNPRecordSize = 2 + 10 + 8 + 10

// SlaveDelayTimingDataNPTLV is linuxptp's non-standard SLAVE_DELAY_TIMING_DATA_NP,
// reported by a peer-delay slave the same way SLAVE_RX_SYNC_TIMING_DATA reports sync.
type SlaveDelayTimingDataNPTLV struct {
	TLVHead
	SourcePortIdentity PortIdentity
	List               []DelayTimingDataNPRecord
}

// MarshalBinaryTo marshals bytes to SlaveDelayTimingDataNPTLV
func (t *SlaveDelayTimingDataNPTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	binary.BigEndian.PutUint64(b[tlvHeadSize:], uint64(t.SourcePortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[tlvHeadSize+8:], t.SourcePortIdentity.PortNumber)
	pos := tlvHeadSize + 10
	for i := range t.List {
		r := &t.List[i]
		binary.BigEndian.PutUint16(b[pos:], r.SequenceID)
		copy(b[pos+2:pos+8], r.DelayOriginTimestamp.Seconds[:])
		binary.BigEndian.PutUint32(b[pos+8:], r.DelayOriginTimestamp.Nanoseconds)
		binary.BigEndian.PutUint64(b[pos+12:], uint64(r.TotalCorrectionField))
		copy(b[pos+20:pos+26], r.DelayResponseTimestamp.Seconds[:])
		binary.BigEndian.PutUint32(b[pos+26:], r.DelayResponseTimestamp.Nanoseconds)
		pos += delayTimingDataNPRecordSize
	}
	return pos, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *SlaveDelayTimingDataNPTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 10, false); err != nil {
		return err
	}
	t.SourcePortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b[tlvHeadSize:]))
	t.SourcePortIdentity.PortNumber = binary.BigEndian.Uint16(b[tlvHeadSize+8:])
	remaining := int(t.TLVHead.LengthField) - 10
	if remaining%delayTimingDataNPRecordSize != 0 {
		return fmt.Errorf("SLAVE_DELAY_TIMING_DATA_NP: %d remaining bytes is not a multiple of record size %d", remaining, delayTimingDataNPRecordSize)
	}
	n := remaining / delayTimingDataNPRecordSize
	t.List = make([]DelayTimingDataNPRecord, n)
	pos := tlvHeadSize + 10
	for i := 0; i < n; i++ {
		t.List[i].SequenceID = binary.BigEndian.Uint16(b[pos:])
		copy(t.List[i].DelayOriginTimestamp.Seconds[:], b[pos+2:pos+8])
		t.List[i].DelayOriginTimestamp.Nanoseconds = binary.BigEndian.Uint32(b[pos+8:])
		t.List[i].TotalCorrectionField = TimeInterval(binary.BigEndian.Uint64(b[pos+12:]))
		copy(t.List[i].DelayResponseTimestamp.Seconds[:], b[pos+20:pos+26])
		t.List[i].DelayResponseTimestamp.Nanoseconds = binary.BigEndian.Uint32(b[pos+26:])
		pos += delayTimingDataNPRecordSize
	}
	return nil
}

// EnhancedAccuracyMetricsTLV Table 141 ENHANCED_ACCURACY_METRICS: ten
// scaled-nanosecond inaccuracy bounds/variances describing a grandmaster's
// time base, each carried the same way TimeInterval is.
type EnhancedAccuracyMetricsTLV struct {
	TLVHead
	Reserved                     uint8
	MaxGMInaccuracy              TimeInterval
	VarGMInaccuracy              float64
	MaxTransientInaccuracy       TimeInterval
	VarTransientInaccuracy       float64
	MaxDynamicInaccuracy         TimeInterval
	VarDynamicInaccuracy         float64
	MaxStaticInstanceInaccuracy  TimeInterval
	VarStaticInstanceInaccuracy  float64
	MaxStaticMediumInaccuracy    TimeInterval
	VarStaticMediumInaccuracy    float64
}

// MarshalBinaryTo marshals bytes to EnhancedAccuracyMetricsTLV
func (t *EnhancedAccuracyMetricsTLV) MarshalBinaryTo(b []byte) (int, error) {
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	b[tlvHeadSize] = t.Reserved
	pos := tlvHeadSize + 4 // 3 reserved pad octets follow the 1 reserved octet, per 1588 layout
	for _, v := range []TimeInterval{
		t.MaxGMInaccuracy, t.MaxTransientInaccuracy, t.MaxDynamicInaccuracy,
		t.MaxStaticInstanceInaccuracy, t.MaxStaticMediumInaccuracy,
	} {
		binary.BigEndian.PutUint64(b[pos:], uint64(v))
		pos += 8
	}
	for _, v := range []float64{
		t.VarGMInaccuracy, t.VarTransientInaccuracy, t.VarDynamicInaccuracy,
		t.VarStaticInstanceInaccuracy, t.VarStaticMediumInaccuracy,
	} {
		binary.BigEndian.PutUint64(b[pos:], math.Float64bits(v))
		pos += 8
	}
	return pos, nil
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *EnhancedAccuracyMetricsTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 84, true); err != nil {
		return err
	}
	t.Reserved = b[tlvHeadSize]
	pos := tlvHeadSize + 4
	intervals := []*TimeInterval{
		&t.MaxGMInaccuracy, &t.MaxTransientInaccuracy, &t.MaxDynamicInaccuracy,
		&t.MaxStaticInstanceInaccuracy, &t.MaxStaticMediumInaccuracy,
	}
	for _, v := range intervals {
		*v = TimeInterval(binary.BigEndian.Uint64(b[pos:]))
		pos += 8
	}
	floats := []*float64{
		&t.VarGMInaccuracy, &t.VarTransientInaccuracy, &t.VarDynamicInaccuracy,
		&t.VarStaticInstanceInaccuracy, &t.VarStaticMediumInaccuracy,
	}
	for _, v := range floats {
		*v = math.Float64frombits(binary.BigEndian.Uint64(b[pos:]))
		pos += 8
	}
	return nil
}
