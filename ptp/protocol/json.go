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
	"encoding/json"
	"fmt"
	"net"
	"reflect"
	"strconv"
	"strings"
)

// This file is the JSON bridge pmc uses to print and accept management
// messages: ToJSON mirrors a decoded Management the way the json-enabled
// build of pmc renders it, and ParseManagementJSON is the inverse, used by
// pmc's scripted/batch input mode.

// ToJSON renders p as the canonical JSON object described by the JSON bridge:
// fixed key order, two-space indentation per nesting level, baseIndent extra
// leading indentation units (for embedding inside a larger document).
func (p *Management) ToJSON(baseIndent int) (string, error) {
	obj := orderedObject{}
	obj.set("sequenceId", p.SequenceID)
	obj.set("sdoId", uint8(p.SdoIDAndMsgType)>>4)
	obj.set("domainNumber", p.DomainNumber)
	obj.set("versionPTP", p.Version&0x0f)
	obj.set("minorVersionPTP", p.Version>>4)
	obj.set("unicastFlag", p.FlagField&flagUnicast != 0)
	obj.set("PTPProfileSpecific", p.FlagField)
	obj.set("messageType", p.SdoIDAndMsgType.MsgType().String())
	obj.set("sourcePortIdentity", portIdentityJSON(p.SourcePortIdentity))
	obj.set("targetPortIdentity", portIdentityJSON(p.TargetPortIdentity))
	obj.set("actionField", p.ActionField.String())

	if smpte, ok := p.TLV.(*SMPTEOrganizationExtensionTLV); ok {
		obj.set("tlvType", TLVOrganizationExtension.String())
		obj.set("managementId", IDSMPTEMngID.String())
		writeSMPTEFields(smpte, &obj)
		return renderOrderedObject(obj, baseIndent)
	}

	obj.set("tlvType", TLVManagement.String())

	var id ManagementID
	var data any
	if mgmtTLV, ok := p.TLV.(ManagementTLV); ok {
		id = mgmtTLV.MgmtID()
		data = tlvDataField(mgmtTLV)
	}
	obj.set("managementId", id.String())
	obj.set("dataField", data)

	return renderOrderedObject(obj, baseIndent)
}

// writeSMPTEFields flattens the SMPTE payload directly into the top-level
// object rather than nesting it under dataField; this mirrors the msg2json
// SMPTE fixture, which emits managementId followed immediately by the
// payload's own fields (two of them, the frame rate numerator/denominator,
// keyed with an underscore rather than lowerCamel).
func writeSMPTEFields(t *SMPTEOrganizationExtensionTLV, obj *orderedObject) {
	obj.set("organizationId", binaryHex(t.OrganizationID[:]))
	obj.set("organizationSubType", binaryHex(t.OrganizationSubType[:]))
	obj.set("defaultSystemFrameRate_numerator", t.DefaultSystemFrameRateNumerator)
	obj.set("defaultSystemFrameRate_denominator", t.DefaultSystemFrameRateDenominator)
	obj.set("masterLockingStatus", t.MasterLockingStatus.String())
	obj.set("timeAddressFlags", t.TimeAddressFlags)
	obj.set("currentLocalOffset", t.CurrentLocalOffset)
	obj.set("jumpSeconds", t.JumpSeconds)
	obj.set("timeOfNextJump", t.TimeOfNextJump.Seconds())
	obj.set("timeOfNextJam", t.TimeOfNextJam.Seconds())
	obj.set("timeOfPreviousJam", t.TimeOfPreviousJam.Seconds())
	obj.set("previousJamLocalOffset", t.PreviousJamLocalOffset)
	obj.set("daylightSaving", t.DaylightSaving)
	obj.set("leapSecondJump", t.LeapSecondJump)
}

const flagUnicast = 0x04 // bit 2 of flagField, Table 37

func portIdentityJSON(p PortIdentity) orderedObject {
	o := orderedObject{}
	o.set("clockIdentity", p.ClockIdentity.String())
	o.set("portNumber", p.PortNumber)
	return o
}

// tlvDataField converts a decoded ManagementTLV payload to its dataField
// representation: the payload's fields, in declaration order, keyed by their
// lowerCamelCase JSON name, with the type-specific formatting §4.6 demands
// (Binary as colon-hex, TimeInterval as truncated ns, Timestamp as sec.nnnnnnnnn,
// enums as their canonical string).
func tlvDataField(tlv ManagementTLV) any {
	v := reflect.ValueOf(tlv)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	obj := orderedObject{}
	walkTLVFields(v, &obj)
	if len(obj.keys) == 0 {
		return nil
	}
	return obj
}

// fields belonging to the embedded head/TLV bookkeeping, never part of dataField.
var jsonSkipFields = map[string]bool{
	"ManagementTLVHead": true, "TLVHead": true, "ManagementID": true,
	"TLVType": true, "LengthField": true,
}

func walkTLVFields(v reflect.Value, obj *orderedObject) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if jsonSkipFields[f.Name] {
			if f.Anonymous {
				fv := v.Field(i)
				if fv.Kind() == reflect.Struct {
					walkTLVFields(fv, obj)
				}
			}
			continue
		}
		obj.set(lowerCamel(f.Name), jsonValue(v.Field(i)))
	}
}

func jsonValue(v reflect.Value) any {
	switch x := v.Interface().(type) {
	case Binary:
		return binaryHex(x)
	case []byte:
		return binaryHex(x)
	case net.IP:
		return x.String()
	case TimeInterval:
		return int64(x.Nanoseconds())
	case Timestamp:
		return fmt.Sprintf("%d.%09d", x.Seconds.Seconds(), x.Nanoseconds)
	case ClockIdentity, PortIdentity, TLVType, ManagementID, Action,
		ClockClass, ClockAccuracy, PortState, Timestamping, TransportType,
		ManagementErrorID, TimeSource, UnicastMasterState, DelayMechanism,
		PowerProfileVersion:
		return fmt.Sprintf("%v", x)
	case PTPText:
		return string(x)
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = jsonValue(v.Index(i))
		}
		return out
	case reflect.Struct:
		obj := orderedObject{}
		walkTLVFields(v, &obj)
		return obj
	}
	return v.Interface()
}

func binaryHex(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, ":")
}

func parseBinaryHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	out := make([]byte, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid binary hex octet %q: %w", p, err)
		}
		out[i] = byte(n)
	}
	return out, nil
}

func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// orderedObject is a JSON object that renders its keys in insertion order,
// since encoding/json's map support does not preserve declaration order and
// the JSON bridge's canonical form requires a fixed one (§4.6).
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) set(key string, value any) {
	if o.values == nil {
		o.values = map[string]any{}
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func renderOrderedObject(o orderedObject, baseIndent int) (string, error) {
	var buf bytes.Buffer
	if err := writeOrderedValue(&buf, o, baseIndent); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeOrderedValue(buf *bytes.Buffer, v any, depth int) error {
	switch x := v.(type) {
	case orderedObject:
		return writeOrderedObject(buf, x, depth)
	case []any:
		return writeOrderedArray(buf, x, depth)
	case nil:
		buf.WriteString("null")
		return nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

func writeOrderedObject(buf *bytes.Buffer, o orderedObject, depth int) error {
	if len(o.keys) == 0 {
		buf.WriteString("null")
		return nil
	}
	indent := strings.Repeat("  ", depth+1)
	closeIndent := strings.Repeat("  ", depth)
	buf.WriteString("{\n")
	for i, k := range o.keys {
		buf.WriteString(indent)
		keyBytes, _ := json.Marshal(k)
		buf.Write(keyBytes)
		buf.WriteString(": ")
		if err := writeOrderedValue(buf, o.values[k], depth+1); err != nil {
			return err
		}
		if i < len(o.keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString(closeIndent + "}")
	return nil
}

func writeOrderedArray(buf *bytes.Buffer, a []any, depth int) error {
	if len(a) == 0 {
		buf.WriteString("[]")
		return nil
	}
	indent := strings.Repeat("  ", depth+1)
	closeIndent := strings.Repeat("  ", depth)
	buf.WriteString("[\n")
	for i, v := range a {
		buf.WriteString(indent)
		if err := writeOrderedValue(buf, v, depth+1); err != nil {
			return err
		}
		if i < len(a)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString(closeIndent + "]")
	return nil
}

// managementJSONAllowedTopLevel is the C7 allow-list (§4.7.1, §6.2).
var managementJSONAllowedTopLevel = map[string]bool{
	"sequenceId": true, "sdoId": true, "domainNumber": true, "versionPTP": true,
	"minorVersionPTP": true, "unicastFlag": true, "PTPProfileSpecific": true,
	"messageType": true, "tlvType": true, "sourcePortIdentity": true,
	"targetPortIdentity": true, "actionField": true, "managementId": true,
	"dataField": true,
}

// ParseManagementJSON is the C7 acceptor: it validates top-level keys against
// an allow-list, requires actionField+managementId, and populates a Message
// ready for Build. It operates on a decoded generic tree (map[string]any),
// matching §4.7's "generic tree supplied by a pluggable tokenizer" — here,
// encoding/json's map[string]interface{} decoding plays that tokenizer role.
func ParseManagementJSON(doc []byte) (*Management, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding JSON document: %w", err)
	}
	for k := range raw {
		if !managementJSONAllowedTopLevel[k] {
			return nil, fmt.Errorf("unknown top-level key %q", k)
		}
	}

	actionRaw, ok := raw["actionField"]
	if !ok {
		return nil, fmt.Errorf("missing required key actionField")
	}
	action, err := parseActionField(actionRaw)
	if err != nil {
		return nil, err
	}

	idRaw, ok := raw["managementId"]
	if !ok {
		return nil, fmt.Errorf("missing required key managementId")
	}
	var idName string
	if err := json.Unmarshal(idRaw, &idName); err != nil {
		return nil, fmt.Errorf("managementId must be a string: %w", err)
	}
	id, ok := ManagementIDFromString(idName)
	if !ok {
		return nil, fmt.Errorf("unknown managementId %q", idName)
	}

	m := &Management{}
	m.ActionField = action
	m.TargetPortIdentity = DefaultTargetPortIdentity
	m.SourcePortIdentity = identity
	m.LogMessageInterval = MgmtLogMessageInterval

	if v, ok := raw["sequenceId"]; ok {
		var seq uint16
		if err := json.Unmarshal(v, &seq); err != nil {
			return nil, fmt.Errorf("sequenceId: %w", err)
		}
		m.SequenceID = seq
	}
	if v, ok := raw["domainNumber"]; ok {
		var d uint8
		if err := json.Unmarshal(v, &d); err != nil {
			return nil, fmt.Errorf("domainNumber: %w", err)
		}
		m.DomainNumber = d
	}
	if v, ok := raw["sourcePortIdentity"]; ok {
		pi, err := parsePortIdentityJSON(v)
		if err != nil {
			return nil, fmt.Errorf("sourcePortIdentity: %w", err)
		}
		m.SourcePortIdentity = pi
	}
	if v, ok := raw["targetPortIdentity"]; ok {
		pi, err := parsePortIdentityJSON(v)
		if err != nil {
			return nil, fmt.Errorf("targetPortIdentity: %w", err)
		}
		m.TargetPortIdentity = pi
	}

	dataRaw, haveData := raw["dataField"]
	ctor, registered := managementRegistry[id]

	if action == GET || !registered {
		if haveData && string(dataRaw) != "null" {
			return nil, fmt.Errorf("dataField must be absent for GET or unregistered managementId %s", id)
		}
		m.TLV = &ManagementTLVHead{TLVHead: TLVHead{TLVType: TLVManagement, LengthField: tlvBaseSize}, ManagementID: id}
		return m, nil
	}

	tlv := ctor()
	if haveData && string(dataRaw) != "null" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(dataRaw, &fields); err != nil {
			return nil, fmt.Errorf("dataField must be an object: %w", err)
		}
		if err := populateTLVFields(tlv, fields); err != nil {
			return nil, fmt.Errorf("decoding dataField for %s: %w", id, err)
		}
	}
	m.TLV = tlv
	return m, nil
}

func parseActionField(raw json.RawMessage) (Action, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("actionField must be a string: %w", err)
	}
	for a, name := range actionToString {
		if strings.EqualFold(name, s) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown actionField %q", s)
}

func parsePortIdentityJSON(raw json.RawMessage) (PortIdentity, error) {
	var obj struct {
		ClockIdentity string `json:"clockIdentity"`
		PortNumber    int    `json:"portNumber"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return PortIdentity{}, err
	}
	hex := strings.ReplaceAll(obj.ClockIdentity, ".", "")
	n, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return PortIdentity{}, fmt.Errorf("invalid clockIdentity %q: %w", obj.ClockIdentity, err)
	}
	return PortIdentity{ClockIdentity: ClockIdentity(n), PortNumber: uint16(obj.PortNumber)}, nil
}

// populateTLVFields sets tlv's exported fields, excluding head bookkeeping,
// from a dataField object keyed by lowerCamelCase field name. Unknown keys
// are rejected per §6.2 ("unknown keys within dataField are rejected").
func populateTLVFields(tlv ManagementTLV, fields map[string]json.RawMessage) error {
	v := reflect.ValueOf(tlv)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	known := map[string]bool{}
	if err := setStructFields(v, fields, known); err != nil {
		return err
	}
	for k := range fields {
		if !known[k] {
			return fmt.Errorf("unknown dataField key %q", k)
		}
	}
	return nil
}

func setStructFields(v reflect.Value, fields map[string]json.RawMessage, known map[string]bool) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if jsonSkipFields[f.Name] {
			if f.Anonymous && v.Field(i).Kind() == reflect.Struct {
				if err := setStructFields(v.Field(i), fields, known); err != nil {
					return err
				}
			}
			continue
		}
		key := lowerCamel(f.Name)
		known[key] = true
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := setFieldFromJSON(v.Field(i), raw); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func setFieldFromJSON(fv reflect.Value, raw json.RawMessage) error {
	switch fv.Interface().(type) {
	case net.IP:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		ip := net.ParseIP(s)
		if ip == nil {
			return fmt.Errorf("invalid IP address %q", s)
		}
		fv.Set(reflect.ValueOf(ip))
		return nil
	case Binary, []byte:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		b, err := parseBinaryHex(s)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(b).Convert(fv.Type()))
		return nil
	case PTPText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(PTPText(s)))
		return nil
	case TimeInterval:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(NewTimeInterval(float64(n))))
		return nil
	}
	switch fv.Kind() {
	case reflect.Bool:
		return setBoolField(fv, raw)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		var n int64
		if err := unmarshalIntCoerced(raw, &n); err != nil {
			return err
		}
		fv.SetUint(uint64(n))
		return nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		var n int64
		if err := unmarshalIntCoerced(raw, &n); err != nil {
			return err
		}
		fv.SetInt(n)
		return nil
	case reflect.String:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		fv.SetString(s)
		return nil
	case reflect.Slice:
		var rawItems []json.RawMessage
		if err := json.Unmarshal(raw, &rawItems); err != nil {
			return err
		}
		out := reflect.MakeSlice(fv.Type(), len(rawItems), len(rawItems))
		for i, item := range rawItems {
			if err := setFieldFromJSON(out.Index(i), item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		fv.Set(out)
		return nil
	case reflect.Struct:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return err
		}
		return setStructFields(fv, fields, map[string]bool{})
	}
	return json.Unmarshal(raw, fv.Addr().Interface())
}

// unmarshalIntCoerced accepts either a JSON number or a numeric string (strtoll-style, §4.7.1).
func unmarshalIntCoerced(raw json.RawMessage, out *int64) error {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		v, err := n.Int64()
		if err == nil {
			*out = v
			return nil
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		*out = int64(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("expected int or numeric string, got %s", raw)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return fmt.Errorf("expected int or numeric string, got %q", s)
	}
	*out = v
	return nil
}

func setBoolField(fv reflect.Value, raw json.RawMessage) error {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		fv.SetBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("expected bool or {true,false,enable,disable,on,off}, got %s", raw)
	}
	switch strings.ToLower(s) {
	case "true", "enable", "on":
		fv.SetBool(true)
	case "false", "disable", "off":
		fv.SetBool(false)
	default:
		return fmt.Errorf("unrecognized bool string %q", s)
	}
	return nil
}
