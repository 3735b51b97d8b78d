package socketio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Engine.IO v4 packet types.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
	engineNoop    byte = '6'
)

// Socket.IO v5 packet types.
const (
	packetConnect      byte = '0'
	packetDisconnect   byte = '1'
	packetEvent        byte = '2'
	packetAck          byte = '3'
	packetConnectError byte = '4'
	packetBinaryEvent  byte = '5'
	packetBinaryAck    byte = '6'
)

var errEmptyPacket = errors.New("empty packet")

// openPayload is the Engine.IO handshake sent by the server.
type openPayload struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// packet is a decoded Socket.IO packet.
type packet struct {
	Type      byte
	Namespace string
	AckID     int
	HasAck    bool
	Data      json.RawMessage
}

func encodePacket(p packet) string {
	var b strings.Builder
	b.WriteByte(engineMessage)
	b.WriteByte(p.Type)
	if p.Namespace != "" && p.Namespace != "/" {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}
	if p.HasAck {
		b.WriteString(strconv.Itoa(p.AckID))
	}
	if len(p.Data) > 0 {
		b.Write(p.Data)
	}
	return b.String()
}

// decodePacket parses the Socket.IO part of an Engine.IO message packet
// (everything after the leading '4').
func decodePacket(raw string) (packet, error) {
	if raw == "" {
		return packet{}, errEmptyPacket
	}
	p := packet{Type: raw[0], Namespace: "/"}
	switch p.Type {
	case packetConnect, packetDisconnect, packetEvent, packetAck, packetConnectError, packetBinaryEvent, packetBinaryAck:
	default:
		return packet{}, fmt.Errorf("unknown socket.io packet type %q", p.Type)
	}
	rest := raw[1:]
	if p.Type == packetBinaryEvent || p.Type == packetBinaryAck {
		// Attachment count precedes the namespace: "<n>-".
		idx := strings.IndexByte(rest, '-')
		if idx < 0 {
			return packet{}, errors.New("malformed binary packet")
		}
		rest = rest[idx+1:]
	}
	if strings.HasPrefix(rest, "/") {
		idx := strings.IndexByte(rest, ',')
		if idx < 0 {
			p.Namespace = rest
			rest = ""
		} else {
			p.Namespace = rest[:idx]
			rest = rest[idx+1:]
		}
	}
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.Atoi(rest[:digits])
		if err != nil {
			return packet{}, fmt.Errorf("malformed ack id: %w", err)
		}
		p.AckID = id
		p.HasAck = true
		rest = rest[digits:]
	}
	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return packet{}, errors.New("malformed packet payload")
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// encodeEvent builds the JSON array payload of an EVENT packet.
func encodeEvent(event string, payload any) (json.RawMessage, error) {
	args := []any{event}
	if payload != nil {
		args = append(args, payload)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return data, nil
}

// decodeEvent splits an EVENT payload into its name and first argument.
func decodeEvent(data json.RawMessage) (string, json.RawMessage, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(data, &args); err != nil {
		return "", nil, fmt.Errorf("decode event: %w", err)
	}
	if len(args) == 0 {
		return "", nil, errors.New("event without name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	if len(args) < 2 {
		return name, nil, nil
	}
	return name, args[1], nil
}
