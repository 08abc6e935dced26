// Package protocol defines the JSON messages exchanged over the generation
// websocket.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeGenerate = "GENERATE"
	TypeChunk    = "CHUNK"
	TypeError    = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// GENERATE (client -> server)
type GenerateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	CX              int    `json:"cx"`
	CZ              int    `json:"cz"`
}

// CHUNK (server -> client) reports one populated chunk.
type ChunkMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	World           string `json:"world"`
	CX              int    `json:"cx"`
	CZ              int    `json:"cz"`
	Digest          string `json:"digest"`
	Writes          int    `json:"writes"`
	PerResource     []int  `json:"per_resource"`
	// Heightmap is HighestSolidY per column, indexed x + z*16.
	Heightmap []int `json:"heightmap"`
	// Cached is set when the chunk had already been populated.
	Cached bool `json:"cached,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(requestID, code, msg string) ErrorMsg {
	return ErrorMsg{
		Type:            TypeError,
		ProtocolVersion: Version,
		RequestID:       requestID,
		Code:            code,
		Message:         msg,
	}
}
