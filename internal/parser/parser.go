package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// maxHeaderSize bounds the safetensors JSON header we are willing to read.
const maxHeaderSize = 100 << 20

var (
	ErrHeaderTooLarge = errors.New("safetensors header too large")
	ErrNoMetadata     = errors.New("no embedded metadata")
)

// ReadCivitaiInfo parses a .civitai.info sidecar.
func ReadCivitaiInfo(path string) (*CivitaiInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCivitaiInfo(data)
}

func ParseCivitaiInfo(data []byte) (*CivitaiInfo, error) {
	var info CivitaiInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse civitai info: %w", err)
	}
	return &info, nil
}

// ReadSafetensorsHeader reads only the header of a safetensors file: an
// 8-byte little-endian length followed by that many bytes of JSON.
func ReadSafetensorsHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseSafetensorsHeader(f)
}

func ParseSafetensorsHeader(r io.Reader) (*Header, error) {
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("failed to read header length: %w", err)
	}
	if size > maxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	header := &Header{TensorCount: len(raw)}
	if meta, ok := raw["__metadata__"]; ok {
		header.TensorCount--
		if err := json.Unmarshal(meta, &header.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
	}
	return header, nil
}

// ReadSafetensorsMetadata returns the embedded metadata map of a safetensors
// file, or ErrNoMetadata when the header carries none.
func ReadSafetensorsMetadata(path string) (Metadata, error) {
	header, err := ReadSafetensorsHeader(path)
	if err != nil {
		return nil, err
	}
	if len(header.Metadata) == 0 {
		return nil, ErrNoMetadata
	}
	return header.Metadata, nil
}

// TriggerPhrase returns the canonical trigger phrase field, trimmed.
func (m Metadata) TriggerPhrase() string {
	return strings.TrimSpace(m[KeyTriggerPhrase])
}

// TagFrequency decodes the JSON text of the ss_tag_frequency field. It
// returns nil without error when the field is absent.
func (m Metadata) TagFrequency() (TagFrequency, error) {
	raw, ok := m[KeyTagFrequency]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var freq TagFrequency
	if err := json.Unmarshal([]byte(raw), &freq); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", KeyTagFrequency, err)
	}
	return freq, nil
}
