package parser

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func safetensorsBytes(t *testing.T, metadata map[string]string, tensors int) []byte {
	t.Helper()

	header := map[string]any{}
	for i := 0; i < tensors; i++ {
		header[string(rune('a'+i))] = map[string]any{
			"dtype":        "F16",
			"shape":        []int{1},
			"data_offsets": []int{i * 2, i*2 + 2},
		}
	}
	if metadata != nil {
		header["__metadata__"] = metadata
	}

	raw, err := json.Marshal(header)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(raw))))
	buf.Write(raw)
	buf.Write(make([]byte, tensors*2))
	return buf.Bytes()
}

func TestParseCivitaiInfo(t *testing.T) {
	info, err := ParseCivitaiInfo([]byte(`{"modelId": 12, "name": "v1", "trainedWords": ["foo style", "bar"]}`))

	require.NoError(t, err)
	assert.Equal(t, 12, info.ModelID)
	assert.Equal(t, []string{"foo style", "bar"}, info.TrainedWords)
}

func TestParseCivitaiInfo_Malformed(t *testing.T) {
	_, err := ParseCivitaiInfo([]byte(`{"trainedWords": [1, 2]`))
	assert.Error(t, err)
}

func TestReadCivitaiInfo_Missing(t *testing.T) {
	_, err := ReadCivitaiInfo(filepath.Join(t.TempDir(), "nope.civitai.info"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseSafetensorsHeader(t *testing.T) {
	data := safetensorsBytes(t, map[string]string{KeyTriggerPhrase: " foo style "}, 3)

	header, err := ParseSafetensorsHeader(bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, 3, header.TensorCount)
	assert.Equal(t, "foo style", header.Metadata.TriggerPhrase())
}

func TestParseSafetensorsHeader_NoMetadata(t *testing.T) {
	header, err := ParseSafetensorsHeader(bytes.NewReader(safetensorsBytes(t, nil, 2)))

	require.NoError(t, err)
	assert.Equal(t, 2, header.TensorCount)
	assert.Empty(t, header.Metadata)
}

func TestParseSafetensorsHeader_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(maxHeaderSize+1)))

	_, err := ParseSafetensorsHeader(&buf)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestParseSafetensorsHeader_Truncated(t *testing.T) {
	data := safetensorsBytes(t, map[string]string{"a": "b"}, 1)

	_, err := ParseSafetensorsHeader(bytes.NewReader(data[:12]))
	assert.Error(t, err)

	_, err = ParseSafetensorsHeader(bytes.NewReader(data[:3]))
	assert.Error(t, err)
}

func TestReadSafetensorsMetadata(t *testing.T) {
	dir := t.TempDir()
	withMeta := filepath.Join(dir, "with.safetensors")
	withoutMeta := filepath.Join(dir, "without.safetensors")
	require.NoError(t, os.WriteFile(withMeta, safetensorsBytes(t, map[string]string{"ss_output_name": "foo"}, 1), 0o644))
	require.NoError(t, os.WriteFile(withoutMeta, safetensorsBytes(t, nil, 1), 0o644))

	meta, err := ReadSafetensorsMetadata(withMeta)
	require.NoError(t, err)
	assert.Equal(t, Metadata{"ss_output_name": "foo"}, meta)

	_, err = ReadSafetensorsMetadata(withoutMeta)
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestMetadata_TagFrequency(t *testing.T) {
	meta := Metadata{KeyTagFrequency: `{"10_foo": {"foo style": 12, "1girl": 4}, "5_bar": {"bar": 3}}`}

	freq, err := meta.TagFrequency()

	require.NoError(t, err)
	want := TagFrequency{
		"10_foo": {"foo style": 12, "1girl": 4},
		"5_bar":  {"bar": 3},
	}
	if diff := cmp.Diff(want, freq); diff != "" {
		t.Errorf("tag frequency mismatch (-want +got):\n%s", diff)
	}
}

func TestMetadata_TagFrequency_AbsentOrBroken(t *testing.T) {
	freq, err := Metadata{}.TagFrequency()
	assert.NoError(t, err)
	assert.Nil(t, freq)

	_, err = Metadata{KeyTagFrequency: "{broken"}.TagFrequency()
	assert.Error(t, err)
}
