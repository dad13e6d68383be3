package parser

// Sidecar suffixes, appended to the weights file path minus its extension.
const (
	CivitaiInfoSuffix = ".civitai.info"
	TextSidecarSuffix = ".txt"
)

// Embedded metadata keys recognized in a safetensors header.
const (
	KeyTriggerPhrase = "modelspec.trigger_phrase"
	KeyTagFrequency  = "ss_tag_frequency"
)

// CivitaiInfo is the subset of a .civitai.info sidecar we read.
type CivitaiInfo struct {
	ModelID      int      `json:"modelId,omitempty"`
	Name         string   `json:"name,omitempty"`
	BaseModel    string   `json:"baseModel,omitempty"`
	TrainedWords []string `json:"trainedWords"`
}

// Metadata is the flat string map stored under "__metadata__" in a
// safetensors header.
type Metadata map[string]string

// Header is a decoded safetensors header.
type Header struct {
	Metadata    Metadata
	TensorCount int
}

// TagFrequency maps dataset name to tag to occurrence count, as written by
// kohya-style trainers into ss_tag_frequency.
type TagFrequency map[string]map[string]float64
