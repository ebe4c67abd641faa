package ktx

import "unicode/utf8"

// Summary is a serialisable description of a parsed container.
type Summary struct {
	ByteOrder        string         `json:"byte_order"`
	Header           HeaderSummary  `json:"header"`
	KeyValues        []KeyValueInfo `json:"key_values"`
	KeyValueDataSize uint64         `json:"key_value_data_size"`
	TexelsDataSize   uint64         `json:"texels_data_size"`
	Levels           []LevelSummary `json:"levels"`
}

type HeaderSummary struct {
	GLType                string `json:"gl_type"`
	GLTypeSize            uint32 `json:"gl_type_size"`
	GLFormat              string `json:"gl_format"`
	GLInternalFormat      string `json:"gl_internal_format"`
	GLBaseInternalFormat  string `json:"gl_base_internal_format"`
	PixelWidth            uint32 `json:"pixel_width"`
	PixelHeight           uint32 `json:"pixel_height"`
	PixelDepth            uint32 `json:"pixel_depth"`
	NumberOfArrayElements uint32 `json:"number_of_array_elements"`
	NumberOfFaces         uint32 `json:"number_of_faces"`
	NumberOfMipmapLevels  uint32 `json:"number_of_mipmap_levels"`
	BytesOfKeyValueData   uint32 `json:"bytes_of_key_value_data"`
}

// KeyValueInfo carries a value as text when it is valid UTF-8, otherwise
// only its size.
type KeyValueInfo struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Binary bool   `json:"binary,omitempty"`
	Size   int    `json:"size"`
}

type LevelSummary struct {
	Level     uint32 `json:"level"`
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
	Depth     uint32 `json:"depth"`
	RowSize   uint64 `json:"row_size"`
	FaceSize  uint64 `json:"face_size"`
	ImageSize uint64 `json:"image_size"`
	Faces     int    `json:"faces"`
	Offset    uint64 `json:"offset"`
}

// Describe summarises k for display.
func Describe(k *KTX) Summary {
	h := k.Header()
	s := Summary{
		ByteOrder: k.ByteOrder().String(),
		Header: HeaderSummary{
			GLType:                h.GLType.String(),
			GLTypeSize:            h.GLTypeSize,
			GLFormat:              h.GLFormat.String(),
			GLInternalFormat:      h.GLInternalFormat.String(),
			GLBaseInternalFormat:  h.GLBaseInternalFormat.String(),
			PixelWidth:            h.PixelWidth,
			PixelHeight:           h.PixelHeight,
			PixelDepth:            h.PixelDepth,
			NumberOfArrayElements: h.NumberOfArrayElements,
			NumberOfFaces:         h.NumberOfFaces,
			NumberOfMipmapLevels:  h.NumberOfMipmapLevels,
			BytesOfKeyValueData:   h.BytesOfKeyValueData,
		},
		KeyValues:        DescribeKeyValues(k.KeyValues()),
		KeyValueDataSize: k.KeyValueDataSize(),
		TexelsDataSize:   k.TexelsDataSize(),
	}

	for _, img := range k.Images() {
		ls := LevelSummary{
			Level:     img.Level,
			Width:     h.EvalPixelWidth(img.Level),
			Height:    h.EvalPixelHeight(img.Level),
			Depth:     h.EvalPixelDepth(img.Level),
			RowSize:   h.EvalRowSize(img.Level),
			FaceSize:  img.FaceSize,
			ImageSize: img.ImageSize,
			Faces:     len(img.Faces),
		}
		if len(img.Faces) > 0 {
			ls.Offset = img.Faces[0].Offset
		}
		s.Levels = append(s.Levels, ls)
	}
	return s
}

func DescribeKeyValues(kvs KeyValues) []KeyValueInfo {
	out := make([]KeyValueInfo, 0, len(kvs))
	for _, kv := range kvs {
		info := KeyValueInfo{Key: kv.Key, Size: len(kv.Value)}
		if text := kv.String(); utf8.ValidString(text) {
			info.Value = text
		} else {
			info.Binary = true
		}
		out = append(out, info)
	}
	return out
}
