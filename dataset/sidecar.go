package dataset

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// Sidecar holds the fields of a BIDS *_eeg.json file needed to interpret a recording.
type Sidecar struct {
	TaskName           string
	SamplingFrequency  float64
	PowerLineFrequency float64
	EEGReference       string
	RecordingDuration  float64
}

// SidecarPath returns the JSON sidecar path of a recording file.
func SidecarPath(recording string) string {
	return strings.TrimSuffix(recording, filepath.Ext(recording)) + ".json"
}

// ReadSidecar reads the sidecar at path.
func ReadSidecar(path string) (Sidecar, error) {
	var s Sidecar
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return s, err
	}
	err = easyjson.Unmarshal(b, &s)
	return s, err
}

// WriteSidecar writes s to path.
func WriteSidecar(path string, s Sidecar) error {
	b, err := easyjson.Marshal(s)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// MarshalJSON supports json.Marshaler interface
func (s Sidecar) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	s.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}

// MarshalEasyJSON supports easyjson.Marshaler interface
func (s Sidecar) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('{')
	out.RawString(`"TaskName":`)
	out.String(s.TaskName)
	out.RawString(`,"SamplingFrequency":`)
	out.Float64(s.SamplingFrequency)
	if s.PowerLineFrequency > 0 {
		out.RawString(`,"PowerLineFrequency":`)
		out.Float64(s.PowerLineFrequency)
	} else {
		out.RawString(`,"PowerLineFrequency":"n/a"`)
	}
	out.RawString(`,"EEGReference":`)
	out.String(s.EEGReference)
	out.RawString(`,"RecordingDuration":`)
	out.Float64(s.RecordingDuration)
	out.RawByte('}')
}

// UnmarshalJSON supports json.Unmarshaler interface
func (s *Sidecar) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	s.UnmarshalEasyJSON(&r)
	return r.Error()
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface. Unknown keys are skipped and
// "n/a" values leave the field at zero.
func (s *Sidecar) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeString()
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "TaskName":
			s.TaskName = in.String()
		case "SamplingFrequency":
			s.SamplingFrequency = number(in)
		case "PowerLineFrequency":
			s.PowerLineFrequency = number(in)
		case "EEGReference":
			s.EEGReference = in.String()
		case "RecordingDuration":
			s.RecordingDuration = number(in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

func number(in *jlexer.Lexer) float64 {
	if v, ok := in.Interface().(float64); ok {
		return v
	}
	return 0
}
