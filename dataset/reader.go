package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hscells/brainage/preprocess"
	"github.com/pkg/errors"
)

// Reader opens a recording file. The samples may be read lazily.
type Reader func(path string) (*preprocess.Recording, error)

// Readers maps file extensions to recording readers.
var Readers = map[string]Reader{
	".tsv": ReadTSV,
}

// ReadRecording opens path with the reader registered for its extension.
func ReadRecording(path string) (*preprocess.Recording, error) {
	ext := filepath.Ext(path)
	read, ok := Readers[ext]
	if !ok {
		return nil, errors.Errorf("no recording reader for %s files; convert the recordings to .tsv with an _eeg.json sidecar", ext)
	}
	return read(path)
}

// ReadTSV opens a tab-separated recording: a header of channel names followed by one line per
// sample. The sampling and power-line frequencies come from the JSON sidecar next to the file.
// Only the header is read here; samples are read when the recording is loaded.
func ReadTSV(path string) (*preprocess.Recording, error) {
	sidecar, err := ReadSidecar(SidecarPath(path))
	if err != nil {
		return nil, errors.Wrap(err, "reading sidecar")
	}
	if sidecar.SamplingFrequency <= 0 {
		return nil, errors.Errorf("%s: sidecar has no sampling frequency", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	header, err := bufio.NewReader(f).ReadString('\n')
	f.Close()
	if err != nil && err != io.EOF {
		return nil, err
	}
	channels := strings.Split(strings.TrimRight(header, "\r\n"), "\t")
	if len(channels) == 0 || channels[0] == "" {
		return nil, errors.Errorf("%s: no channels in header", path)
	}

	r := preprocess.NewLazyRecording(channels, sidecar.SamplingFrequency, func() ([][]float64, error) {
		return readSamples(path, len(channels))
	})
	r.PowerLine = sidecar.PowerLineFrequency
	return r, nil
}

func readSamples(path string, nChannels int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := csv.NewReader(bufio.NewReader(f))
	c.Comma = '\t'
	c.FieldsPerRecord = nChannels
	c.ReuseRecord = true
	if _, err := c.Read(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	data := make([][]float64, nChannels)
	for {
		record, err := c.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, path)
		}
		for ch, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: channel %d", path, ch)
			}
			data[ch] = append(data[ch], v)
		}
	}
	return data, nil
}

// WriteTSV writes a loaded recording in the format read by ReadTSV, along with its sidecar.
func WriteTSV(path string, r *preprocess.Recording, task string) error {
	if !r.Loaded() {
		return errors.New("cannot write a recording that is not loaded")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(r.Channels); err != nil {
		return err
	}
	record := make([]string, len(r.Channels))
	for s := 0; s < r.NSamples(); s++ {
		for ch := range r.Channels {
			record[ch] = strconv.FormatFloat(r.Data[ch][s], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return WriteSidecar(SidecarPath(path), Sidecar{
		TaskName:           task,
		SamplingFrequency:  r.SFreq,
		PowerLineFrequency: r.PowerLine,
		RecordingDuration:  r.Duration(),
	})
}
