package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Participant is one row of a BIDS participants file.
type Participant struct {
	ID  string
	Age float64
}

// Participants is an ordered participants table.
type Participants []Participant

// IDs returns the participant identifiers in file order.
func (p Participants) IDs() []string {
	ids := make([]string, len(p))
	for i, s := range p {
		ids[i] = s.ID
	}
	return ids
}

// Ages returns a map from participant identifier to age.
func (p Participants) Ages() map[string]float64 {
	ages := make(map[string]float64, len(p))
	for _, s := range p {
		ages[s.ID] = s.Age
	}
	return ages
}

// ReadParticipants reads a tab-separated participants table. The participant_id column and the
// age column (matched case-insensitively) are required; other columns are ignored.
func ReadParticipants(r io.Reader, ageColumn string) (Participants, error) {
	c := csv.NewReader(r)
	c.Comma = '\t'
	c.LazyQuotes = true
	c.FieldsPerRecord = -1

	header, err := c.Read()
	if err == io.EOF {
		return nil, errors.New("participants file is empty")
	} else if err != nil {
		return nil, err
	}
	id, age := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case h == "participant_id":
			id = i
		case strings.EqualFold(h, ageColumn):
			age = i
		}
	}
	if id < 0 {
		return nil, errors.New("participants file has no participant_id column")
	}
	if age < 0 {
		return nil, errors.Errorf("participants file has no %s column", ageColumn)
	}

	var p Participants
	for line := 2; ; line++ {
		record, err := c.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if len(record) <= id || len(record) <= age {
			return nil, errors.Errorf("line %d has %d fields", line, len(record))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[age]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "age of %s on line %d", record[id], line)
		}
		p = append(p, Participant{ID: strings.TrimSpace(record[id]), Age: v})
	}
	return p, nil
}

// ReadParticipantsFile opens and reads a participants file.
func ReadParticipantsFile(path, ageColumn string) (Participants, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ReadParticipants(f, ageColumn)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return p, nil
}
