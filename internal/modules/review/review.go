// Package review reads and writes the synonym review file a curator edits
// between finding candidates and linking the confirmed ones.
package review

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

var Header = []string{"value", "origin_name", "similarity", "confirmed"}

// Flag is a curator's yes/no mark. It is written as 0 or 1 and read leniently.
type Flag bool

func (f Flag) MarshalCSV() (string, error) {
	if f {
		return "1", nil
	}
	return "0", nil
}

func (f *Flag) UnmarshalCSV(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "x":
		*f = true
	case "", "0", "false", "no", "n":
		*f = false
	default:
		return fmt.Errorf("confirmed: %q is not a yes/no value", s)
	}
	return nil
}

// Score is a similarity in [0,1]. A blank cell reads as 0.
type Score float64

func (s Score) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(s), 'f', -1, 64), nil
}

func (s *Score) UnmarshalCSV(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("similarity: %w", err)
	}
	*s = Score(f)
	return nil
}

type Row struct {
	Value      string `csv:"value"`
	OriginName string `csv:"origin_name"`
	Similarity Score  `csv:"similarity"`
	Confirmed  Flag   `csv:"confirmed"`
}

func RowFromCandidate(c vocab.Candidate) Row {
	return Row{
		Value:      c.Value,
		OriginName: c.OriginName,
		Similarity: Score(c.Similarity),
		Confirmed:  Flag(c.Confirmed),
	}
}

func (r Row) Candidate() vocab.Candidate {
	return vocab.Candidate{
		Value:      strings.TrimSpace(r.Value),
		OriginName: strings.TrimSpace(r.OriginName),
		Similarity: float64(r.Similarity),
		Confirmed:  bool(r.Confirmed),
	}
}

// ExportCandidates writes the review file. An empty list still yields the header.
func ExportCandidates(w io.Writer, candidates []vocab.Candidate) error {
	if len(candidates) == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(Header); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	rows := make([]*Row, 0, len(candidates))
	for _, c := range candidates {
		r := RowFromCandidate(c)
		rows = append(rows, &r)
	}
	return gocsv.Marshal(&rows, w)
}

// ReadAll parses the rows of a review file. Confirmed rows must name a complete
// term; unconfirmed rows that do not are dropped.
func ReadAll(r io.Reader) ([]vocab.Candidate, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read review file: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("review file is empty")
	}
	if err := checkHeader(raw); err != nil {
		return nil, err
	}

	var rows []*Row
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse review file: %w", err)
	}
	out := make([]vocab.Candidate, 0, len(rows))
	for i, row := range rows {
		c := row.Candidate()
		if err := c.Term().Validate(); err != nil {
			if !c.Confirmed {
				continue
			}
			return nil, fmt.Errorf("review file row %d: %w", i+2, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ImportConfirmed returns the rows a curator marked as confirmed, in file order.
func ImportConfirmed(r io.Reader) ([]vocab.Candidate, error) {
	all, err := ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Confirmed(all), nil
}

func Confirmed(candidates []vocab.Candidate) []vocab.Candidate {
	out := make([]vocab.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Confirmed {
			out = append(out, c)
		}
	}
	return out
}

func checkHeader(raw []byte) error {
	header, err := csv.NewReader(bytes.NewReader(raw)).Read()
	if err != nil {
		return fmt.Errorf("read review header: %w", err)
	}
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, h := range []string{"value", "origin_name", "confirmed"} {
		if !have[h] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("review file missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
