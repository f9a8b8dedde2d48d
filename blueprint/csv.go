package blueprint

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrBadHeader is returned when a CSV table does not start with s,x,y,<value>.
var ErrBadHeader = errors.New("blueprint: bad csv header")

func newCSVReader(r io.Reader, tsv bool) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 4
	if tsv {
		cr.Comma = '\t'
	}
	return cr
}

func checkHeader(header []string) error {
	if len(header) != 4 {
		return fmt.Errorf("%w: %v", ErrBadHeader, header)
	}
	s := strings.ToLower(strings.TrimSpace(header[0]))
	x := strings.ToLower(strings.TrimSpace(header[1]))
	y := strings.ToLower(strings.TrimSpace(header[2]))
	if (s != "s" && s != "shank") || x != "x" || y != "y" {
		return fmt.Errorf("%w: %v", ErrBadHeader, header)
	}
	return nil
}

func readCSV(r io.Reader, g *Grid, tsv bool, set func(i int, field string) error) error {
	cr := newCSVReader(r, tsv)
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("blueprint: read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return err
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("blueprint: read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var coord [3]int
		for k := 0; k < 3; k++ {
			coord[k], err = strconv.Atoi(strings.TrimSpace(record[k]))
			if err != nil {
				return fmt.Errorf("blueprint: bad numbers at line %d: %w", line, err)
			}
		}
		i := g.Index(coord[0], coord[1], coord[2])
		if i < 0 {
			continue
		}
		if err := set(i, strings.TrimSpace(record[3])); err != nil {
			return fmt.Errorf("blueprint: bad numbers at line %d: %w", line, err)
		}
	}
}

// ReadCSV reads an s,x,y,category table into a category array over g.
// Rows whose coordinates are not on the grid are skipped.
func ReadCSV(r io.Reader, g *Grid, tsv bool) ([]int, error) {
	out := make([]int, g.Len())
	err := readCSV(r, g, tsv, func(i int, field string) error {
		v, err := strconv.Atoi(field)
		out[i] = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadCSVData reads an s,x,y,value table of floats over g.
// Sites without a row are NaN.
func ReadCSVData(r io.Reader, g *Grid, tsv bool) ([]float64, error) {
	out := make([]float64, g.Len())
	for i := range out {
		out[i] = math.NaN()
	}
	err := readCSV(r, g, tsv, func(i int, field string) error {
		v, err := strconv.ParseFloat(field, 64)
		out[i] = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteCSV writes values as an s,x,y,c table in site order.
func WriteCSV(w io.Writer, g *Grid, values []int, tsv bool) error {
	if len(values) != g.Len() {
		return ErrLengthMismatch
	}
	cw := csv.NewWriter(w)
	if tsv {
		cw.Comma = '\t'
	}
	if err := cw.Write([]string{"s", "x", "y", "c"}); err != nil {
		return err
	}
	record := make([]string, 4)
	for i, v := range values {
		site := g.Site(i)
		record[0] = strconv.Itoa(site.Shank)
		record[1] = strconv.Itoa(site.X)
		record[2] = strconv.Itoa(site.Y)
		record[3] = strconv.Itoa(v)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
