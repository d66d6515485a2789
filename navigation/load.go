package navigation

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadPatterns reads examples, one per line: inputWidth input values followed
// by the target values. A target may also be written as an action name
// ("forward", "turn-left", ...) which stands for that action's band centre.
// Fields are separated by spaces or commas; blank lines and lines starting
// with # are skipped.
func LoadPatterns(r io.Reader, inputWidth int) (*Dataset, error) {
	if inputWidth <= 0 {
		return nil, errors.Wrapf(ErrDataset, "input width must be positive, got %d", inputWidth)
	}
	var inputs, targets [][]float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) <= inputWidth {
			return nil, errors.Wrapf(ErrDataset, "line %d: %d fields, need %d inputs and a target", line, len(fields), inputWidth)
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := parseValue(f, i >= inputWidth)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d field %d", line, i+1)
			}
			values[i] = v
		}
		inputs = append(inputs, values[:inputWidth])
		targets = append(targets, values[inputWidth:])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read patterns")
	}
	return NewDataset(inputs, targets)
}

// LoadPatternFile opens path and reads it with LoadPatterns.
func LoadPatternFile(path string, inputWidth int) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open patterns")
	}
	defer file.Close()

	d, err := LoadPatterns(file, inputWidth)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return d, nil
}

func parseValue(field string, target bool) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err == nil {
		return v, nil
	}
	if target {
		for _, a := range Actions() {
			if strings.EqualFold(field, a.String()) {
				t, _ := a.Target()
				return t, nil
			}
		}
	}
	return 0, errors.Wrapf(ErrDataset, "cannot parse %q", field)
}
