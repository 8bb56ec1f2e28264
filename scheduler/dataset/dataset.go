// Package dataset reads task values: positive integers, one per line.
package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/scheduler/domain"
)

const DefaultPath = "dataset.txt"

// Load reads the dataset at path. A missing file, a malformed line or a
// non-positive value is a configuration error naming the line.
func Load(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewConfigurationError("opening dataset %s: %v", path, err)
	}
	defer f.Close()

	values, err := Parse(f)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %d task values from %s", len(values), path)
	return values, nil
}

// Parse reads values from r. Blank lines are skipped.
func Parse(r io.Reader) ([]int, error) {
	var values []int
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, domain.NewConfigurationError("dataset line %d: %q is not an integer", line, text)
		}
		if v <= 0 {
			return nil, domain.NewConfigurationError("dataset line %d: value %d must be positive", line, v)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.NewConfigurationError("reading dataset: %v", err)
	}
	return values, nil
}
