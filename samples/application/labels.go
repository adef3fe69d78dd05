package application

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dfryer1193/samplestore/samples/domain"
)

// minLabelTokens is the smallest token count a line needs to be read as a
// label: a class id plus at least a few coordinates. Shorter lines are skipped.
const minLabelTokens = 6

const maxLabelLine = 1 << 20

// LabelFormatError describes a label line that qualified for parsing but
// could not be decoded.
type LabelFormatError struct {
	Line   int
	Reason string
}

func (e *LabelFormatError) Error() string {
	return fmt.Sprintf("label line %d: %s", e.Line, e.Reason)
}

// ParseLabels decodes label file content. Each line with at least six
// whitespace-separated tokens becomes one Label: the first token is the class
// id and the rest are consumed as consecutive x y pairs.
func ParseLabels(content []byte) ([]domain.Label, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLabelLine)

	labels := make([]domain.Label, 0)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		tokens := strings.Fields(scanner.Text())
		if len(tokens) < minLabelTokens {
			continue
		}

		label, err := parseLabelLine(tokens)
		if err != nil {
			return nil, &LabelFormatError{Line: lineNo, Reason: err.Error()}
		}
		labels = append(labels, label)
	}

	if err := scanner.Err(); err != nil {
		return nil, &LabelFormatError{Line: lineNo + 1, Reason: err.Error()}
	}

	return labels, nil
}

func parseLabelLine(tokens []string) (domain.Label, error) {
	classID, err := strconv.Atoi(tokens[0])
	if err != nil {
		return domain.Label{}, fmt.Errorf("class id %q is not an integer", tokens[0])
	}

	coords := tokens[1:]
	if len(coords)%2 != 0 {
		return domain.Label{}, fmt.Errorf("odd number of coordinates (%d)", len(coords))
	}

	polygon := make([]domain.Point, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		x, err := parseCoordinate("x", coords[i])
		if err != nil {
			return domain.Label{}, err
		}
		y, err := parseCoordinate("y", coords[i+1])
		if err != nil {
			return domain.Label{}, err
		}
		polygon = append(polygon, domain.Point{X: x, Y: y})
	}

	return domain.Label{ClassID: classID, Polygon: polygon}, nil
}

// parseCoordinate accepts finite numbers only; NaN and Inf cannot be encoded
// as JSON.
func parseCoordinate(axis, token string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s coordinate %q is not a finite number", axis, token)
	}
	return v, nil
}
