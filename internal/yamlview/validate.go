package yamlview

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SyntaxError describes the first YAML syntax problem in a document.
type SyntaxError struct {
	Line int // 1-based; zero when the decoder did not report one
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

var lineRef = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// Validate checks that text is well-formed YAML. Every document in a
// multi-document stream is checked. A nil error means the syntax is valid.
func Validate(text string) error {
	dec := yaml.NewDecoder(strings.NewReader(text))
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return toSyntaxError(err)
	}
}

func toSyntaxError(err error) *SyntaxError {
	msg := strings.TrimSpace(err.Error())
	if m := lineRef.FindStringSubmatch(msg); m != nil {
		n, _ := strconv.Atoi(m[1])
		return &SyntaxError{Line: n, Msg: m[2]}
	}
	return &SyntaxError{Msg: strings.TrimPrefix(msg, "yaml: ")}
}
