package probe

import (
	"fmt"
	"strings"

	"github.com/perfgo/compilebench/model"
)

// probeLines is the number of lines a probe output file must contain.
const probeLines = 3

// Parse decodes probe output: space-joined sources, the classpath and
// space-joined compiler options, one per line. Each line may end with a
// newline (the last one may also be unterminated) and CRLF endings are
// accepted. Any other line count is an ErrOutputFormat.
func Parse(data []byte) (model.Metadata, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")

	lines := strings.Split(text, "\n")
	if len(lines) != probeLines {
		return model.Metadata{}, fmt.Errorf("%w: expected %d lines, got %d", ErrOutputFormat, probeLines, len(lines))
	}

	return model.Metadata{
		Sources:   strings.Fields(lines[0]),
		Classpath: strings.TrimSpace(lines[1]),
		Options:   strings.Fields(lines[2]),
	}, nil
}
