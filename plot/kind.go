package plot

import (
	"fmt"
	"strings"
)

// Kind selects the chart type. Only line charts are drawn.
type Kind string

const KindLine Kind = "line"

// Kinds lists every supported chart type.
func Kinds() []Kind {
	return []Kind{KindLine}
}

// ParseKind validates a graph type coming from a form or flag.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedGraphType, s)
}

func (k Kind) String() string {
	return string(k)
}
