package manifest

import (
	"fmt"
	"strings"
)

// Coordinate is a symbolic artifact name "group:artifact:version[:classifier]".
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
}

// ParseCoordinate splits a symbolic name. At least three non-empty segments
// are required.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q", s)
	}
	c := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}
	if len(parts) > 3 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// Path returns the slash-separated repository path of the jar:
// group/with/slashes/artifact/version/artifact-version[-classifier].jar
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact + "/" + c.Version + "/" + file + ".jar"
}

// String returns the symbolic form.
func (c Coordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	return s
}

// CoordinatePath translates a symbolic name to its repository path, or ""
// when the name is malformed.
func CoordinatePath(name string) string {
	c, err := ParseCoordinate(name)
	if err != nil {
		return ""
	}
	return c.Path()
}
