package layout

import (
	"fmt"
	"strings"

	"github.com/jsonviz/jsonviz/pkg/errors"
	"github.com/jsonviz/jsonviz/pkg/tree"
)

// Direction is the flow of the graph from the root outwards.
type Direction uint8

const (
	TB Direction = iota // top to bottom
	BT                  // bottom to top
	LR                  // left to right
	RL                  // right to left
)

var directionNames = [...]string{TB: "TB", BT: "BT", LR: "LR", RL: "RL"}

// Directions lists every direction.
var Directions = [...]Direction{TB, BT, LR, RL}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// IsHorizontal reports whether the flow runs along the x axis.
func (d Direction) IsHorizontal() bool { return d == LR || d == RL }

// IsReversed reports whether the depth axis is mirrored.
func (d Direction) IsReversed() bool { return d == BT || d == RL }

// MarshalText encodes the direction as its two-letter name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts anything [ParseDirection] accepts.
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses "TB", "BT", "LR" or "RL" (case-insensitive). The
// orientation names "vertical" and "horizontal" map to TB and LR.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TB", "VERTICAL", "":
		return TB, nil
	case "BT":
		return BT, nil
	case "LR", "HORIZONTAL":
		return LR, nil
	case "RL":
		return RL, nil
	}
	return TB, errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q (want TB, BT, LR or RL)", s)
}

// Side is a handle position on a node box.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Role is how a node was placed relative to the node that reached it.
type Role uint8

const (
	RoleNormal Role = iota
	RoleSpouse
	RoleSibling
)

func (r Role) String() string {
	switch r {
	case RoleNormal:
		return "normal"
	case RoleSpouse:
		return "spouse"
	case RoleSibling:
		return "sibling"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// MarshalText encodes the role as its name.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*r = RoleNormal
	case "spouse":
		*r = RoleSpouse
	case "sibling":
		*r = RoleSibling
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}

// Handles is a source/target side pair.
type Handles struct {
	Source Side
	Target Side
}

// nodeHandles gives the handles of a node box. The source side faces the
// node's children; the target side faces whatever placed it.
var nodeHandles = [3][4]Handles{
	RoleNormal: {
		TB: {SideBottom, SideTop},
		BT: {SideTop, SideBottom},
		LR: {SideRight, SideLeft},
		RL: {SideLeft, SideRight},
	},
	RoleSpouse: {
		TB: {SideBottom, SideLeft},
		BT: {SideTop, SideLeft},
		LR: {SideRight, SideTop},
		RL: {SideLeft, SideTop},
	},
	RoleSibling: {
		TB: {SideBottom, SideRight},
		BT: {SideTop, SideRight},
		LR: {SideRight, SideBottom},
		RL: {SideLeft, SideBottom},
	},
}

// edgeHandles gives the handles of an edge by relation. Lateral relatives
// share their node's row, so mirroring the depth axis leaves them alone.
var edgeHandles = [3][4]Handles{
	tree.RelationChild:   nodeHandles[RoleNormal],
	tree.RelationSpouse:  {TB: {SideRight, SideLeft}, BT: {SideRight, SideLeft}, LR: {SideBottom, SideTop}, RL: {SideBottom, SideTop}},
	tree.RelationSibling: {TB: {SideLeft, SideRight}, BT: {SideLeft, SideRight}, LR: {SideTop, SideBottom}, RL: {SideTop, SideBottom}},
}

// NodeHandles returns the handle sides for a node of the given role.
func NodeHandles(r Role, d Direction) Handles {
	if int(r) >= len(nodeHandles) || int(d) >= len(directionNames) {
		return nodeHandles[RoleNormal][TB]
	}
	return nodeHandles[r][d]
}

// EdgeHandles returns the handle sides for an edge of the given relation.
func EdgeHandles(rel tree.Relation, d Direction) Handles {
	if int(rel) >= len(edgeHandles) || int(d) >= len(directionNames) {
		return edgeHandles[tree.RelationChild][TB]
	}
	return edgeHandles[rel][d]
}

func roleOf(rel tree.Relation) Role {
	switch rel {
	case tree.RelationSpouse:
		return RoleSpouse
	case tree.RelationSibling:
		return RoleSibling
	}
	return RoleNormal
}
