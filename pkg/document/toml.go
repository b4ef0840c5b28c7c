package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jsonviz/jsonviz/pkg/errors"
)

// ParseTOML decodes a TOML document into an ordered [Value]. Keys keep the
// order in which they appear in the source; datetimes become strings in
// RFC 3339 form.
func ParseTOML(data []byte) (*Value, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode toml")
	}

	order := make(map[string]int, len(md.Keys()))
	for i, k := range md.Keys() {
		p := strings.Join(k, "\x00")
		if _, ok := order[p]; !ok {
			order[p] = i
		}
	}
	return tomlValue(raw, nil, order)
}

func tomlValue(x any, path []string, order map[string]int) (*Value, error) {
	switch t := x.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		rank := func(k string) int {
			if i, ok := order[strings.Join(append(path, k), "\x00")]; ok {
				return i
			}
			return len(order)
		}
		sort.SliceStable(keys, func(i, j int) bool {
			ri, rj := rank(keys[i]), rank(keys[j])
			if ri != rj {
				return ri < rj
			}
			return keys[i] < keys[j]
		})
		v := &Value{Kind: KindObject, Members: make([]Member, 0, len(keys))}
		for _, k := range keys {
			child, err := tomlValue(t[k], append(path[:len(path):len(path)], k), order)
			if err != nil {
				return nil, err
			}
			v.Members = append(v.Members, Member{Key: k, Value: child})
		}
		return v, nil
	case []map[string]any:
		v := &Value{Kind: KindArray, Items: make([]*Value, 0, len(t))}
		for _, item := range t {
			child, err := tomlValue(item, path, order)
			if err != nil {
				return nil, err
			}
			v.Items = append(v.Items, child)
		}
		return v, nil
	case []any:
		v := &Value{Kind: KindArray, Items: make([]*Value, 0, len(t))}
		for _, item := range t {
			child, err := tomlValue(item, path, order)
			if err != nil {
				return nil, err
			}
			v.Items = append(v.Items, child)
		}
		return v, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int64:
		return Number(fmt.Sprint(t)), nil
	case float64:
		return Number(formatFloat(t)), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case nil:
		return Null(), nil
	}
	return nil, errors.New(errors.ErrCodeParse, "decode toml: unsupported value of type %T", x)
}
