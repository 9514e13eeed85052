package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// nodeLinkDoc is the NetworkX "node link" JSON shape used by GraphSAGE
// {prefix}-G.json files: a flag block plus flat node and link lists
// whose entries carry arbitrary attributes alongside the id/endpoint
// keys.
type nodeLinkDoc struct {
	Directed   bool             `json:"directed"`
	Multigraph bool             `json:"multigraph"`
	Graph      map[string]any   `json:"graph"`
	Nodes      []map[string]any `json:"nodes"`
	Links      []map[string]any `json:"links"`
}

func decodeNodeLink(r io.Reader) (*nodeLinkDoc, error) {
	var doc nodeLinkDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// normalizeID maps a JSON node identifier (string or number) onto the
// canonical external-id string. GraphSAGE datasets use both forms; the
// id map file always keys by string, so integers are rendered without
// a fractional part.
func normalizeID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", fmt.Errorf("empty node id")
		}
		return id, nil
	case float64:
		if id == math.Trunc(id) {
			return strconv.FormatInt(int64(id), 10), nil
		}
		return strconv.FormatFloat(id, 'g', -1, 64), nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("unsupported node id type %T", v)
	}
}
